package tracker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "dossier/pkg/domain-errors"
)

func newTracker(opts ...Option) *Tracker {
	return New(append([]Option{WithMetrics(NewMetricsWith(prometheus.NewRegistry()))}, opts...)...)
}

// blockUntilDone simulates a store call that only stops when cancelled.
func blockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestTrackCompletesWithWorkResult(t *testing.T) {
	tr := newTracker()

	err := tr.Track(context.Background(), "op-1", time.Second, func(context.Context) error { return nil })
	require.NoError(t, err)

	workErr := errors.New("store said no")
	err = tr.Track(context.Background(), "op-2", time.Second, func(context.Context) error { return workErr })
	assert.Same(t, workErr, err)
	assert.Empty(t, tr.InFlight())
}

func TestRunReturnsValueUnmodified(t *testing.T) {
	tr := newTracker()
	got, err := Run(context.Background(), tr, "", time.Second, func(context.Context) ([]string, error) {
		return []string{"11999990000"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"11999990000"}, got)
}

func TestTrackTimesOutPromptly(t *testing.T) {
	tr := newTracker()
	unwound := make(chan struct{})

	start := time.Now()
	err := tr.Track(context.Background(), "slow", 30*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(200 * time.Millisecond) // slow unwind must not delay the caller
		close(unwound)
		return ctx.Err()
	})

	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout), "got %v", err)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.Empty(t, tr.InFlight())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, tr.Shutdown(ctx))
	select {
	case <-unwound:
	default:
		t.Fatal("shutdown returned before work unwound")
	}
}

func TestRunTimeoutReturnsZeroValue(t *testing.T) {
	tr := newTracker()
	got, err := Run(context.Background(), tr, "", 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 42, nil
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	assert.Zero(t, got)
}

func TestDefaultTimeoutApplies(t *testing.T) {
	tr := newTracker(WithDefaultTimeout(20 * time.Millisecond))
	err := tr.Track(context.Background(), "", 0, blockUntilDone)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestDuplicateLiveIDRejected(t *testing.T) {
	tr := newTracker()
	started := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = tr.Track(context.Background(), "dup", time.Second, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	err := tr.Track(context.Background(), "dup", time.Second, func(context.Context) error { return nil })
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	snaps := tr.InFlight()
	require.Len(t, snaps, 1)
	assert.Equal(t, "dup", snaps[0].ID)
	assert.Equal(t, StateRunning, snaps[0].State)
	close(release)
}

func TestParentCancellation(t *testing.T) {
	tr := newTracker()
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	err := tr.Track(ctx, "", time.Second, blockUntilDone)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeCancelled))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParentDeadlineIsTimeout(t *testing.T) {
	tr := newTracker()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := tr.Track(ctx, "", time.Second, blockUntilDone)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestCancelByID(t *testing.T) {
	tr := newTracker()
	started := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- tr.Track(context.Background(), "victim", time.Second, func(ctx context.Context) error {
			close(started)
			return blockUntilDone(ctx)
		})
	}()
	<-started

	assert.True(t, tr.Cancel("victim"))
	err := <-errCh
	assert.True(t, dErrors.HasCode(err, dErrors.CodeCancelled))
	assert.ErrorIs(t, err, ErrCancelled)

	assert.False(t, tr.Cancel("victim"), "cancel after completion is a no-op")
}

func TestShutdownCancelsAndRejects(t *testing.T) {
	tr := newTracker()
	started := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- tr.Track(context.Background(), "", time.Minute, func(ctx context.Context) error {
			close(started)
			return blockUntilDone(ctx)
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, tr.Shutdown(ctx))

	assert.True(t, dErrors.HasCode(<-errCh, dErrors.CodeShuttingDown))

	err := tr.Track(context.Background(), "", time.Second, func(context.Context) error { return nil })
	assert.True(t, dErrors.HasCode(err, dErrors.CodeShuttingDown))
}

func TestShutdownDrainTimeout(t *testing.T) {
	tr := newTracker()
	stuck := make(chan struct{})
	defer close(stuck)
	go func() {
		_ = tr.Track(context.Background(), "stuck", time.Minute, func(context.Context) error {
			<-stuck // ignores cancellation
			return nil
		})
	}()
	require.Eventually(t, func() bool { return len(tr.InFlight()) == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tr.Shutdown(ctx), context.DeadlineExceeded)
}

func TestReconnectLoopCancelsAndCallsHook(t *testing.T) {
	var hooks atomic.Int32
	tr := newTracker(WithReconnect(20*time.Millisecond, func() { hooks.Add(1) }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr.Start(ctx)

	err := tr.Track(context.Background(), "", time.Second, blockUntilDone)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeCancelled))
	assert.ErrorIs(t, err, ErrReconnect)
	assert.Eventually(t, func() bool { return hooks.Load() >= 1 }, time.Second, time.Millisecond)

	sctx, scancel := context.WithTimeout(context.Background(), time.Second)
	defer scancel()
	require.NoError(t, tr.Shutdown(sctx))
}

func TestStartWithoutIntervalIsNoop(t *testing.T) {
	tr := newTracker()
	tr.Start(context.Background())
	require.NoError(t, tr.Shutdown(context.Background()))
}
