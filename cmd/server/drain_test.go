package main

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dossier/internal/tracker"
	dErrors "dossier/pkg/domain-errors"
)

// handlerServer mimics http.Server.Shutdown: it returns once the in-flight
// handler has written its response, or when ctx ends.
type handlerServer struct {
	responded <-chan struct{}
}

func (s handlerServer) Shutdown(ctx context.Context) error {
	select {
	case <-s.responded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type recordingPools struct {
	mu     sync.Mutex
	closed bool
}

func (p *recordingPools) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func TestDrainCancelsInFlightOperationsImmediately(t *testing.T) {
	tr := tracker.New()
	responded := make(chan struct{})
	var handlerErr error

	go func() {
		defer close(responded)
		handlerErr = tr.Track(context.Background(), "", time.Minute, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	}()
	require.Eventually(t, func() bool { return len(tr.InFlight()) == 1 }, time.Second, time.Millisecond)

	pools := &recordingPools{}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := drain(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), handlerServer{responded: responded}, tr, pools)

	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, dErrors.HasCode(handlerErr, dErrors.CodeShuttingDown), "got %v", handlerErr)
	assert.True(t, pools.closed)
}

func TestDrainReportsHTTPTimeout(t *testing.T) {
	tr := tracker.New()
	pools := &recordingPools{}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := drain(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), handlerServer{responded: make(chan struct{})}, tr, pools)

	require.Error(t, err)
	assert.ErrorContains(t, err, "http shutdown")
	assert.True(t, pools.closed)
}
