// Package tracker runs request work under a deadline and keeps a registry of
// everything in flight, so shutdown and periodic reconnects can cancel it.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	dErrors "dossier/pkg/domain-errors"
)

// DefaultTimeout bounds operations tracked without an explicit timeout.
const DefaultTimeout = 300 * time.Second

// State is the lifecycle position of an operation.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateTimedOut  State = "timed_out"
	StateCancelled State = "cancelled"
)

// Cancellation causes attached to an operation's context.
var (
	ErrDeadline  = errors.New("operation deadline exceeded")
	ErrShutdown  = errors.New("shutting down")
	ErrReconnect = errors.New("cancelled for reconnect")
	ErrCancelled = errors.New("operation cancelled")
)

// Snapshot describes one in-flight operation.
type Snapshot struct {
	ID        string    `json:"id"`
	State     State     `json:"state"`
	StartedAt time.Time `json:"started_at"`
	Deadline  time.Time `json:"deadline"`
}

type operation struct {
	id        string
	state     State
	startedAt time.Time
	deadline  time.Time
	cancel    context.CancelCauseFunc
}

// Tracker registers operations by correlation id and enforces their
// deadlines. A single mutex guards the registry.
type Tracker struct {
	defaultTimeout    time.Duration
	reconnectInterval time.Duration
	onReconnect       func()
	logger            *slog.Logger
	metrics           *Metrics

	mu      sync.Mutex
	ops     map[string]*operation
	closing bool

	work     sync.WaitGroup // work goroutines, drained on shutdown
	loop     sync.WaitGroup
	stopLoop chan struct{}
	stopOnce sync.Once
}

type Option func(*Tracker)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// WithDefaultTimeout applies to Track calls with a non-positive timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.defaultTimeout = d
		}
	}
}

// WithReconnect makes Start cancel all in-flight operations every interval
// and then call hook. A zero interval disables the loop.
func WithReconnect(interval time.Duration, hook func()) Option {
	return func(t *Tracker) {
		t.reconnectInterval = interval
		t.onReconnect = hook
	}
}

func New(opts ...Option) *Tracker {
	t := &Tracker{
		defaultTimeout: DefaultTimeout,
		ops:            make(map[string]*operation),
		stopLoop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return t
}

// Track runs work under timeout. It returns work's error unchanged when work
// finishes first; otherwise it cancels work and returns a Timeout,
// ShuttingDown or Cancelled domain error right away, without waiting for work
// to unwind. An empty id is replaced by a generated one; an id already in
// flight is rejected.
func (t *Tracker) Track(ctx context.Context, id string, timeout time.Duration, work func(ctx context.Context) error) error {
	if timeout <= 0 {
		timeout = t.defaultTimeout
	}
	if id == "" {
		id = uuid.NewString()
	}

	opCtx, cancel := context.WithCancelCause(ctx)
	now := time.Now()
	op := &operation{
		id:        id,
		state:     StatePending,
		startedAt: now,
		deadline:  now.Add(timeout),
		cancel:    cancel,
	}

	t.mu.Lock()
	if t.closing {
		t.mu.Unlock()
		cancel(ErrShutdown)
		return dErrors.New(dErrors.CodeShuttingDown, "service is shutting down")
	}
	if _, exists := t.ops[id]; exists {
		t.mu.Unlock()
		cancel(nil)
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("operation %s already in flight", id))
	}
	t.ops[id] = op
	op.state = StateRunning
	t.work.Add(1)
	inFlight := len(t.ops)
	t.mu.Unlock()
	t.metrics.SetInFlight(inFlight)

	done := make(chan error, 1)
	go func() {
		defer t.work.Done()
		done <- work(opCtx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil && opCtx.Err() != nil {
			return t.interrupted(op, opCtx, ctx)
		}
		t.finish(op, StateCompleted)
		cancel(nil)
		return err
	case <-timer.C:
		cancel(ErrDeadline)
		t.finish(op, StateTimedOut)
		t.logger.Warn("operation timed out",
			"operation_id", id,
			"timeout_ms", timeout.Milliseconds(),
		)
		return dErrors.New(dErrors.CodeTimeout, fmt.Sprintf("operation exceeded %s", timeout))
	case <-opCtx.Done():
		return t.interrupted(op, opCtx, ctx)
	}
}

// interrupted classifies an operation whose context ended before it finished.
func (t *Tracker) interrupted(op *operation, opCtx, parent context.Context) error {
	cause := context.Cause(opCtx)
	op.cancel(cause)
	switch {
	case errors.Is(cause, ErrDeadline), errors.Is(parent.Err(), context.DeadlineExceeded):
		t.finish(op, StateTimedOut)
		return dErrors.Wrap(cause, dErrors.CodeTimeout, "operation deadline exceeded")
	case errors.Is(cause, ErrShutdown):
		t.finish(op, StateCancelled)
		return dErrors.Wrap(cause, dErrors.CodeShuttingDown, "service is shutting down")
	default:
		t.finish(op, StateCancelled)
		return dErrors.Wrap(cause, dErrors.CodeCancelled, "operation cancelled")
	}
}

func (t *Tracker) finish(op *operation, state State) {
	t.mu.Lock()
	op.state = state
	if t.ops[op.id] == op {
		delete(t.ops, op.id)
	}
	inFlight := len(t.ops)
	t.mu.Unlock()

	t.metrics.SetInFlight(inFlight)
	t.metrics.ObserveOperation(state, time.Since(op.startedAt))
}

// Run is Track for work that produces a value. The value is returned only
// when work completes without error.
func Run[T any](ctx context.Context, t *Tracker, id string, timeout time.Duration, work func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := t.Track(ctx, id, timeout, func(ctx context.Context) error {
		v, err := work(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Cancel cancels one in-flight operation. Unknown or finished ids are ignored.
func (t *Tracker) Cancel(id string) bool {
	t.mu.Lock()
	op, ok := t.ops[id]
	t.mu.Unlock()
	if !ok {
		return false
	}
	op.cancel(ErrCancelled)
	return true
}

// CancelAll cancels every in-flight operation with cause and returns how many
// were cancelled.
func (t *Tracker) CancelAll(cause error) int {
	t.mu.Lock()
	ops := make([]*operation, 0, len(t.ops))
	for _, op := range t.ops {
		ops = append(ops, op)
	}
	t.mu.Unlock()

	for _, op := range ops {
		op.cancel(cause)
	}
	return len(ops)
}

// InFlight lists operations currently registered, oldest first.
func (t *Tracker) InFlight() []Snapshot {
	t.mu.Lock()
	out := make([]Snapshot, 0, len(t.ops))
	for _, op := range t.ops {
		out = append(out, Snapshot{ID: op.id, State: op.state, StartedAt: op.startedAt, Deadline: op.deadline})
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Start runs the periodic reconnect loop until ctx ends or Shutdown is
// called. It returns immediately; with no reconnect interval it does nothing.
func (t *Tracker) Start(ctx context.Context) {
	if t.reconnectInterval <= 0 {
		return
	}
	t.loop.Add(1)
	go func() {
		defer t.loop.Done()
		ticker := time.NewTicker(t.reconnectInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.stopLoop:
				return
			case <-ticker.C:
				t.reconnect()
			}
		}
	}()
}

func (t *Tracker) reconnect() {
	n := t.CancelAll(ErrReconnect)
	if t.onReconnect != nil {
		t.onReconnect()
	}
	t.metrics.IncReconnect()
	t.logger.Info("periodic reconnect", "cancelled_operations", n)
}

// Shutdown stops accepting work, cancels everything in flight and waits for
// work goroutines to return or ctx to end, whichever comes first.
func (t *Tracker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	t.closing = true
	t.mu.Unlock()

	t.stopOnce.Do(func() { close(t.stopLoop) })
	n := t.CancelAll(ErrShutdown)
	t.logger.Info("tracker shutting down", "cancelled_operations", n)

	drained := make(chan struct{})
	go func() {
		t.work.Wait()
		t.loop.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain in-flight operations: %w", ctx.Err())
	}
}
