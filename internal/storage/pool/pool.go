// Package pool keeps a bounded set of reusable connections per store.
//
// A Pool never holds more than its capacity in connections, counting both
// idle and lent-out ones. Callers at capacity block until a connection comes
// back, the acquire timeout elapses, or their context ends.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"dossier/internal/storage/registry"
	"dossier/pkg/platform/sentinel"
)

const (
	DefaultCapacity       = 10
	DefaultAcquireTimeout = 5 * time.Second
	DefaultProbeTimeout   = 2 * time.Second
)

// Stats is a point-in-time view of one pool.
type Stats struct {
	Store       string `json:"store"`
	Capacity    int    `json:"capacity"`
	Idle        int    `json:"idle"`
	Outstanding int    `json:"outstanding"`
}

// Pool holds connections for a single store.
type Pool struct {
	desc           registry.StoreDescriptor
	dialer         Dialer
	capacity       int
	acquireTimeout time.Duration
	probeTimeout   time.Duration
	logger         *slog.Logger
	metrics        *Metrics

	// sem holds one unit per lent-out connection.
	sem *semaphore.Weighted

	mu          sync.Mutex
	idle        []*PooledConn
	outstanding int
	closed      bool
}

func newPool(desc registry.StoreDescriptor, dialer Dialer, cfg config) *Pool {
	capacity := cfg.capacity
	if desc.Capacity > 0 {
		capacity = desc.Capacity
	}
	return &Pool{
		desc:           desc,
		dialer:         dialer,
		capacity:       capacity,
		acquireTimeout: cfg.acquireTimeout,
		probeTimeout:   cfg.probeTimeout,
		logger:         cfg.logger,
		metrics:        cfg.metrics,
		sem:            semaphore.NewWeighted(int64(capacity)),
		idle:           make([]*PooledConn, 0, capacity),
	}
}

// Acquire lends out an idle connection or dials a new one when none is idle.
func (p *Pool) Acquire(ctx context.Context) (*PooledConn, error) {
	name := p.desc.Name
	if p.isClosed() {
		return nil, fmt.Errorf("pool %s: %w", name, sentinel.ErrClosed)
	}

	start := time.Now()
	waitCtx := ctx
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}
	if err := p.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.metrics.IncExhausted(name)
		return nil, fmt.Errorf("pool %s: %w after %s", name, sentinel.ErrPoolExhausted, p.acquireTimeout)
	}
	p.metrics.ObserveAcquireWait(name, time.Since(start))

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.sem.Release(1)
		return nil, fmt.Errorf("pool %s: %w", name, sentinel.ErrClosed)
	}
	p.outstanding++
	p.metrics.SetInUse(name, p.outstanding)
	if n := len(p.idle); n > 0 {
		pc := p.idle[n-1]
		p.idle[n-1] = nil
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		pc.returned.Store(false)
		return pc, nil
	}
	p.mu.Unlock()

	conn, err := p.dialer.Dial(ctx, p.desc)
	if err != nil {
		p.mu.Lock()
		p.outstanding--
		p.metrics.SetInUse(name, p.outstanding)
		p.mu.Unlock()
		p.sem.Release(1)
		p.metrics.IncDialError(name)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("pool %s: %w: %w", name, sentinel.ErrUnavailable, err)
	}
	p.metrics.IncDial(name)
	p.logger.Debug("store connection opened", "store", name)
	return &PooledConn{Conn: conn, pool: p, createdAt: time.Now()}, nil
}

// Release returns a connection to the pool after probing it. A connection
// that fails the probe is closed and its slot freed, so the next Acquire
// dials a fresh one. Releasing the same connection twice is a no-op.
func (p *Pool) Release(pc *PooledConn) {
	if pc == nil || pc.pool != p {
		return
	}
	if pc.returned.Swap(true) {
		p.logger.Warn("connection released twice", "store", p.desc.Name)
		return
	}
	defer p.sem.Release(1)

	// The caller's context may already be cancelled; the probe must not be.
	probeCtx, cancel := context.WithTimeout(context.Background(), p.probeTimeout)
	probeErr := pc.Ping(probeCtx)
	cancel()

	p.mu.Lock()
	p.outstanding--
	p.metrics.SetInUse(p.desc.Name, p.outstanding)
	if probeErr == nil && !p.closed {
		pc.lastProbe = time.Now()
		p.idle = append(p.idle, pc)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if probeErr != nil {
		p.metrics.IncDiscard(p.desc.Name)
		p.logger.Warn("discarding store connection after failed probe",
			"store", p.desc.Name,
			"error", probeErr,
		)
	}
	p.closeConn(pc)
}

// Stats snapshots the pool's counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Store:       p.desc.Name,
		Capacity:    p.capacity,
		Idle:        len(p.idle),
		Outstanding: p.outstanding,
	}
}

// DrainIdle closes every idle connection and returns how many were closed.
// Lent-out connections are unaffected.
func (p *Pool) DrainIdle() int {
	p.mu.Lock()
	idle := p.idle
	p.idle = make([]*PooledConn, 0, p.capacity)
	p.mu.Unlock()

	for _, pc := range idle {
		p.closeConn(pc)
	}
	return len(idle)
}

// Close closes idle connections and marks the pool closed. Connections still
// lent out are closed when released.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	var errs []error
	for _, pc := range idle {
		if err := pc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s connection: %w", p.desc.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Pool) closeConn(pc *PooledConn) {
	if err := pc.Close(); err != nil {
		p.logger.Warn("close store connection", "store", p.desc.Name, "error", err)
	}
}
