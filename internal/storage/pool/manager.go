package pool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"dossier/internal/storage/registry"
	"dossier/pkg/platform/sentinel"
)

// Registry resolves store names to descriptors.
type Registry interface {
	Lookup(name string) (registry.StoreDescriptor, bool)
}

type config struct {
	capacity       int
	acquireTimeout time.Duration
	probeTimeout   time.Duration
	logger         *slog.Logger
	metrics        *Metrics
}

// Option configures a Manager.
type Option func(*config)

// WithCapacity sets the default per-store capacity. Descriptors with their
// own capacity override it.
func WithCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithAcquireTimeout bounds how long Acquire waits at capacity. Zero waits
// until the caller's context ends.
func WithAcquireTimeout(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.acquireTimeout = d
		}
	}
}

func WithProbeTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.probeTimeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// Manager owns one Pool per store, created on first use.
type Manager struct {
	registry Registry
	dialer   Dialer
	cfg      config

	mu     sync.Mutex
	pools  map[string]*Pool
	closed bool
}

func NewManager(reg Registry, dialer Dialer, opts ...Option) *Manager {
	cfg := config{
		capacity:       DefaultCapacity,
		acquireTimeout: DefaultAcquireTimeout,
		probeTimeout:   DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		registry: reg,
		dialer:   dialer,
		cfg:      cfg,
		pools:    make(map[string]*Pool),
	}
}

// Pool returns the pool for store, creating it on first use.
func (m *Manager) Pool(store string) (*Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("pool manager: %w", sentinel.ErrClosed)
	}
	if p, ok := m.pools[store]; ok {
		return p, nil
	}
	desc, ok := m.registry.Lookup(store)
	if !ok {
		return nil, fmt.Errorf("store %s not registered: %w", store, sentinel.ErrUnavailable)
	}
	p := newPool(desc, m.dialer, m.cfg)
	m.pools[store] = p
	return p, nil
}

// Acquire lends out a connection to store.
func (m *Manager) Acquire(ctx context.Context, store string) (*PooledConn, error) {
	p, err := m.Pool(store)
	if err != nil {
		return nil, err
	}
	return p.Acquire(ctx)
}

// Release hands a connection back to the pool it came from.
func (m *Manager) Release(pc *PooledConn) {
	if pc == nil {
		return
	}
	pc.pool.Release(pc)
}

// WithConn runs fn on a connection to store and always releases it.
func (m *Manager) WithConn(ctx context.Context, store string, fn func(Conn) error) error {
	pc, err := m.Acquire(ctx, store)
	if err != nil {
		return err
	}
	defer m.Release(pc)
	return fn(pc)
}

// Stats returns a snapshot of every pool created so far, sorted by store.
func (m *Manager) Stats() []Stats {
	m.mu.Lock()
	pools := make([]*Pool, 0, len(m.pools))
	for _, p := range m.pools {
		pools = append(pools, p)
	}
	m.mu.Unlock()

	stats := make([]Stats, 0, len(pools))
	for _, p := range pools {
		stats = append(stats, p.Stats())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Store < stats[j].Store })
	return stats
}

// DrainIdle closes idle connections across all pools so the next lookups
// reconnect. It returns the number of connections closed.
func (m *Manager) DrainIdle() int {
	m.mu.Lock()
	pools := make([]*Pool, 0, len(m.pools))
	for _, p := range m.pools {
		pools = append(pools, p)
	}
	m.mu.Unlock()

	total := 0
	for _, p := range pools {
		total += p.DrainIdle()
	}
	if total > 0 {
		m.cfg.logger.Info("drained idle store connections", "count", total)
	}
	return total
}

// Close closes every pool. Subsequent Acquire calls fail with ErrClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	pools := m.pools
	m.mu.Unlock()

	var errs []error
	for _, p := range pools {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
