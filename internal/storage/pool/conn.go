package pool

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"dossier/internal/storage/registry"
)

// Row gives read access to the current result row of a Query callback.
// Values are only valid for the duration of the callback.
type Row interface {
	ColumnCount() int
	// Text returns the column as a string; NULL reads as "".
	Text(i int) string
	// Int64 returns the column as an integer; NULL reads as 0.
	Int64(i int) int64
	IsNull(i int) bool
}

// Conn is one live connection to a store.
type Conn interface {
	// Query runs a point lookup and calls fn once per result row. A store
	// without the queried table yields sentinel.ErrMissingTable.
	Query(ctx context.Context, query string, args []any, fn func(Row) error) error
	// Ping checks the connection is still usable.
	Ping(ctx context.Context) error
	Close() error
}

// Dialer opens a connection for a store and applies its init settings
// exactly once, before returning it.
type Dialer interface {
	Dial(ctx context.Context, desc registry.StoreDescriptor) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, desc registry.StoreDescriptor) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, desc registry.StoreDescriptor) (Conn, error) {
	return f(ctx, desc)
}

// Drivers routes Dial to the dialer registered for the descriptor's driver.
type Drivers map[registry.Driver]Dialer

func (d Drivers) Dial(ctx context.Context, desc registry.StoreDescriptor) (Conn, error) {
	dialer, ok := d[desc.Driver]
	if !ok {
		return nil, fmt.Errorf("store %s: no dialer for driver %q", desc.Name, desc.Driver)
	}
	return dialer.Dial(ctx, desc)
}

// PooledConn is a connection on loan from a Pool. It is owned by exactly one
// caller between Acquire and Release.
type PooledConn struct {
	Conn

	pool      *Pool
	createdAt time.Time
	lastProbe time.Time
	returned  atomic.Bool
}

// Store names the store the connection belongs to.
func (pc *PooledConn) Store() string {
	return pc.pool.desc.Name
}

func (pc *PooledConn) CreatedAt() time.Time {
	return pc.createdAt
}

// LastProbe is when the connection last passed a liveness probe. Zero until
// its first Release.
func (pc *PooledConn) LastProbe() time.Time {
	return pc.lastProbe
}
