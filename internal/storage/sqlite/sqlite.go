// Package sqlite opens file-backed store connections with zombiezen.com/go/sqlite.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"dossier/internal/storage/pool"
	"dossier/internal/storage/registry"
	"dossier/pkg/platform/sentinel"
)

const openFlags = sqlite.OpenReadWrite | sqlite.OpenCreate | sqlite.OpenURI | sqlite.OpenNoMutex

// Dialer opens SQLite connections. Absent store files are created empty,
// along with their parent directory.
type Dialer struct {
	logger *slog.Logger
}

type Option func(*Dialer)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dialer) {
		d.logger = logger
	}
}

func NewDialer(opts ...Option) *Dialer {
	d := &Dialer{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dial opens desc.Target and applies desc.Pragmas in order.
func (d *Dialer) Dial(ctx context.Context, desc registry.StoreDescriptor) (pool.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if isPlainPath(desc.Target) {
		created, err := ensureFile(desc.Target)
		if err != nil {
			return nil, fmt.Errorf("prepare %s: %w", desc.Name, err)
		}
		if created {
			d.logger.Warn("store file missing, created empty database",
				"store", desc.Name,
				"path", desc.Target,
			)
		}
	}

	conn, err := sqlite.OpenConn(desc.Target, openFlags)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", desc.Name, err)
	}
	for _, p := range desc.Pragmas {
		stmt := "PRAGMA " + p.String()
		if err := sqlitex.ExecuteTransient(conn, stmt, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s on %s: %w", stmt, desc.Name, err)
		}
	}
	return &Conn{conn: conn, store: desc.Name}, nil
}

func isPlainPath(target string) bool {
	return target != "" && target != ":memory:" && !strings.HasPrefix(target, "file:")
}

// ensureFile creates the parent directory and an empty file when absent.
func ensureFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return false, err
	}
	return true, f.Close()
}

// Conn is a single SQLite connection. Not safe for concurrent use; the pool
// hands it to one caller at a time.
type Conn struct {
	conn  *sqlite.Conn
	store string
}

// Query runs query with args and feeds each row to fn. Cancelling ctx
// interrupts the running statement.
func (c *Conn) Query(ctx context.Context, query string, args []any, fn func(pool.Row) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.conn.SetInterrupt(ctx.Done())
	defer c.conn.SetInterrupt(nil)

	row := stmtRow{}
	err := sqlitex.Execute(c.conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			row.stmt = stmt
			return fn(row)
		},
	})
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && sqlite.ErrCode(err) == sqlite.ResultInterrupt {
		return ctxErr
	}
	if isMissingTable(err) {
		return fmt.Errorf("%s: %w", c.store, sentinel.ErrMissingTable)
	}
	return err
}

// Ping runs SELECT 1.
func (c *Conn) Ping(ctx context.Context) error {
	c.conn.SetInterrupt(ctx.Done())
	defer c.conn.SetInterrupt(nil)
	return sqlitex.ExecuteTransient(c.conn, "SELECT 1", nil)
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

func isMissingTable(err error) bool {
	return strings.Contains(err.Error(), "no such table")
}

type stmtRow struct {
	stmt *sqlite.Stmt
}

func (r stmtRow) ColumnCount() int  { return r.stmt.ColumnCount() }
func (r stmtRow) Text(i int) string { return r.stmt.ColumnText(i) }
func (r stmtRow) Int64(i int) int64 { return r.stmt.ColumnInt64(i) }
func (r stmtRow) IsNull(i int) bool { return r.stmt.ColumnType(i) == sqlite.TypeNull }
