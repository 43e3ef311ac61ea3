// Package postgres opens store connections to PostgreSQL targets with pgx.
// Queries use the same '?' placeholders as SQLite stores and are rebound to
// PostgreSQL's $n form.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"dossier/internal/storage/pool"
	"dossier/internal/storage/registry"
	"dossier/pkg/platform/sentinel"
)

// undefined_table
const codeUndefinedTable = "42P01"

// Dialer connects to desc.Target as a PostgreSQL URL and applies each
// descriptor pragma as a session setting.
type Dialer struct{}

func NewDialer() *Dialer {
	return &Dialer{}
}

func (d *Dialer) Dial(ctx context.Context, desc registry.StoreDescriptor) (pool.Conn, error) {
	conn, err := pgx.Connect(ctx, desc.Target)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", desc.Name, err)
	}
	for _, p := range desc.Pragmas {
		if _, err := conn.Exec(ctx, "SELECT set_config($1, $2, false)", p.Name, p.Value); err != nil {
			_ = conn.Close(context.Background())
			return nil, fmt.Errorf("set %s on %s: %w", p, desc.Name, err)
		}
	}
	return &Conn{conn: conn, store: desc.Name}, nil
}

// Conn wraps a single pgx connection.
type Conn struct {
	conn  *pgx.Conn
	store string
}

func (c *Conn) Query(ctx context.Context, query string, args []any, fn func(pool.Row) error) error {
	rows, err := c.conn.Query(ctx, Rebind(query), args...)
	if err != nil {
		return c.mapErr(ctx, err)
	}
	defer rows.Close()

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return c.mapErr(ctx, err)
		}
		if err := fn(valueRow(values)); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return c.mapErr(ctx, err)
	}
	return nil
}

func (c *Conn) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *Conn) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.conn.Close(ctx)
}

func (c *Conn) mapErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUndefinedTable {
		return fmt.Errorf("%s: %w", c.store, sentinel.ErrMissingTable)
	}
	return err
}

// Rebind rewrites '?' placeholders outside string literals to $1, $2, ...
func Rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

type valueRow []any

func (r valueRow) ColumnCount() int { return len(r) }

func (r valueRow) IsNull(i int) bool { return r[i] == nil }

func (r valueRow) Text(i int) string {
	switch v := r[i].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.DateTime)
	default:
		return fmt.Sprint(v)
	}
}

func (r valueRow) Int64(i int) int64 {
	switch v := r[i].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n
	default:
		return 0
	}
}
