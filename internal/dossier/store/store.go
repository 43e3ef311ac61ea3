// Package store runs the point lookups behind each dossier branch. Every
// lookup borrows one pooled connection for the duration of a single query.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dossier/internal/dossier/models"
	"dossier/internal/storage/pool"
	"dossier/internal/storage/registry"
	"dossier/pkg/domain"
	"dossier/pkg/platform/sentinel"
)

// Conns lends connections by store name.
type Conns interface {
	WithConn(ctx context.Context, store string, fn func(pool.Conn) error) error
}

// Router picks the instance of a sharded store that holds a key.
type Router interface {
	Route(base, key string) (string, error)
}

type passthrough struct{}

func (passthrough) Route(base, _ string) (string, error) { return base, nil }

// Store reads the dossier tables.
type Store struct {
	conns  Conns
	router Router
	logger *slog.Logger
}

type Option func(*Store)

// WithRouter shards primary-store lookups by CPF.
func WithRouter(r Router) Option {
	return func(s *Store) {
		if r != nil {
			s.router = r
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func New(conns Conns, opts ...Option) *Store {
	s := &Store{
		conns:  conns,
		router: passthrough{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// query runs q against store. A store without the table reads as empty.
// Failures other than cancellation come back wrapping ErrUnavailable.
func (s *Store) query(ctx context.Context, store, q string, args []any, fn func(pool.Row) error) error {
	err := s.conns.WithConn(ctx, store, func(c pool.Conn) error {
		return c.Query(ctx, q, args, fn)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrMissingTable):
		s.logger.Debug("store has no table, treating as empty", "store", store)
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, sentinel.ErrUnavailable), errors.Is(err, sentinel.ErrPoolExhausted), errors.Is(err, sentinel.ErrClosed):
		return err
	default:
		return fmt.Errorf("%s: %w: %w", store, sentinel.ErrUnavailable, err)
	}
}

// Basic resolves a CPF to its primary row, including the contact id. The
// lookup is routed to the shard holding the CPF when the store is sharded.
func (s *Store) Basic(ctx context.Context, cpf domain.CPF) (*models.Basic, error) {
	instance, err := s.router.Route(registry.StoreContacts, cpf.String())
	if err != nil {
		return nil, err
	}
	var found *models.Basic
	err = s.query(ctx, instance, queryBasic, []any{cpf.String()}, func(r pool.Row) error {
		if found != nil {
			return nil
		}
		found = &models.Basic{
			Name:       r.Text(0),
			CPF:        r.Text(1),
			BirthDate:  r.Text(2),
			MotherName: r.Text(3),
			FatherName: r.Text(4),
			Sex:        r.Text(5),
			ContactID:  r.Int64(6),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, sentinel.ErrNotFound
	}
	return found, nil
}
