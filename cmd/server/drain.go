package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

type httpShutdowner interface {
	Shutdown(ctx context.Context) error
}

type operationTracker interface {
	Shutdown(ctx context.Context) error
}

type poolCloser interface {
	Close() error
}

// drain stops the process in dependency order. The tracker is shut down
// alongside the HTTP server, so in-flight resolves are cancelled at once and
// their handlers answer shutting_down while the server flushes. Pools close
// last; connections still on loan are closed as they come back.
func drain(ctx context.Context, log *slog.Logger, srv httpShutdowner, tr operationTracker, pools poolCloser) error {
	httpDone := make(chan error, 1)
	go func() {
		httpDone <- srv.Shutdown(ctx)
	}()

	var errs []error
	if err := tr.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracker shutdown: %w", err))
	}
	if err := <-httpDone; err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := pools.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pools: %w", err))
	}
	if len(errs) > 0 {
		log.Warn("drain incomplete", "error", errors.Join(errs...))
	}
	return errors.Join(errs...)
}
