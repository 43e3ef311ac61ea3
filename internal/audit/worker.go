package audit

import (
	"context"
	"io"
	"log/slog"
	"time"
)

const (
	defaultBatchSize    = 100
	defaultFlushTimeout = 5 * time.Second
)

// Worker moves events from a Publisher to a Sink until its context ends,
// then flushes what is left.
type Worker struct {
	pub    *Publisher
	sink   Sink
	batch  int
	logger *slog.Logger
}

type WorkerOption func(*Worker)

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithBatchSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.batch = n
		}
	}
}

func NewWorker(pub *Publisher, sink Sink, opts ...WorkerOption) *Worker {
	w := &Worker{pub: pub, sink: sink, batch: defaultBatchSize}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return w
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), defaultFlushTimeout)
			w.flush(flushCtx)
			cancel()
			return nil
		case <-w.pub.wake:
			w.flush(ctx)
		}
	}
}

func (w *Worker) flush(ctx context.Context) {
	for {
		batch := w.pub.buf.DequeueBatch(w.batch)
		if len(batch) == 0 {
			return
		}
		for _, event := range batch {
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.Warn("audit sink append failed",
					"action", event.Action,
					"request_id", event.RequestID,
					"error", err,
				)
			}
		}
	}
}
