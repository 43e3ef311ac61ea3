// Package service resolves a CPF into a composite record by looking up the
// contact id in the primary store and then querying every auxiliary store in
// parallel. A failing auxiliary store only blanks its own fields.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dossier/internal/audit"
	"dossier/internal/dossier/metrics"
	"dossier/internal/dossier/models"
	"dossier/internal/tracker"
	"dossier/pkg/domain"
	dErrors "dossier/pkg/domain-errors"
)

const (
	DefaultFanOutLimit = 8
	DefaultTimeout     = tracker.DefaultTimeout
)

type Service struct {
	lookups     Lookups
	addresses   AddressSource
	tracker     *tracker.Tracker
	cache       Cache
	auditor     AuditPublisher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	fanOutLimit int
	timeout     time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCache enables the composite record cache.
func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithAuditor(a AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

// WithAddressSource replaces the address branch's source.
func WithAddressSource(a AddressSource) Option {
	return func(s *Service) {
		s.addresses = a
	}
}

// WithFanOutLimit caps concurrently running branch lookups.
func WithFanOutLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fanOutLimit = n
		}
	}
}

// WithTimeout sets the deadline for one whole resolve.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New builds the orchestrator. When lookups can also serve addresses it is
// used as the default AddressSource.
func New(lookups Lookups, tr *tracker.Tracker, opts ...Option) *Service {
	s := &Service{
		lookups:     lookups,
		tracker:     tr,
		fanOutLimit: DefaultFanOutLimit,
		timeout:     DefaultTimeout,
	}
	if a, ok := lookups.(AddressSource); ok {
		s.addresses = a
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("dossier/service")
	}
	return s
}

// Resolve validates raw as a CPF and assembles its composite record under the
// tracker's deadline. correlationID only labels logs, spans and the audit
// event; it may be empty or shared by concurrent calls.
//
// Errors carry one of CodeInvalidInput, CodeNotFound, CodeTimeout,
// CodeRouting, CodeUnavailable (primary store only), CodeShuttingDown or
// CodeCancelled.
func (s *Service) Resolve(ctx context.Context, raw, correlationID string) (*models.CompositeRecord, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "dossier.Resolve",
		trace.WithAttributes(attribute.String("correlation_id", correlationID)))
	defer span.End()

	cpf, err := domain.ParseCPF(raw)
	if err != nil {
		s.complete(ctx, span, start, correlationID, "", nil, false, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("cpf.hash", cpf.Hash()))

	if rec, ok := s.fromCache(ctx, cpf); ok {
		s.complete(ctx, span, start, correlationID, cpf.Hash(), rec, true, nil)
		return rec, nil
	}

	// correlation ids may repeat; the tracker assigns each resolve its own id
	rec, err := tracker.Run(ctx, s.tracker, "", s.timeout, func(ctx context.Context) (*models.CompositeRecord, error) {
		return s.aggregate(ctx, cpf)
	})
	if err != nil {
		var de *dErrors.Error
		if !errors.As(err, &de) {
			err = dErrors.Wrap(err, dErrors.CodeInternal, "resolve failed")
		}
		s.complete(ctx, span, start, correlationID, cpf.Hash(), nil, false, err)
		return nil, err
	}

	if rec.Complete() {
		s.toCache(ctx, cpf, rec)
	}
	s.complete(ctx, span, start, correlationID, cpf.Hash(), rec, false, nil)
	return rec, nil
}

func (s *Service) fromCache(ctx context.Context, cpf domain.CPF) (*models.CompositeRecord, bool) {
	if s.cache == nil {
		return nil, false
	}
	rec, ok, err := s.cache.Get(ctx, cpf)
	switch {
	case err != nil:
		s.metrics.IncrementCache("error")
		s.logger.WarnContext(ctx, "record cache read failed", "error", err)
		return nil, false
	case !ok:
		s.metrics.IncrementCache("miss")
		return nil, false
	}
	s.metrics.IncrementCache("hit")
	return rec, true
}

func (s *Service) toCache(ctx context.Context, cpf domain.CPF, rec *models.CompositeRecord) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(context.WithoutCancel(ctx), cpf, rec); err != nil {
		s.logger.WarnContext(ctx, "record cache write failed", "error", err)
	}
}

// complete records the outcome of one Resolve call on every sink.
func (s *Service) complete(
	ctx context.Context,
	span trace.Span,
	start time.Time,
	correlationID, cpfHash string,
	rec *models.CompositeRecord,
	cacheHit bool,
	err error,
) {
	elapsed := time.Since(start)
	outcome := "ok"
	var unavailable []string
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	} else if rec != nil {
		unavailable = rec.Unavailable
		span.SetAttributes(attribute.StringSlice("unavailable", unavailable))
	}

	s.metrics.IncrementOutcome(outcome)
	s.metrics.ObserveResolveLatency(elapsed)

	if err != nil && !dErrors.HasCode(err, dErrors.CodeInvalidInput) && !dErrors.HasCode(err, dErrors.CodeNotFound) {
		s.logger.WarnContext(ctx, "resolve failed",
			"correlation_id", correlationID,
			"outcome", outcome,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
	}

	if s.auditor == nil {
		return
	}
	event := audit.Event{
		Action:        audit.ActionResolve,
		RequestID:     correlationID,
		SubjectIDHash: cpfHash,
		Outcome:       outcome,
		Duration:      elapsed,
		Unavailable:   unavailable,
		CacheHit:      cacheHit,
	}
	if err := s.auditor.Emit(context.WithoutCancel(ctx), event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err)
	}
}
