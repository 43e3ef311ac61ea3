package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dossier/internal/dossier/models"
	"dossier/internal/platform/metrics"
	"dossier/internal/platform/middleware"
	"dossier/internal/storage/pool"
	dErrors "dossier/pkg/domain-errors"
)

const maxBodyBytes = 4 << 10

// Resolver assembles a composite record for a raw CPF.
type Resolver interface {
	Resolve(ctx context.Context, raw, correlationID string) (*models.CompositeRecord, error)
}

// PoolStats reports per-store pool occupancy for the health endpoint.
type PoolStats interface {
	Stats() []pool.Stats
}

// Handler is the thin HTTP shell over the dossier service.
type Handler struct {
	resolver Resolver
	pools    PoolStats
	logger   *slog.Logger
	metrics  *metrics.Metrics
	gatherer http.Handler
}

func New(resolver Resolver, pools PoolStats, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		resolver: resolver,
		pools:    pools,
		logger:   logger,
		metrics:  m,
		gatherer: promhttp.Handler(),
	}
}

// ResolveRequest is the body of POST /consulta/cpf.
type ResolveRequest struct {
	CPF string `json:"cpf"`
}

type HealthResponse struct {
	Status string       `json:"status"`
	Pools  []pool.Stats `json:"pools"`
}

// Register registers the dossier routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.ClientMetadata)
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.Latency(h.metrics))
		r.With(middleware.ContentTypeJSON).Post("/consulta/cpf", h.handleResolve)
		r.With(middleware.ContentTypeJSON).Get("/health", h.handleHealth)
	})
	r.Handle("/metrics", h.gatherer)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req ResolveRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid resolve request",
			"request_id", requestID,
			"error", err,
		)
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	rec, err := h.resolver.Resolve(ctx, req.CPF, requestID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Pools: h.pools.Stats()})
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError maps coded errors to a status and a JSON envelope. Internal
// errors never expose their message.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	message := ""
	var de *dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
		message = de.Message
	}
	if code == dErrors.CodeInternal {
		message = ""
	}
	writeJSON(w, dErrors.ToHTTPStatus(code), errorResponse{Error: string(code), Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
