// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/hydromap/internal/adapters/mq/worker"
	"github.com/okian/hydromap/internal/adapters/repository"
	"github.com/okian/hydromap/internal/domain/filterfsm"
	"github.com/okian/hydromap/internal/domain/reconcile"
	"github.com/okian/hydromap/internal/domain/telemetry"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AssetDependencies
	SyncDependencies
	FilterDependencies
	SampleDependencies
}

// Server wires HTTP routes for the asset API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	assetsHandler *AssetsHandler
	syncHandler   *SyncHandler
	filterHandler *FilterHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		assetsHandler: NewAssetsHandler(deps, NewSamplesHandler(deps)),
		syncHandler:   NewSyncHandler(deps),
		filterHandler: NewFilterHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/assets", MetricsMiddleware(s.assetsHandler.HandleListAssets, "assets"))
	mux.HandleFunc("/assets/", MetricsMiddleware(s.assetsHandler.HandleAsset, "asset"))
	mux.HandleFunc("/sync", MetricsMiddleware(s.syncHandler.HandleSync, "sync"))
	mux.HandleFunc("/sync/message", MetricsMiddleware(s.syncHandler.HandleSyncMessage, "sync_message"))
	mux.HandleFunc("/filter", MetricsMiddleware(s.filterHandler.HandleGetFilter, "filter"))
	mux.HandleFunc("/filter/events", MetricsMiddleware(s.filterHandler.HandlePostEvent, "filter_events"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusFor translates upstream sentinels into a status and error code.
// Errors matching none of them get fallback.
func statusFor(err error, fallback int) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, telemetry.ErrInvalidSample),
		errors.Is(err, filterfsm.ErrUnknownEvent),
		errors.Is(err, reconcile.ErrUnreadablePayload):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, worker.ErrQueueFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, worker.ErrStopped):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, worker.ErrSyncFailed),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway, "sync_failed"
	}
	if fallback == http.StatusBadGateway {
		return fallback, "sync_failed"
	}
	return http.StatusInternalServerError, "internal_error"
}
