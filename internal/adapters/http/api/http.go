// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/bytedance/sonic"

	service "github.com/okian/playmedia/internal/app"
	"github.com/okian/playmedia/internal/adapters/content"
	"github.com/okian/playmedia/internal/adapters/repository"
	"github.com/okian/playmedia/internal/domain/model"
	"github.com/okian/playmedia/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Open(ctx context.Context, req service.OpenRequest) (string, error)
	Refresh(ctx context.Context, id string) error
	View(id string, page types.Page) (types.SessionView, error)
	SetFacets(id string, values map[string]string) error
	ResetFacets(id string) error
	Toggle(id, entityID string) (types.ToggleResult, error)
	Commit(ctx context.Context, id string) (types.CommitResult, error)
	Cancel(id string) error
	Forms() repository.FormStore
}

// Server wires HTTP routes for the picker API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
	fieldsHandler   *FieldsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionsHandler: NewSessionsHandler(deps),
		fieldsHandler:   NewFieldsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	sh := s.sessionsHandler
	mux.HandleFunc("POST /sessions", MetricsMiddleware(sh.HandleOpen, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(sh.HandleView, "session"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(sh.HandleCancel, "session"))
	mux.HandleFunc("PUT /sessions/{id}/facets", MetricsMiddleware(sh.HandleSetFacets, "facets"))
	mux.HandleFunc("DELETE /sessions/{id}/facets", MetricsMiddleware(sh.HandleResetFacets, "facets"))
	mux.HandleFunc("POST /sessions/{id}/toggle", MetricsMiddleware(sh.HandleToggle, "toggle"))
	mux.HandleFunc("POST /sessions/{id}/refresh", MetricsMiddleware(sh.HandleRefresh, "refresh"))
	mux.HandleFunc("POST /sessions/{id}/commit", MetricsMiddleware(sh.HandleCommit, "commit"))

	fh := s.fieldsHandler
	mux.HandleFunc("GET /fields/{contentType}/{contentID}/{key}", MetricsMiddleware(fh.HandleGet, "fields"))
	mux.HandleFunc("PUT /fields/{contentType}/{contentID}/{key}", MetricsMiddleware(fh.HandlePut, "fields"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// readJSON decodes the request body into v.
func readJSON(r *http.Request, v any) error {
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}

// writeServiceError translates service and adapter errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrSessionClosed):
		writeError(w, http.StatusConflict, "session_closed", err)
	case errors.Is(err, service.ErrTooManySessions):
		writeError(w, http.StatusTooManyRequests, "too_many_sessions", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrUnknownFacet),
		errors.Is(err, model.ErrUnknownKind),
		errors.Is(err, model.ErrEmptyID),
		errors.Is(err, model.ErrDuplicateID),
		errors.Is(err, repository.ErrInvalidField),
		errors.Is(err, repository.ErrInvalidValue):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, content.ErrUpstream),
		errors.Is(err, content.ErrGraphQL):
		writeError(w, http.StatusBadGateway, "upstream_error", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", errors.Join(ErrInternal, err))
	}
}
