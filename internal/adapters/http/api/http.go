// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/assess/internal/app"
	"github.com/okian/assess/internal/domain/catalog"
	"github.com/okian/assess/internal/domain/scoring"
	"github.com/okian/assess/internal/domain/share"
)

// maxBodyBytes caps request bodies for the POST routes.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Tests(ctx context.Context) ([]catalog.Summary, error)
	Definition(ctx context.Context, key string) (*catalog.Definition, error)
	Assess(ctx context.Context, sub service.Submission) (service.Assessment, error)
	AssessBatch(ctx context.Context, key string, subs []service.Submission) ([]service.BatchItem, error)
	Open(ctx context.Context, tokenOrLink string) (service.Assessment, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	testsHandler  *TestsHandler
	shareHandler  *ShareHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		testsHandler:  NewTestsHandler(deps),
		shareHandler:  NewShareHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequestID(MetricsMiddleware(h, endpoint)))
	}
	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	route("GET /stats", "stats", s.statsHandler.HandleStats)
	route("GET /tests", "tests", s.testsHandler.HandleList)
	route("GET /tests/{key}", "test", s.testsHandler.HandleGet)
	route("POST /tests/{key}/results", "results", s.testsHandler.HandleAssess)
	route("POST /tests/{key}/batch", "batch", s.testsHandler.HandleBatch)
	route("GET /share/{token}", "share", s.shareHandler.HandleOpen)
	route("GET /share", "share", s.shareHandler.HandleOpen)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Index   *int   `json:"index,omitempty"`
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

// writeFailure translates a service error into a status and error code.
func writeFailure(w http.ResponseWriter, err error) {
	var incomplete *service.IncompleteAnswersError
	switch {
	case errors.Is(err, share.ErrUnreadableShare):
		writeError(w, http.StatusUnprocessableEntity, "unreadable_share", share.ErrUnreadableShare)
	case errors.As(err, &incomplete):
		idx := incomplete.Index
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    "incomplete_answers",
			Message: err.Error(),
			Index:   &idx,
		})
	case errors.Is(err, catalog.ErrUnknownTest):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrBatchTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "batch_too_large", err)
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, scoring.ErrAnswerCount),
		errors.Is(err, scoring.ErrAnswerOutOfScale),
		errors.Is(err, service.ErrEmptyBatch):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, op string, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
