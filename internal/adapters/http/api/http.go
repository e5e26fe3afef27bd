// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/sparkapply/internal/domain/job"
	"github.com/okian/sparkapply/internal/domain/model"
	"github.com/okian/sparkapply/internal/domain/swipe"
	"github.com/okian/sparkapply/internal/domain/types"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 16

// SessionDependencies drive swipe sessions.
type SessionDependencies interface {
	CreateSession(ctx context.Context) (types.CardView, error)
	View(ctx context.Context, id string) (types.CardView, error)
	Swipe(ctx context.Context, id string, dir swipe.Direction, requestID string) (types.GestureResult, bool, error)
	ToggleDetails(ctx context.Context, id string) (types.CardView, error)
	CloseSession(ctx context.Context, id string) error
}

// ApplicationDependencies expose the tracker.
type ApplicationDependencies interface {
	Applications(ctx context.Context, status model.Status) ([]model.Application, error)
	Application(ctx context.Context, id string) (model.Application, error)
	AdvanceApplication(ctx context.Context, id string, next model.Status) (model.Application, error)
	ApplicationStats(ctx context.Context) (types.ApplicationStats, error)
}

// JobDependencies expose the ranked catalog.
type JobDependencies interface {
	Jobs(ctx context.Context) ([]job.Job, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SessionDependencies
	ApplicationDependencies
	JobDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	jobsHandler         *JobsHandler
	sessionsHandler     *SessionsHandler
	applicationsHandler *ApplicationsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(deps),
		jobsHandler:         NewJobsHandler(deps),
		sessionsHandler:     NewSessionsHandler(deps),
		applicationsHandler: NewApplicationsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /jobs", MetricsMiddleware(s.jobsHandler.HandleList, "jobs"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionsHandler.HandleCreate, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleGet, "session"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleDelete, "session"))
	mux.HandleFunc("POST /sessions/{id}/swipe", MetricsMiddleware(s.sessionsHandler.HandleSwipe, "swipe"))
	mux.HandleFunc("POST /sessions/{id}/details", MetricsMiddleware(s.sessionsHandler.HandleDetails, "details"))

	mux.HandleFunc("GET /applications", MetricsMiddleware(s.applicationsHandler.HandleList, "applications"))
	mux.HandleFunc("GET /applications/stats", MetricsMiddleware(s.applicationsHandler.HandleStats, "application_stats"))
	mux.HandleFunc("GET /applications/{id}", MetricsMiddleware(s.applicationsHandler.HandleGet, "application"))
	mux.HandleFunc("PATCH /applications/{id}", MetricsMiddleware(s.applicationsHandler.HandleAdvance, "application"))
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

// writeFailure translates err to its status and writes it.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
