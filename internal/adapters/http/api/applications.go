package api

import (
	"net/http"
	"strings"

	"github.com/okian/sparkapply/internal/domain/model"
)

// ApplicationsHandler handles tracker requests.
type ApplicationsHandler struct {
	deps ApplicationDependencies
}

// NewApplicationsHandler creates a new applications handler.
func NewApplicationsHandler(deps ApplicationDependencies) *ApplicationsHandler {
	return &ApplicationsHandler{deps: deps}
}

type advanceRequest struct {
	Status string `json:"status"`
}

// HandleList handles GET /applications?status=.
func (h *ApplicationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_applications"
	status := model.Status(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))))
	apps, err := h.deps.Applications(r.Context(), status)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// HandleGet handles GET /applications/{id}.
func (h *ApplicationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_application"
	app, err := h.deps.Application(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// HandleAdvance handles PATCH /applications/{id}.
func (h *ApplicationsHandler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	const op = "api.advance_application"
	var req advanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	next := model.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if !next.Valid() {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}

	app, err := h.deps.AdvanceApplication(r.Context(), r.PathValue("id"), next)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// HandleStats handles GET /applications/stats.
func (h *ApplicationsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.application_stats"
	stats, err := h.deps.ApplicationStats(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
