package api

import (
	"net/http"
	"strings"

	"github.com/okian/sparkapply/internal/domain/swipe"
	"github.com/okian/sparkapply/internal/domain/types"
)

// SessionsHandler handles swipe session requests.
type SessionsHandler struct {
	deps SessionDependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// swipeRequest mirrors the OpenAPI schema for POST /sessions/{id}/swipe.
type swipeRequest struct {
	Direction string `json:"direction"`
	RequestID string `json:"request_id"`
}

type swipeResponse struct {
	Status    string              `json:"status"`
	Duplicate bool                `json:"duplicate"`
	Result    types.GestureResult `json:"result"`
}

// HandleCreate handles POST /sessions.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	view, err := h.deps.CreateSession(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/sessions/"+view.SessionID)
	writeJSON(w, http.StatusCreated, view)
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	view, err := h.deps.View(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDelete handles DELETE /sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_session"
	if err := h.deps.CloseSession(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSwipe handles POST /sessions/{id}/swipe.
func (h *SessionsHandler) HandleSwipe(w http.ResponseWriter, r *http.Request) {
	const op = "api.swipe"
	var req swipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	dir, ok := swipe.ParseDirection(req.Direction)
	if !ok {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}

	res, duplicate, err := h.deps.Swipe(r.Context(), r.PathValue("id"), dir, strings.TrimSpace(req.RequestID))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}

	switch {
	case duplicate:
		writeJSON(w, http.StatusOK, swipeResponse{Status: "duplicate", Duplicate: true, Result: res})
	case res.Decision != nil:
		writeJSON(w, http.StatusAccepted, swipeResponse{Status: "accepted", Result: res})
	default:
		// nothing to decide on, e.g. an empty catalog
		writeJSON(w, http.StatusOK, swipeResponse{Status: res.Outcome, Result: res})
	}
}

// HandleDetails handles POST /sessions/{id}/details.
func (h *SessionsHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	const op = "api.toggle_details"
	view, err := h.deps.ToggleDetails(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
