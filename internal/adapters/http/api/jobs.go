package api

import (
	"net/http"
)

// JobsHandler serves the ranked catalog.
type JobsHandler struct {
	deps JobDependencies
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobDependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

// HandleList handles GET /jobs.
func (h *JobsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_jobs"
	jobs, err := h.deps.Jobs(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}
