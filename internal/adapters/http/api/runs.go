// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ramezanov/storkeep/internal/domain/model"
)

// Default and maximum number of runs returned by the runs endpoint.
const (
	defaultRunsLimit = 50
	maxRunsLimit     = 500
)

// RunHistory exposes recent report runs.
type RunHistory interface {
	Runs(ctx context.Context, n int) []model.RunRecord
}

// RunsHandler handles run history requests.
type RunsHandler struct {
	history RunHistory
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(history RunHistory) *RunsHandler {
	return &RunsHandler{history: history}
}

// HandleGetRuns handles GET /runs requests. The optional limit query
// parameter bounds the number of returned runs, newest first.
func (h *RunsHandler) HandleGetRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		limit = n
	}
	if limit > maxRunsLimit {
		limit = maxRunsLimit
	}

	runs := h.history.Runs(r.Context(), limit)
	if runs == nil {
		runs = []model.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}
