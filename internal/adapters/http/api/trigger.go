// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	service "github.com/ramezanov/storkeep/internal/app"
)

// ReportRunner enqueues report jobs for a period.
type ReportRunner interface {
	RunReports(ctx context.Context, from, to time.Time) (int, error)
}

// TriggerHandler handles manual report run requests.
type TriggerHandler struct {
	runner ReportRunner
}

// NewTriggerHandler creates a new trigger handler.
func NewTriggerHandler(runner ReportRunner) *TriggerHandler {
	return &TriggerHandler{runner: runner}
}

// HandleTrigger handles POST /trigger requests. An empty body runs the
// default period; date_from and date_to override it.
func (h *TriggerHandler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("invalid JSON body"))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	from, to := req.period()
	n, err := h.runner.RunReports(r.Context(), from, to)
	if errors.Is(err, service.ErrNotStarted) {
		writeError(w, http.StatusConflict, "not_running", err)
		return
	}
	if err != nil {
		// Seller keys or the pinned period could not be read upstream.
		writeError(w, http.StatusBadGateway, "upstream_error", err)
		return
	}

	// Jobs are processed asynchronously by the worker pool.
	writeJSON(w, http.StatusAccepted, triggerResponse{Status: "accepted", Jobs: n})
}
