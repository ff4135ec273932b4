// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ramezanov/storkeep/internal/domain/model"
	"github.com/ramezanov/storkeep/internal/domain/period"
	"github.com/ramezanov/storkeep/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// RunReports enqueues report jobs for the period. Zero bounds mean
	// the service picks the period itself.
	RunReports(ctx context.Context, from, to time.Time) (int, error)

	// Runs returns up to n recent runs, newest first.
	Runs(ctx context.Context, n int) []model.RunRecord

	GetStats() types.Stats
}

// Stats mirrors the read shape returned by the stats endpoint.
type Stats = types.Stats

// Server wires HTTP routes for the report service API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	runsHandler    *RunsHandler
	triggerHandler *TriggerHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		runsHandler:    NewRunsHandler(deps),
		triggerHandler: NewTriggerHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/runs", MetricsMiddleware(s.runsHandler.HandleGetRuns, "runs"))
	mux.HandleFunc("/trigger", MetricsMiddleware(s.triggerHandler.HandleTrigger, "trigger"))
}

// triggerRequest mirrors the OpenAPI schema for POST /trigger.
type triggerRequest struct {
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

func (t triggerRequest) validate() error {
	hasFrom := strings.TrimSpace(t.DateFrom) != ""
	hasTo := strings.TrimSpace(t.DateTo) != ""
	if hasFrom != hasTo {
		return errors.New("date_from and date_to must be set together")
	}
	if !hasFrom {
		return nil
	}
	from, err := time.Parse(period.APILayout, t.DateFrom)
	if err != nil {
		return errors.New("invalid date_from; must be YYYY-MM-DD")
	}
	to, err := time.Parse(period.APILayout, t.DateTo)
	if err != nil {
		return errors.New("invalid date_to; must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return errors.New("date_to must not precede date_from")
	}
	return nil
}

// period returns the parsed bounds, zero when unset.
func (t triggerRequest) period() (time.Time, time.Time) {
	if strings.TrimSpace(t.DateFrom) == "" {
		return time.Time{}, time.Time{}
	}
	from, _ := time.Parse(period.APILayout, t.DateFrom)
	to, _ := time.Parse(period.APILayout, t.DateTo)
	return from, to
}

type triggerResponse struct {
	Status string `json:"status"`
	Jobs   int    `json:"jobs"`
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
