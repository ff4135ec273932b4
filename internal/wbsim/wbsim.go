// Package wbsim is a local stand-in for the Wildberries paid storage
// API, used for end-to-end testing without touching the real service.
// It mimics the two-phase report flow: task creation followed by
// download polling that stays empty for a configurable number of polls.
package wbsim

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ramezanov/storkeep/internal/domain/model"
	"github.com/ramezanov/storkeep/internal/domain/period"
)

// Error constants.
var (
	ErrUnknownTask = errors.New("unknown task")
)

// Default simulator behavior.
const (
	defaultRows          = 25
	defaultNotReadyPolls = 1
)

// task tracks one created report task and how often it was polled.
type task struct {
	from  time.Time
	to    time.Time
	polls int
}

// Server simulates the paid storage endpoints of the seller analytics API.
type Server struct {
	mu    sync.Mutex
	tasks map[string]*task

	rows          int
	notReadyPolls int
	failEvery     int
	requests      int
}

// Option configures the simulator.
type Option func(*Server)

// WithRows sets how many report rows each task produces.
func WithRows(rows int) Option {
	return func(s *Server) {
		if rows >= 0 {
			s.rows = rows
		}
	}
}

// WithNotReadyPolls sets how many download polls return an empty report
// before the data appears.
func WithNotReadyPolls(polls int) Option {
	return func(s *Server) {
		if polls >= 0 {
			s.notReadyPolls = polls
		}
	}
}

// WithFailEvery makes every n-th request fail with a 503 to exercise
// client retries. Zero disables injected failures.
func WithFailEvery(n int) Option {
	return func(s *Server) {
		if n >= 0 {
			s.failEvery = n
		}
	}
}

// New creates a simulator with the given behavior.
func New(opts ...Option) *Server {
	s := &Server{
		tasks:         make(map[string]*task),
		rows:          defaultRows,
		notReadyPolls: defaultNotReadyPolls,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServeHTTP routes simulator requests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		http.Error(w, "missing authorization", http.StatusUnauthorized)
		return
	}
	if s.injectFailure() {
		http.Error(w, "simulated outage", http.StatusServiceUnavailable)
		return
	}

	switch {
	case r.URL.Path == "/api/v1/paid_storage":
		s.handleCreate(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/paid_storage/tasks/") && strings.HasSuffix(r.URL.Path, "/download"):
		s.handleDownload(w, r)
	default:
		http.NotFound(w, r)
	}
}

// injectFailure reports whether this request should fail.
func (s *Server) injectFailure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	return s.failEvery > 0 && s.requests%s.failEvery == 0
}

// handleCreate handles GET /api/v1/paid_storage.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	from, err := period.Parse(r.URL.Query().Get("dateFrom"), time.UTC)
	if err != nil {
		http.Error(w, "invalid dateFrom", http.StatusBadRequest)
		return
	}
	to, err := period.Parse(r.URL.Query().Get("dateTo"), time.UTC)
	if err != nil {
		http.Error(w, "invalid dateTo", http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.tasks[id] = &task{from: from, to: to}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]map[string]string{
		"data": {"taskId": id},
	})
}

// handleDownload handles GET /api/v1/paid_storage/tasks/{id}/download.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/paid_storage/tasks/"), "/download")

	s.mu.Lock()
	t, ok := s.tasks[id]
	if ok {
		t.polls++
	}
	s.mu.Unlock()

	if !ok {
		http.Error(w, ErrUnknownTask.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if t.polls <= s.notReadyPolls {
		// Report not ready yet; the real API answers with an empty body.
		_ = json.NewEncoder(w).Encode([]model.StorageRecord{})
		return
	}
	_ = json.NewEncoder(w).Encode(generateRecords(s.rows, t.from, t.to))
}
