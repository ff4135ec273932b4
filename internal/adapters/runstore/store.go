package runstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ramezanov/storkeep/internal/domain/model"
	"github.com/ramezanov/storkeep/pkg/logger"
	"github.com/ramezanov/storkeep/pkg/metrics"
)

// Default store configuration constants.
const defaultLimit = 200

// Store provides read/write access to the run history.
type Store interface {
	// Record appends a finished run to the history.
	Record(ctx context.Context, run model.RunRecord) error

	// Recent returns up to n runs, newest first.
	Recent(ctx context.Context, n int) []model.RunRecord

	// LastFor returns the most recent run for a seller cell.
	// Returns ErrNotFound if the seller has no recorded runs.
	LastFor(ctx context.Context, sellerCell string) (model.RunRecord, error)

	// Count returns the number of retained runs.
	Count(ctx context.Context) int
}

// FileStore implements Store with an in-memory ring mirrored to a JSON
// file so history survives restarts.
type FileStore struct {
	mu    sync.RWMutex
	runs  []model.RunRecord // oldest first
	path  string
	limit int
	log   logger.Logger
}

// NewFileStore creates a run history store with configuration options.
// When a path is set, existing history is loaded from it.
func NewFileStore(opts ...Option) (*FileStore, error) {
	s := &FileStore{
		limit: defaultLimit,
		log:   logger.Get().Named("runstore"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.path != "" {
		if err := s.load(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Record appends a run and persists the history.
func (s *FileStore) Record(ctx context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, run)
	if s.limit > 0 && len(s.runs) > s.limit {
		s.runs = s.runs[len(s.runs)-s.limit:]
	}
	metrics.UpdateRunsRecorded(len(s.runs))

	if s.path == "" {
		return nil
	}
	if err := s.persist(); err != nil {
		s.log.Error(ctx, "run history persist failed", logger.Error(err))
		return err
	}
	return nil
}

// Recent returns up to n runs, newest first.
func (s *FileStore) Recent(ctx context.Context, n int) []model.RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.runs) {
		n = len(s.runs)
	}

	out := make([]model.RunRecord, 0, n)
	for i := len(s.runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.runs[i])
	}
	return out
}

// LastFor returns the most recent run for a seller cell.
func (s *FileStore) LastFor(ctx context.Context, sellerCell string) (model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.runs) - 1; i >= 0; i-- {
		if s.runs[i].SellerCell == sellerCell {
			return s.runs[i], nil
		}
	}
	return model.RunRecord{}, ErrNotFound
}

// Count returns the number of retained runs.
func (s *FileStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// load reads the history file if it exists.
// Called from the constructor only, before concurrent use.
func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}

	var runs []model.RunRecord
	if err := json.Unmarshal(data, &runs); err != nil {
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}

	if s.limit > 0 && len(runs) > s.limit {
		runs = runs[len(runs)-s.limit:]
	}
	s.runs = runs
	return nil
}

// persist writes the history atomically via a temp file rename.
// Must be called with s.mu held.
func (s *FileStore) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	data, err := json.MarshalIndent(s.runs, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}
