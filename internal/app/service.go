// Package service provides the core report service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/ramezanov/storkeep/internal/adapters/mq/queue"
	workerpool "github.com/ramezanov/storkeep/internal/adapters/mq/worker"
	"github.com/ramezanov/storkeep/internal/adapters/runstore"
	"github.com/ramezanov/storkeep/internal/adapters/sheets"
	"github.com/ramezanov/storkeep/internal/domain/dedupe"
	"github.com/ramezanov/storkeep/internal/domain/model"
	"github.com/ramezanov/storkeep/internal/domain/period"
	"github.com/ramezanov/storkeep/internal/domain/types"
	"github.com/ramezanov/storkeep/internal/scheduler"
	"github.com/ramezanov/storkeep/pkg/logger"
	"github.com/ramezanov/storkeep/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultWorkerCount = 2
	defaultQueueSize   = 64
	defaultDedupeSize  = 1024
)

// Service wires the report pipeline together: schedule, queue, workers,
// the WB API and the spreadsheet.
type Service struct {
	mu sync.RWMutex

	// Core components
	fetcher   workerpool.Fetcher
	publisher sheets.Publisher
	runs      runstore.Store
	deduper   dedupe.Deduper
	jobQueue  jobqueue.Queue
	pool      *workerpool.Pool
	sched     *scheduler.Scheduler

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	sellers         map[string]string // settings cell -> worksheet title
	loc             *time.Location
	scheduleWeekday string
	scheduleHour    int

	// State
	started   bool
	startedAt time.Time
	lastRunAt time.Time

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     defaultWorkerCount,
		queueSize:       defaultQueueSize,
		dedupeSize:      defaultDedupeSize,
		loc:             time.UTC,
		scheduleWeekday: "MON",
		scheduleHour:    6,
		logger:          nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the pipeline, arms the weekly schedule and kicks
// off an immediate run.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.fetcher == nil || s.publisher == nil {
		return fmt.Errorf("service requires a fetcher and a publisher")
	}

	s.logger.Info(ctx, "starting report service...")

	if s.runs == nil {
		store, err := runstore.NewFileStore()
		if err != nil {
			return err
		}
		s.runs = store
	}
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.jobQueue, s.fetcher, s.publisher, s.runs, s.deduper)
	s.pool.Start(ctx)

	s.sched = scheduler.New(s.loc, s.scheduleWeekday, s.scheduleHour, func() {
		if _, err := s.RunReports(context.Background(), time.Time{}, time.Time{}); err != nil {
			s.logger.Error(context.Background(), "scheduled run failed", logger.Error(err))
		}
	})
	if err := s.sched.Start(ctx); err != nil {
		return err
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "report service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("sellers", len(s.sellers)),
		logger.String("schedule", s.sched.Spec()),
	)

	// First pass right away so a restart never waits a week.
	go func() {
		if _, err := s.RunReports(context.Background(), time.Time{}, time.Time{}); err != nil {
			s.logger.Error(context.Background(), "initial run failed", logger.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping report service...")

	if s.sched != nil {
		stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_ = s.sched.Stop(stopCtx)
		cancel()
	}

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "report service stopped")
}

// RunReports enqueues one job per configured seller for the given
// period. Zero bounds mean: use the period pinned in the settings
// sheet, or fall back to the previous full week. Returns the number of
// jobs enqueued.
func (s *Service) RunReports(ctx context.Context, from, to time.Time) (int, error) {
	if !s.isStarted() {
		return 0, ErrNotStarted
	}

	from, to, err := s.resolvePeriod(ctx, from, to)
	if err != nil {
		return 0, err
	}

	keys, err := s.publisher.APIKeys(ctx, s.sellerCells())
	if err != nil {
		return 0, fmt.Errorf("failed to load seller keys: %w", err)
	}

	s.logger.Info(ctx, "starting report run",
		logger.String("date_from", period.FormatAPI(from)),
		logger.String("date_to", period.FormatAPI(to)),
		logger.Int("sellers", len(keys)),
	)

	enqueued := 0
	for _, cell := range s.sellerCells() {
		token, ok := keys[cell]
		if !ok {
			continue
		}

		job := model.ReportJob{
			ID:         uuid.NewString(),
			SellerCell: cell,
			Worksheet:  s.sellers[cell],
			Token:      token,
			DateFrom:   from,
			DateTo:     to,
		}

		if s.deduper.SeenAndRecord(ctx, job.Key()) {
			metrics.RecordJobDuplicate()
			s.logger.Info(ctx, "period already processed, skipping",
				logger.String("seller", cell),
				logger.String("key", job.Key()),
			)
			continue
		}

		if !s.jobQueue.Enqueue(ctx, job) {
			// Queue is full; release the key so the period can retry.
			s.deduper.Unrecord(ctx, job.Key())
			s.logger.Warn(ctx, "queue full, job dropped", logger.String("seller", cell))
			continue
		}
		enqueued++
	}

	s.mu.Lock()
	s.lastRunAt = time.Now()
	s.mu.Unlock()
	metrics.UpdateLastRunUnix(time.Now().Unix())

	return enqueued, nil
}

// resolvePeriod fills missing period bounds from the settings sheet or
// the previous full week.
func (s *Service) resolvePeriod(ctx context.Context, from, to time.Time) (time.Time, time.Time, error) {
	if !from.IsZero() && !to.IsZero() {
		if to.Before(from) {
			return time.Time{}, time.Time{}, fmt.Errorf("period end %s before start %s",
				period.FormatAPI(to), period.FormatAPI(from))
		}
		return from, to, nil
	}

	if pinnedFrom, pinnedTo, ok, err := s.publisher.DateRange(ctx); err == nil && ok {
		s.logger.Info(ctx, "using pinned period from settings",
			logger.String("date_from", period.FormatAPI(pinnedFrom)),
			logger.String("date_to", period.FormatAPI(pinnedTo)),
		)
		return pinnedFrom, pinnedTo, nil
	}

	p := period.PreviousWeek(time.Now().In(s.loc))
	return p.From, p.To, nil
}

// sellerCells returns the configured settings cells in stable order.
func (s *Service) sellerCells() []string {
	cells := make([]string, 0, len(s.sellers))
	for cell := range s.sellers {
		cells = append(cells, cell)
	}
	sort.Strings(cells)
	return cells
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Runs returns up to n recent runs, newest first.
func (s *Service) Runs(ctx context.Context, n int) []model.RunRecord {
	if s.runs == nil {
		return nil
	}
	return s.runs.Recent(ctx, n)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := types.Stats{
		WorkerCount:   int64(s.workerCount),
		QueueCapacity: int64(s.queueSize),
		Timezone:      s.loc.String(),
		ServiceStatus: "stopped",
	}

	if s.started {
		stats.ServiceStatus = "running"
		stats.QueueSize = int64(s.jobQueue.Len(ctx))
		stats.RunsRecorded = int64(s.runs.Count(ctx))
		stats.DedupeSize = s.deduper.Size()
		stats.ScheduleSpec = s.sched.Spec()
		stats.UptimeSeconds = int64(time.Since(s.startedAt).Seconds())
		stats.ActiveWorkers = int64(s.workerCount)

		if !s.lastRunAt.IsZero() {
			stats.LastRunAt = s.lastRunAt.In(s.loc).Format(time.RFC3339)
		}
		if next := s.sched.NextRun(); !next.IsZero() {
			stats.NextRunAt = next.In(s.loc).Format(time.RFC3339)
		}

		metrics.UpdateQueueSize(int(stats.QueueSize))
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
