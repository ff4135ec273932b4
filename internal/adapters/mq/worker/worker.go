// Package worker defines worker contracts for asynchronous report runs.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ramezanov/storkeep/internal/domain/model"
	"github.com/ramezanov/storkeep/internal/domain/period"
	"github.com/ramezanov/storkeep/internal/domain/report"
	"github.com/ramezanov/storkeep/pkg/logger"
	"github.com/ramezanov/storkeep/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount    = 2
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Job abstracts what workers read off the queue.
// Using the model.ReportJob type for consistency.
type Job = model.ReportJob

// Fetcher pulls a paid-storage report from the WB API.
type Fetcher interface {
	CreateReportTask(ctx context.Context, token string, from, to time.Time) (string, error)
	DownloadReport(ctx context.Context, token, taskID string) ([]model.StorageRecord, error)
}

// Publisher writes report rows into the target worksheet.
type Publisher interface {
	EnsureWorksheet(ctx context.Context, title string) error
	Replace(ctx context.Context, title string, rows [][]interface{}) error
	SetLastProcessed(ctx context.Context, t time.Time) error
}

// Recorder keeps the history of finished runs.
type Recorder interface {
	Record(ctx context.Context, run model.RunRecord) error
}

// Releaser frees a job key so a failed period can be retried.
type Releaser interface {
	Unrecord(ctx context.Context, key string)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes report jobs using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining jobs before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing report jobs.
type InMemoryWorker struct {
	queue     Queue
	fetcher   Fetcher
	publisher Publisher
	recorder  Recorder
	releaser  Releaser
	name      string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, fetcher Fetcher, publisher Publisher, recorder Recorder, releaser Releaser, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		fetcher:   fetcher,
		publisher: publisher,
		recorder:  recorder,
		releaser:  releaser,
		name:      "worker", // default name
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"), // will be updated by options
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			// Process the job
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing report job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	// Signal shutdown
	close(w.shutdown)

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob fetches one seller report and republishes it.
func (w *InMemoryWorker) processJob(ctx context.Context, job Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(time.Since(start).Seconds())
	}()

	records, err := w.fetch(ctx, job)
	if err != nil {
		w.fail(ctx, job, start, err, "fetch_error")
		return fmt.Errorf("failed to fetch report for %s: %w", job.SellerCell, err)
	}

	if err := w.publish(ctx, job, records); err != nil {
		w.fail(ctx, job, start, err, "publish_error")
		return fmt.Errorf("failed to publish report for %s: %w", job.SellerCell, err)
	}

	metrics.RecordReportFetched()
	metrics.RecordReportRows(len(records))
	metrics.UpdateLastRunUnix(time.Now().Unix())

	w.record(ctx, job, start, len(records), model.RunOK, "")
	w.logger.Info(ctx, "report run finished",
		logger.String("seller", job.SellerCell),
		logger.String("worksheet", job.Worksheet),
		logger.Int("rows", len(records)),
	)
	return nil
}

// fetch creates the report task and downloads its rows.
func (w *InMemoryWorker) fetch(ctx context.Context, job Job) ([]model.StorageRecord, error) {
	fetchStart := time.Now()

	taskID, err := w.fetcher.CreateReportTask(ctx, job.Token, job.DateFrom, job.DateTo)
	if err != nil {
		return nil, err
	}

	records, err := w.fetcher.DownloadReport(ctx, job.Token, taskID)
	if err != nil {
		return nil, err
	}

	metrics.RecordFetchDuration(time.Since(fetchStart).Seconds())
	return records, nil
}

// publish replaces the worksheet contents and advances the processed marker.
func (w *InMemoryWorker) publish(ctx context.Context, job Job, records []model.StorageRecord) error {
	publishStart := time.Now()

	if err := w.publisher.EnsureWorksheet(ctx, job.Worksheet); err != nil {
		return err
	}
	if err := w.publisher.Replace(ctx, job.Worksheet, report.Rows(records)); err != nil {
		return err
	}
	if err := w.publisher.SetLastProcessed(ctx, job.DateTo); err != nil {
		// The report is already published; the marker will catch up on
		// the next run.
		w.logger.Warn(ctx, "failed to advance last processed date",
			logger.String("seller", job.SellerCell),
			logger.Error(err),
		)
	}

	metrics.RecordPublishDuration(time.Since(publishStart).Seconds())
	return nil
}

// fail records a failed run and releases the job key for retry.
func (w *InMemoryWorker) fail(ctx context.Context, job Job, start time.Time, err error, errType string) {
	metrics.RecordRunFailed()
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", errType)
	metrics.RecordErrorByType(errType, "high")

	w.logger.Error(ctx, "report run failed",
		logger.String("seller", job.SellerCell),
		logger.String("job_id", job.ID),
		logger.Error(err),
	)

	w.record(ctx, job, start, 0, model.RunFailed, err.Error())
	if w.releaser != nil {
		w.releaser.Unrecord(ctx, job.Key())
	}
}

// record persists the run outcome.
func (w *InMemoryWorker) record(ctx context.Context, job Job, start time.Time, rows int, status model.RunStatus, errMsg string) {
	if w.recorder == nil {
		return
	}
	run := model.RunRecord{
		JobID:      job.ID,
		SellerCell: job.SellerCell,
		Worksheet:  job.Worksheet,
		DateFrom:   period.FormatAPI(job.DateFrom),
		DateTo:     period.FormatAPI(job.DateTo),
		Rows:       rows,
		Status:     status,
		Error:      errMsg,
		StartedAt:  start,
		FinishedAt: time.Now(),
	}
	if err := w.recorder.Record(ctx, run); err != nil {
		w.logger.Error(ctx, "failed to record run", logger.Error(err))
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	fetcher   Fetcher
	publisher Publisher
	recorder  Recorder
	releaser  Releaser

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, fetcher Fetcher, publisher Publisher, recorder Recorder, releaser Releaser) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers:   make([]*InMemoryWorker, workerCount),
		queue:     queue,
		fetcher:   fetcher,
		publisher: publisher,
		recorder:  recorder,
		releaser:  releaser,
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			fetcher,
			publisher,
			recorder,
			releaser,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	// Initialize worker metrics
	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	// Signal shutdown to all workers
	close(p.shutdown)

	// Wait for all workers to finish
	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new jobs
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	// Signal shutdown to all workers
	close(p.shutdown)

	// Wait for all workers to finish or context to timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
