package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ramezanov/storkeep/internal/adapters/http/api"
	"github.com/ramezanov/storkeep/internal/adapters/http/docs"
	"github.com/ramezanov/storkeep/internal/adapters/runstore"
	"github.com/ramezanov/storkeep/internal/adapters/sheets"
	"github.com/ramezanov/storkeep/internal/adapters/wbapi"
	service "github.com/ramezanov/storkeep/internal/app"
	"github.com/ramezanov/storkeep/internal/config"
	"github.com/ramezanov/storkeep/pkg/logger"
	"github.com/ramezanov/storkeep/pkg/metrics"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Local development keeps secrets in .env; absence is fine.
	_ = godotenv.Load()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Initialize logging with the rotating file sink when configured
	if err := logger.InitWithFile(cfg.LogFile); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loggerInstance.Error(ctx, "unknown timezone", logger.String("timezone", cfg.Timezone), logger.Error(err))
		return
	}

	// Spreadsheet client holding both settings and report worksheets.
	publisher, err := sheets.NewClient(ctx,
		sheets.WithSpreadsheetID(cfg.SpreadsheetID),
		sheets.WithSettingsSheet(cfg.SettingsSheet),
		sheets.WithCredentialsFile(cfg.CredentialsFile),
		sheets.WithLocation(loc),
	)
	if err != nil {
		loggerInstance.Error(ctx, "failed to create sheets client", logger.Error(err))
		return
	}

	// Wildberries paid storage report client.
	fetcher := wbapi.NewClient(
		wbapi.WithBaseURL(cfg.WBBaseURL),
		wbapi.WithMaxRetries(cfg.MaxRetries),
		wbapi.WithRetryDelay(time.Duration(cfg.RetryDelaySeconds)*time.Second),
		wbapi.WithPollAttempts(cfg.PollAttempts),
	)

	// Run history survives restarts via a JSON file.
	runs, err := runstore.NewFileStore(
		runstore.WithPath(cfg.RunHistoryPath),
		runstore.WithLimit(cfg.RunHistoryLimit),
	)
	if err != nil {
		loggerInstance.Error(ctx, "failed to open run history", logger.String("path", cfg.RunHistoryPath), logger.Error(err))
		return
	}

	// Create and start the service with configuration options
	svc := service.New(
		service.WithLogger(loggerInstance),
		service.WithFetcher(fetcher),
		service.WithPublisher(publisher),
		service.WithRunStore(runs),
		service.WithSellers(cfg.Sellers),
		service.WithLocation(loc),
		service.WithSchedule(cfg.ScheduleWeekday, cfg.ScheduleHour),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
	)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register the API reference under /api-docs
	docs.Register(ctx, mux)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	// Update memory usage
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	// Update goroutine count
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	// Update GC pause time
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()

	metrics.UpdateQueueSize(int(stats.QueueSize))
	metrics.UpdateWorkerCount(int(stats.WorkerCount))
	metrics.UpdateRunsRecorded(int(stats.RunsRecorded))
}
