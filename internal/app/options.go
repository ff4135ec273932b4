package service

import (
	"time"

	workerpool "github.com/ramezanov/storkeep/internal/adapters/mq/worker"
	"github.com/ramezanov/storkeep/internal/adapters/runstore"
	"github.com/ramezanov/storkeep/internal/adapters/sheets"
	"github.com/ramezanov/storkeep/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFetcher sets the WB API client used to pull reports.
func WithFetcher(f workerpool.Fetcher) Option {
	return func(s *Service) {
		s.fetcher = f
	}
}

// WithPublisher sets the spreadsheet client used to publish reports.
func WithPublisher(p sheets.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithRunStore sets the run history store.
func WithRunStore(r runstore.Store) Option {
	return func(s *Service) {
		s.runs = r
	}
}

// WithSellers maps settings cells to report worksheet titles.
func WithSellers(sellers map[string]string) Option {
	return func(s *Service) {
		s.sellers = sellers
	}
}

// WithLocation sets the timezone the schedule and periods run in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithSchedule sets the weekly slot for automatic runs.
func WithSchedule(weekday string, hour int) Option {
	return func(s *Service) {
		if weekday != "" {
			s.scheduleWeekday = weekday
		}
		if hour >= 0 && hour <= 23 {
			s.scheduleHour = hour
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
