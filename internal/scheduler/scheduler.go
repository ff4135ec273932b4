// Package scheduler arms the weekly report run.
package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ramezanov/storkeep/pkg/logger"
	"github.com/ramezanov/storkeep/pkg/metrics"
)

// minuteSpread is the window within the scheduled hour. The minute is
// picked at random once per process so parallel deployments do not hit
// the WB API at the same instant.
const minuteSpread = 60

// Scheduler triggers the report pipeline on a weekly cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	entryID cron.EntryID
	spec    string
	minute  int
	loc     *time.Location
	run     func()
	logger  logger.Logger
}

// New creates a scheduler that fires run every week on the given
// weekday and hour, at a randomly chosen minute.
func New(loc *time.Location, weekday string, hour int, run func(), opts ...Option) *Scheduler {
	s := &Scheduler{
		minute: rand.Intn(minuteSpread),
		loc:    loc,
		run:    run,
		logger: logger.Get().Named("scheduler"),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.spec = fmt.Sprintf("%d %d * * %s", s.minute, hour, weekday)
	s.cron = cron.New(cron.WithLocation(loc))
	metrics.UpdateScheduleMinute(s.minute)

	return s
}

// Start arms the schedule. Returns an error if the spec does not parse.
func (s *Scheduler) Start(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, s.run)
	if err != nil {
		return fmt.Errorf("failed to arm schedule %q: %w", s.spec, err)
	}
	s.entryID = id
	s.cron.Start()

	s.logger.Info(ctx, "schedule armed",
		logger.String("spec", s.spec),
		logger.String("timezone", s.loc.String()),
		logger.String("next_run", s.NextRun().Format(time.RFC3339)),
	)
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		s.logger.Warn(ctx, "scheduler stop timed out")
		return ctx.Err()
	}
}

// Spec returns the cron expression in use.
func (s *Scheduler) Spec() string {
	return s.spec
}

// Minute returns the randomly chosen minute of the schedule.
func (s *Scheduler) Minute() int {
	return s.minute
}

// NextRun returns the next scheduled fire time.
func (s *Scheduler) NextRun() time.Time {
	entry := s.cron.Entry(s.entryID)
	if entry.Schedule == nil {
		return time.Time{}
	}
	return entry.Schedule.Next(time.Now().In(s.loc))
}
