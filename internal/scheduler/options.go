package scheduler

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithMinute pins the schedule minute instead of choosing one at random.
func WithMinute(minute int) Option {
	return func(s *Scheduler) {
		if minute >= 0 && minute < minuteSpread {
			s.minute = minute
		}
	}
}
