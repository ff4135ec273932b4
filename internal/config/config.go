// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile is the rotating log file path; empty disables the file sink.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Timezone is the IANA zone used for report periods and the schedule.
	Timezone string `koanf:"timezone"`

	// SpreadsheetID identifies the Google Spreadsheet holding settings and reports.
	SpreadsheetID string `koanf:"spreadsheet_id"`

	// CredentialsFile points at the Google service-account JSON key.
	CredentialsFile string `koanf:"credentials_file"`

	// SettingsSheet is the worksheet holding seller API keys and dates.
	SettingsSheet string `koanf:"settings_sheet"`

	// WBBaseURL is the Wildberries seller-analytics API base URL.
	WBBaseURL string `koanf:"wb_base_url"`

	// MaxRetries bounds transient-error retries per WB API request.
	MaxRetries int `koanf:"max_retries"`

	// RetryDelaySeconds is the base delay for download polling backoff.
	RetryDelaySeconds int `koanf:"retry_delay_seconds"`

	// PollAttempts bounds report download polling attempts.
	PollAttempts int `koanf:"poll_attempts"`

	// WorkerCount sets the number of report workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory report job queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets the size of the job deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// RunHistoryPath is the JSON file persisting the run history.
	RunHistoryPath string `koanf:"run_history_path"`

	// RunHistoryLimit caps how many runs are kept.
	RunHistoryLimit int `koanf:"run_history_limit"`

	// ScheduleWeekday and ScheduleHour place the weekly run; the minute
	// within the hour is picked at random on startup.
	ScheduleWeekday string `koanf:"schedule_weekday"`
	ScheduleHour    int    `koanf:"schedule_hour"`

	// Sellers maps a settings-sheet cell holding a seller API key to the
	// title of that seller's report worksheet.
	Sellers map[string]string `koanf:"sellers"`
}

// New creates a Config populated with defaults. Context is accepted first
// to satisfy the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:          "info",
		LogFile:           "logs/app.log",
		Addr:              ":9080",
		Timezone:          "Europe/Moscow",
		CredentialsFile:   "credentials.json",
		SettingsSheet:     "Настройки",
		WBBaseURL:         "https://seller-analytics-api.wildberries.ru/api/v1",
		MaxRetries:        3,
		RetryDelaySeconds: 60,
		PollAttempts:      5,
		WorkerCount:       2,
		QueueSize:         64,
		DedupeSize:        1024,
		RunHistoryPath:    "data/runs.json",
		RunHistoryLimit:   200,
		ScheduleWeekday:   "MON",
		ScheduleHour:      6,
		Sellers: map[string]string{
			"B1": "Отчет Кузнецова",
			"C1": "Отчет Царева",
		},
	}
	return c
}
