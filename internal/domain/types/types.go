// Package types contains common types used across the application
package types

// Stats is a snapshot of the service state exposed over HTTP.
type Stats struct {
	QueueSize       int64  `json:"queue_size"`
	WorkerCount     int64  `json:"worker_count"`
	RunsRecorded    int64  `json:"runs_recorded"`
	DedupeSize      int64  `json:"dedupe_size"`
	LastRunAt       string `json:"last_run_at,omitempty"`
	NextRunAt       string `json:"next_run_at,omitempty"`
	ScheduleSpec    string `json:"schedule_spec"`
	Timezone        string `json:"timezone"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	ServiceStatus   string `json:"service_status"`
	ProcessingTime  string `json:"processing_time,omitempty"`
	MemoryUsage     string `json:"memory_usage,omitempty"`
	ActiveWorkers   int64  `json:"active_workers"`
	QueueCapacity   int64  `json:"queue_capacity"`
	QueueUtilized   string `json:"queue_utilization,omitempty"`
}
