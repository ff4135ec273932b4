package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if STORKEEP_CONFIG is set
//  3. env (prefix STORKEEP_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("STORKEEP_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: STORKEEP_ADDR, STORKEEP_SPREADSHEET_ID, ...
	// Map env keys like STORKEEP_QUEUE_SIZE -> queue_size (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("STORKEEP_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "storkeep_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate applies basic sanity checks shared by every load path.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.PollAttempts < 1:
		return fmt.Errorf("%w: poll_attempts must be at least 1", ErrInvalidConfig)
	case c.MaxRetries < 0:
		return fmt.Errorf("%w: max_retries must not be negative", ErrInvalidConfig)
	case c.RetryDelaySeconds < 1:
		return fmt.Errorf("%w: retry_delay_seconds must be at least 1", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be at least 1", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be at least 1", ErrInvalidConfig)
	case c.ScheduleHour < 0 || c.ScheduleHour > 23:
		return fmt.Errorf("%w: schedule_hour must be within 0..23", ErrInvalidConfig)
	case len(c.Sellers) == 0:
		return fmt.Errorf("%w: at least one seller must be configured", ErrInvalidConfig)
	}
	return nil
}
