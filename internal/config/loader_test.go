package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/ramezanov/storkeep/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.PollAttempts, convey.ShouldEqual, 5)
				convey.So(cfg.Timezone, convey.ShouldEqual, "Europe/Moscow")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("STORKEEP_ADDR", ":8080")
			_ = os.Setenv("STORKEEP_SPREADSHEET_ID", "sheet-123")
			_ = os.Setenv("STORKEEP_WORKER_COUNT", "4")
			_ = os.Setenv("STORKEEP_POLL_ATTEMPTS", "7")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.SpreadsheetID, convey.ShouldEqual, "sheet-123")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.PollAttempts, convey.ShouldEqual, 7)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
spreadsheet_id: "sheet-from-file"
worker_count: 3
retry_delay_seconds: 30
sellers:
  D1: "Отчет Иванова"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("STORKEEP_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.SpreadsheetID, convey.ShouldEqual, "sheet-from-file")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.RetryDelaySeconds, convey.ShouldEqual, 30)
				convey.So(cfg.Sellers, convey.ShouldContainKey, "D1")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
worker_count: 3
queue_size: 32
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("STORKEEP_CONFIG", tmpFile)
			_ = os.Setenv("STORKEEP_ADDR", ":8080") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080") // Overridden by env
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			invalidYaml := `invalid: yaml: content: [`
			tmpFile := createTempConfigFile(invalidYaml)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("STORKEEP_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("STORKEEP_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("STORKEEP_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with zero poll attempts", func() {
			_ = os.Setenv("STORKEEP_POLL_ATTEMPTS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "poll_attempts")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an out-of-range schedule hour", func() {
			_ = os.Setenv("STORKEEP_SCHEDULE_HOUR", "24")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "schedule_hour")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("STORKEEP_QUEUE_SIZE", "invalid")
			_ = os.Setenv("STORKEEP_WORKER_COUNT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with partial YAML file", func() {
			yamlContent := `
addr: ":9090"
worker_count: 6
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("STORKEEP_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should merge with defaults for missing fields", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")  // From file
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 6) // From file
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)  // From defaults
				convey.So(cfg.PollAttempts, convey.ShouldEqual, 5)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"STORKEEP_CONFIG",
		"STORKEEP_ADDR",
		"STORKEEP_SPREADSHEET_ID",
		"STORKEEP_QUEUE_SIZE",
		"STORKEEP_WORKER_COUNT",
		"STORKEEP_POLL_ATTEMPTS",
		"STORKEEP_SCHEDULE_HOUR",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "storkeep-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
