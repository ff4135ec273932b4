package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/ramezanov/storkeep/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStats(t *testing.T) {
	Convey("Given a Stats snapshot", t, func() {
		Convey("When creating a populated snapshot", func() {
			s := types.Stats{
				QueueSize:     2,
				WorkerCount:   2,
				RunsRecorded:  14,
				DedupeSize:    14,
				ScheduleSpec:  "23 6 * * MON",
				Timezone:      "Europe/Moscow",
				UptimeSeconds: 3600,
				ServiceStatus: "running",
				QueueCapacity: 64,
			}

			Convey("Then it should keep the values", func() {
				So(s.QueueSize, ShouldEqual, 2)
				So(s.RunsRecorded, ShouldEqual, 14)
				So(s.ScheduleSpec, ShouldEqual, "23 6 * * MON")
				So(s.Timezone, ShouldEqual, "Europe/Moscow")
			})
		})

		Convey("When serializing to JSON", func() {
			s := types.Stats{
				QueueSize:     0,
				WorkerCount:   2,
				ScheduleSpec:  "23 6 * * MON",
				Timezone:      "Europe/Moscow",
				ServiceStatus: "running",
			}

			data, err := json.Marshal(s)

			Convey("Then it should use snake_case keys", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, `"queue_size":0`)
				So(string(data), ShouldContainSubstring, `"worker_count":2`)
				So(string(data), ShouldContainSubstring, `"schedule_spec":"23 6 * * MON"`)
			})

			Convey("Then empty optional fields should be omitted", func() {
				So(string(data), ShouldNotContainSubstring, "last_run_at")
				So(string(data), ShouldNotContainSubstring, "next_run_at")
			})
		})

		Convey("When creating a zero snapshot", func() {
			s := types.Stats{}

			Convey("Then it should have default values", func() {
				So(s.QueueSize, ShouldEqual, 0)
				So(s.ServiceStatus, ShouldEqual, "")
				So(s.LastRunAt, ShouldEqual, "")
			})
		})
	})
}
