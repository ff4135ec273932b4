package wbapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ramezanov/storkeep/internal/adapters/wbapi"
	"github.com/ramezanov/storkeep/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func fastClient(baseURL string, opts ...wbapi.Option) *wbapi.Client {
	base := []wbapi.Option{
		wbapi.WithBaseURL(baseURL),
		wbapi.WithRetryDelay(time.Millisecond),
		wbapi.WithRateLimitWait(time.Millisecond, 2*time.Millisecond),
	}
	return wbapi.NewClient(append(base, opts...)...)
}

func TestCreateReportTask(t *testing.T) {
	Convey("Given a WB API server", t, func() {
		Convey("When the task is created successfully", func() {
			var gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				So(r.URL.Path, ShouldEqual, "/paid_storage")
				So(r.URL.Query().Get("dateFrom"), ShouldEqual, "2025-06-09")
				So(r.URL.Query().Get("dateTo"), ShouldEqual, "2025-06-15")
				w.Write([]byte(`{"data":{"taskId":"task-123"}}`))
			}))
			defer srv.Close()

			c := fastClient(srv.URL)
			from := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
			to := time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC)

			taskID, err := c.CreateReportTask(context.Background(), "test-token", from, to)

			Convey("Then the task id should be returned", func() {
				So(err, ShouldBeNil)
				So(taskID, ShouldEqual, "task-123")
				So(gotAuth, ShouldEqual, "test-token")
			})
		})

		Convey("When the response has no task id", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"data":{}}`))
			}))
			defer srv.Close()

			c := fastClient(srv.URL)
			_, err := c.CreateReportTask(context.Background(), "t", time.Now(), time.Now())

			Convey("Then it should report the missing id", func() {
				So(err, ShouldEqual, wbapi.ErrNoTaskID)
			})
		})

		Convey("When the server rate limits then recovers", func() {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					w.Header().Set("Retry-After", "0")
					w.WriteHeader(http.StatusTooManyRequests)
					return
				}
				w.Write([]byte(`{"data":{"taskId":"task-rl"}}`))
			}))
			defer srv.Close()

			c := fastClient(srv.URL)
			taskID, err := c.CreateReportTask(context.Background(), "t", time.Now(), time.Now())

			Convey("Then it should retry and succeed", func() {
				So(err, ShouldBeNil)
				So(taskID, ShouldEqual, "task-rl")
				So(calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the server fails with a retryable status then recovers", func() {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) < 3 {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				w.Write([]byte(`{"data":{"taskId":"task-503"}}`))
			}))
			defer srv.Close()

			c := fastClient(srv.URL)
			taskID, err := c.CreateReportTask(context.Background(), "t", time.Now(), time.Now())

			Convey("Then it should back off and succeed", func() {
				So(err, ShouldBeNil)
				So(taskID, ShouldEqual, "task-503")
			})
		})

		Convey("When the server keeps failing", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer srv.Close()

			c := fastClient(srv.URL, wbapi.WithMaxRetries(2))
			_, err := c.CreateReportTask(context.Background(), "t", time.Now(), time.Now())

			Convey("Then retries should be bounded", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "unexpected status")
			})
		})

		Convey("When the server returns a non-retryable status", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer srv.Close()

			c := fastClient(srv.URL)
			_, err := c.CreateReportTask(context.Background(), "bad-token", time.Now(), time.Now())

			Convey("Then it should fail immediately", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "401")
			})
		})
	})
}

func TestDownloadReport(t *testing.T) {
	Convey("Given a WB API server with a report task", t, func() {
		Convey("When the report is ready", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				So(r.URL.Path, ShouldEqual, "/paid_storage/tasks/task-1/download")
				w.Write([]byte(`[{"date":"2025-06-09","warehouse":"Коледино","nmId":123,"warehousePrice":1.5}]`))
			}))
			defer srv.Close()

			c := fastClient(srv.URL)
			records, err := c.DownloadReport(context.Background(), "t", "task-1")

			Convey("Then the rows should be decoded", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 1)
				So(records[0].Warehouse, ShouldEqual, "Коледино")
				So(records[0].NmID, ShouldEqual, 123)
			})
		})

		Convey("When the report is empty at first", func() {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) < 3 {
					w.Write([]byte(`[]`))
					return
				}
				w.Write([]byte(`[{"date":"2025-06-09"}]`))
			}))
			defer srv.Close()

			c := fastClient(srv.URL)
			records, err := c.DownloadReport(context.Background(), "t", "task-1")

			Convey("Then polling should continue until rows arrive", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 1)
				So(calls.Load(), ShouldEqual, 3)
			})
		})

		Convey("When the report answers with a zero-length body at first", func() {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					// Not ready: 200 with no body at all.
					w.WriteHeader(http.StatusOK)
					return
				}
				w.Write([]byte(`[{"date":"2025-06-09","warehouse":"Казань"}]`))
			}))
			defer srv.Close()

			c := fastClient(srv.URL)
			records, err := c.DownloadReport(context.Background(), "t", "task-1")

			Convey("Then the empty body should count as a failed attempt", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 1)
				So(records[0].Warehouse, ShouldEqual, "Казань")
				So(calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the report body is not yet decodable", func() {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					w.Write([]byte(`{"status":"processing"}`))
					return
				}
				w.Write([]byte(`[{"date":"2025-06-09"}]`))
			}))
			defer srv.Close()

			c := fastClient(srv.URL)
			records, err := c.DownloadReport(context.Background(), "t", "task-1")

			Convey("Then polling should continue past the bad payload", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 1)
				So(calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the report stays a zero-length body", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			c := fastClient(srv.URL, wbapi.WithPollAttempts(2))
			_, err := c.DownloadReport(context.Background(), "t", "task-1")

			Convey("Then attempts should be exhausted", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "report not ready")
			})
		})

		Convey("When the report never materializes", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[]`))
			}))
			defer srv.Close()

			c := fastClient(srv.URL, wbapi.WithPollAttempts(2))
			_, err := c.DownloadReport(context.Background(), "t", "task-1")

			Convey("Then attempts should be exhausted", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "report not ready")
			})
		})

		Convey("When the server rate limits during polling", func() {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					w.Header().Set("Retry-After", "0")
					w.WriteHeader(http.StatusTooManyRequests)
					return
				}
				w.Write([]byte(`[{"date":"2025-06-09"}]`))
			}))
			defer srv.Close()

			c := fastClient(srv.URL)
			records, err := c.DownloadReport(context.Background(), "t", "task-1")

			Convey("Then it should wait and keep polling", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 1)
			})
		})

		Convey("When the context is cancelled mid-wait", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[]`))
			}))
			defer srv.Close()

			c := fastClient(srv.URL, wbapi.WithRetryDelay(time.Minute))
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := c.DownloadReport(ctx, "t", "task-1")

			Convey("Then the wait should abort promptly", func() {
				So(err, ShouldEqual, context.Canceled)
			})
		})
	})
}
