package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	service "github.com/ramezanov/storkeep/internal/app"
	"github.com/ramezanov/storkeep/internal/domain/model"
	"github.com/ramezanov/storkeep/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// stubFetcher returns canned report rows.
type stubFetcher struct {
	mu      sync.Mutex
	fetches int
}

func (f *stubFetcher) CreateReportTask(ctx context.Context, token string, from, to time.Time) (string, error) {
	return "task-" + token, nil
}

func (f *stubFetcher) DownloadReport(ctx context.Context, token, taskID string) ([]model.StorageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return []model.StorageRecord{{Date: "2025-06-09", Warehouse: "Коледино"}}, nil
}

// stubPublisher implements the spreadsheet surface in memory.
type stubPublisher struct {
	mu         sync.Mutex
	keys       map[string]string
	pinnedFrom time.Time
	pinnedTo   time.Time
	pinned     bool
	published  map[string]int // worksheet -> rows written
	last       time.Time
}

func newStubPublisher(keys map[string]string) *stubPublisher {
	return &stubPublisher{
		keys:      keys,
		published: make(map[string]int),
	}
}

func (p *stubPublisher) APIKeys(ctx context.Context, cells []string) (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]string)
	for _, cell := range cells {
		if k, ok := p.keys[cell]; ok {
			out[cell] = k
		}
	}
	return out, nil
}

func (p *stubPublisher) DateRange(ctx context.Context) (time.Time, time.Time, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pinnedFrom, p.pinnedTo, p.pinned, nil
}

func (p *stubPublisher) LastProcessed(ctx context.Context) (time.Time, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, !p.last.IsZero(), nil
}

func (p *stubPublisher) SetLastProcessed(ctx context.Context, t time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = t
	return nil
}

func (p *stubPublisher) EnsureWorksheet(ctx context.Context, title string) error {
	return nil
}

func (p *stubPublisher) Replace(ctx context.Context, title string, rows [][]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published[title] += len(rows)
	return nil
}

func (p *stubPublisher) publishedRows(title string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published[title]
}

func (p *stubPublisher) dropKey(cell string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.keys, cell)
}

func (p *stubPublisher) pinPeriod(from, to time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pinned = true
	p.pinnedFrom = from
	p.pinnedTo = to
}

func newTestService(fetcher *stubFetcher, publisher *stubPublisher) *service.Service {
	return service.New(
		service.WithFetcher(fetcher),
		service.WithPublisher(publisher),
		service.WithSellers(map[string]string{
			"B1": "Отчет Кузнецова",
			"C1": "Отчет Царева",
		}),
		service.WithWorkerCount(2),
		service.WithQueueSize(8),
	)
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a report service", t, func() {
		fetcher := &stubFetcher{}
		publisher := newStubPublisher(map[string]string{"B1": "token-b", "C1": "token-c"})
		svc := newTestService(fetcher, publisher)

		Convey("When starting the service", func() {
			err := svc.Start(context.Background())
			defer svc.Stop()

			Convey("Then it should start and report running", func() {
				So(err, ShouldBeNil)

				stats := svc.GetStats()
				So(stats.ServiceStatus, ShouldEqual, "running")
				So(stats.WorkerCount, ShouldEqual, 2)
				So(stats.ScheduleSpec, ShouldNotBeEmpty)
				So(stats.NextRunAt, ShouldNotBeEmpty)
			})

			Convey("Then starting twice should be a no-op", func() {
				So(svc.Start(context.Background()), ShouldBeNil)
			})
		})

		Convey("When the service was not started", func() {
			_, err := svc.RunReports(context.Background(), time.Time{}, time.Time{})

			Convey("Then runs should be rejected", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "not started")
			})
		})

		Convey("When stopping a started service", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			svc.Stop()

			Convey("Then it should report stopped", func() {
				So(svc.GetStats().ServiceStatus, ShouldEqual, "stopped")
			})

			Convey("Then stopping again should be safe", func() {
				So(svc.Stop, ShouldNotPanic)
			})
		})

		Convey("When required dependencies are missing", func() {
			bare := service.New()
			err := bare.Start(context.Background())

			Convey("Then start should fail", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "requires")
			})
		})
	})
}

func TestRunReports(t *testing.T) {
	Convey("Given a started report service", t, func() {
		fetcher := &stubFetcher{}
		publisher := newStubPublisher(map[string]string{"B1": "token-b", "C1": "token-c"})
		svc := newTestService(fetcher, publisher)

		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		// Let the startup run drain so assertions see a quiet pipeline.
		time.Sleep(100 * time.Millisecond)

		Convey("When running an explicit period", func() {
			from := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
			to := time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC)

			n, err := svc.RunReports(context.Background(), from, to)

			Convey("Then one job per seller should be enqueued", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
			})

			Convey("Then reports should be published for both sellers", func() {
				time.Sleep(100 * time.Millisecond)
				So(publisher.publishedRows("Отчет Кузнецова"), ShouldBeGreaterThan, 0)
				So(publisher.publishedRows("Отчет Царева"), ShouldBeGreaterThan, 0)
			})

			Convey("And when the same period is run again", func() {
				time.Sleep(100 * time.Millisecond)
				n2, err := svc.RunReports(context.Background(), from, to)

				Convey("Then duplicates should be skipped", func() {
					So(err, ShouldBeNil)
					So(n2, ShouldEqual, 0)
				})
			})
		})

		Convey("When the period bounds are reversed", func() {
			from := time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC)
			to := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)

			_, err := svc.RunReports(context.Background(), from, to)

			Convey("Then the run should be rejected", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "before start")
			})
		})

		Convey("When a seller key is missing", func() {
			publisher.dropKey("C1")

			from := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)
			to := time.Date(2025, 4, 13, 0, 0, 0, 0, time.UTC)
			n, err := svc.RunReports(context.Background(), from, to)

			Convey("Then only the configured seller should run", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When a period is pinned in the settings", func() {
			publisher.pinPeriod(
				time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
				time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),
			)

			n, err := svc.RunReports(context.Background(), time.Time{}, time.Time{})

			Convey("Then the pinned period should be used", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)

				time.Sleep(100 * time.Millisecond)
				runs := svc.Runs(context.Background(), 2)
				So(runs, ShouldHaveLength, 2)
				So(runs[0].DateFrom, ShouldEqual, "2025-03-03")
				So(runs[0].DateTo, ShouldEqual, "2025-03-09")
			})
		})
	})
}

func TestServiceRunHistory(t *testing.T) {
	Convey("Given a service that has processed runs", t, func() {
		fetcher := &stubFetcher{}
		publisher := newStubPublisher(map[string]string{"B1": "token-b"})
		svc := newTestService(fetcher, publisher)

		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		// Startup run covers the previous week for the single seller.
		time.Sleep(150 * time.Millisecond)

		Convey("When reading the run history", func() {
			runs := svc.Runs(context.Background(), 10)

			Convey("Then the startup run should be recorded", func() {
				So(len(runs), ShouldBeGreaterThanOrEqualTo, 1)
				So(runs[0].SellerCell, ShouldEqual, "B1")
				So(runs[0].Status, ShouldEqual, model.RunOK)
				So(runs[0].Rows, ShouldEqual, 1)
			})

			Convey("Then stats should reflect the history", func() {
				stats := svc.GetStats()
				So(stats.RunsRecorded, ShouldBeGreaterThanOrEqualTo, 1)
				So(stats.LastRunAt, ShouldNotBeEmpty)
			})
		})
	})
}
