package wbapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ramezanov/storkeep/internal/domain/model"
	"github.com/ramezanov/storkeep/internal/domain/period"
	"github.com/ramezanov/storkeep/pkg/logger"
	"github.com/ramezanov/storkeep/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultBaseURL      = "https://seller-analytics-api.wildberries.ru/api/v1"
	defaultRetryDelay   = 60 * time.Second
	defaultPollAttempts = 5
	defaultMaxRetries   = 3
	defaultRateWaitMin  = 60 * time.Second
	defaultRateWaitMax  = 120 * time.Second
	requestTimeout      = 10 * time.Minute
)

// retryableStatus reports whether a status code is worth retrying.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// ReportFetcher creates paid-storage report tasks and downloads their results.
type ReportFetcher interface {
	// CreateReportTask asks the API to build a report for the period and
	// returns the task id to poll.
	CreateReportTask(ctx context.Context, token string, from, to time.Time) (string, error)

	// DownloadReport polls the task until the report rows are available.
	DownloadReport(ctx context.Context, token, taskID string) ([]model.StorageRecord, error)
}

// Client implements ReportFetcher against the WB seller analytics API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	retryDelay   time.Duration
	pollAttempts int
	maxRetries   int
	rateWaitMin  time.Duration
	rateWaitMax  time.Duration
	logger       logger.Logger
}

// NewClient creates a WB API client with configuration options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:      defaultBaseURL,
		httpClient:   &http.Client{Timeout: requestTimeout},
		retryDelay:   defaultRetryDelay,
		pollAttempts: defaultPollAttempts,
		maxRetries:   defaultMaxRetries,
		rateWaitMin:  defaultRateWaitMin,
		rateWaitMax:  defaultRateWaitMax,
		logger:       logger.Get().Named("wbapi"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// taskResponse mirrors the create-task API payload.
type taskResponse struct {
	Data struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

// CreateReportTask requests a paid-storage report for [from, to] and
// returns the task id. Rate limiting and retryable server errors are
// waited out up to maxRetries times.
func (c *Client) CreateReportTask(ctx context.Context, token string, from, to time.Time) (string, error) {
	endpoint := fmt.Sprintf("%s/paid_storage?%s", c.baseURL, url.Values{
		"dateFrom": {period.FormatAPI(from)},
		"dateTo":   {period.FormatAPI(to)},
	}.Encode())

	c.logger.Info(ctx, "creating report task",
		logger.String("date_from", period.FormatAPI(from)),
		logger.String("date_to", period.FormatAPI(to)),
	)

	for attempt := 0; ; attempt++ {
		code, body, retryAfter, err := c.get(ctx, endpoint, token)
		metrics.RecordWBRequest("create_task", strconv.Itoa(code))
		if err != nil {
			metrics.RecordWBError()
			return "", fmt.Errorf("%w: %w", ErrTaskCreate, err)
		}

		switch {
		case code == http.StatusOK:
			var resp taskResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				metrics.RecordWBError()
				return "", fmt.Errorf("%w: %w", ErrTaskCreate, err)
			}
			if resp.Data.TaskID == "" {
				metrics.RecordWBError()
				return "", ErrNoTaskID
			}
			c.logger.Info(ctx, "report task created", logger.String("task_id", resp.Data.TaskID))
			return resp.Data.TaskID, nil

		case code == http.StatusTooManyRequests && attempt < c.maxRetries:
			if err := c.waitRateLimit(ctx, retryAfter); err != nil {
				return "", err
			}

		case retryableStatus(code) && attempt < c.maxRetries:
			// Exponential backoff between attempts.
			if err := sleepCtx(ctx, c.retryDelay*(1<<attempt)); err != nil {
				return "", err
			}

		default:
			metrics.RecordWBError()
			return "", fmt.Errorf("%w: %w: %d", ErrTaskCreate, ErrUnexpectedStatus, code)
		}
	}
}

// DownloadReport polls the report task until rows arrive. Each attempt
// waits retryDelay doubled per attempt before requesting, matching the
// report generation latency on the API side.
func (c *Client) DownloadReport(ctx context.Context, token, taskID string) ([]model.StorageRecord, error) {
	endpoint := fmt.Sprintf("%s/paid_storage/tasks/%s/download", c.baseURL, url.PathEscape(taskID))

	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		wait := c.retryDelay * (1 << attempt)
		c.logger.Info(ctx, "waiting before report download",
			logger.String("task_id", taskID),
			logger.Int("attempt", attempt+1),
			logger.Any("wait", wait.String()),
		)
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, err
		}

		code, body, retryAfter, err := c.get(ctx, endpoint, token)
		metrics.RecordWBRequest("download", strconv.Itoa(code))
		if err != nil {
			metrics.RecordWBError()
			c.logger.Warn(ctx, "report download request failed",
				logger.Int("attempt", attempt+1),
				logger.Error(err),
			)
			continue
		}

		switch {
		case code == http.StatusOK:
			// The API answers 200 with an empty body while the report is
			// still being generated.
			if len(body) == 0 {
				c.logger.Warn(ctx, "report not ready yet, retrying", logger.Int("attempt", attempt+1))
				continue
			}
			var records []model.StorageRecord
			if err := json.Unmarshal(body, &records); err != nil {
				metrics.RecordWBError()
				c.logger.Warn(ctx, "report body not decodable yet, retrying",
					logger.Int("attempt", attempt+1),
					logger.Error(err),
				)
				continue
			}
			if len(records) == 0 {
				c.logger.Warn(ctx, "report is empty, retrying", logger.Int("attempt", attempt+1))
				continue
			}
			metrics.RecordWBPollAttempts(attempt + 1)
			c.logger.Info(ctx, "report downloaded",
				logger.String("task_id", taskID),
				logger.Int("rows", len(records)),
			)
			return records, nil

		case code == http.StatusTooManyRequests:
			if err := c.waitRateLimit(ctx, retryAfter); err != nil {
				return nil, err
			}

		case retryableStatus(code):
			c.logger.Warn(ctx, "retryable status from report download",
				logger.Int("status", code),
				logger.Int("attempt", attempt+1),
			)

		default:
			metrics.RecordWBError()
			return nil, fmt.Errorf("%w: %w: %d", ErrDownload, ErrUnexpectedStatus, code)
		}
	}

	metrics.RecordWBError()
	return nil, fmt.Errorf("%w: %d attempts", ErrReportNotReady, c.pollAttempts)
}

// get performs an authorized GET and returns the status, body and
// Retry-After header.
func (c *Client) get(ctx context.Context, endpoint, token string) (int, []byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, "", err
	}
	req.Header.Set("Authorization", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, "", err
	}

	return resp.StatusCode, data, resp.Header.Get("Retry-After"), nil
}

// waitRateLimit sleeps for the server-suggested interval, or a random
// interval within the configured bounds when the header is absent.
func (c *Client) waitRateLimit(ctx context.Context, retryAfter string) error {
	wait := c.rateWaitMin
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			wait = time.Duration(secs) * time.Second
		}
	} else if c.rateWaitMax > c.rateWaitMin {
		wait = c.rateWaitMin + time.Duration(rand.Int63n(int64(c.rateWaitMax-c.rateWaitMin)))
	}

	c.logger.Warn(ctx, "rate limited, waiting", logger.Any("wait", wait.String()))
	metrics.RecordWBRateLimitWait()
	return sleepCtx(ctx, wait)
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
