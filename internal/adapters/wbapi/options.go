package wbapi

import (
	"net/http"
	"time"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL overrides the WB API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetryDelay sets the base delay used for backoff between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithPollAttempts sets how many times a report download is attempted.
func WithPollAttempts(n int) Option {
	return func(c *Client) {
		c.pollAttempts = n
	}
}

// WithMaxRetries sets how many times a task creation request is retried
// on retryable statuses.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRateLimitWait bounds the random wait applied when the API returns
// 429 without a Retry-After header.
func WithRateLimitWait(min, max time.Duration) Option {
	return func(c *Client) {
		c.rateWaitMin = min
		c.rateWaitMax = max
	}
}
