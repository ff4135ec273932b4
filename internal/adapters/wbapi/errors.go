// Package wbapi talks to the Wildberries paid-storage report API.
package wbapi

import "errors"

// Common errors returned by the client.
var (
	// ErrTaskCreate indicates the report task could not be created.
	ErrTaskCreate = errors.New("failed to create report task")

	// ErrNoTaskID indicates the API response carried no task id.
	ErrNoTaskID = errors.New("no task id in response")

	// ErrDownload indicates the report download failed.
	ErrDownload = errors.New("failed to download report")

	// ErrReportNotReady indicates the report stayed empty or unavailable
	// after all polling attempts.
	ErrReportNotReady = errors.New("report not ready after all attempts")

	// ErrUnexpectedStatus indicates a non-retryable HTTP status.
	ErrUnexpectedStatus = errors.New("unexpected status code")
)
