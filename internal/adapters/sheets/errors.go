// Package sheets publishes paid-storage reports into Google Sheets.
package sheets

import "errors"

// Common errors returned by the client.
var (
	// ErrInit indicates the Sheets service could not be constructed.
	ErrInit = errors.New("failed to initialize sheets service")

	// ErrRead indicates a read from the spreadsheet failed.
	ErrRead = errors.New("failed to read from spreadsheet")

	// ErrWrite indicates a write to the spreadsheet failed.
	ErrWrite = errors.New("failed to write to spreadsheet")

	// ErrNoAPIKeys indicates no seller API keys were found in the
	// settings worksheet.
	ErrNoAPIKeys = errors.New("no api keys found in settings")
)
