// Package runstore persists the history of report runs.
package runstore

import "errors"

// Common errors returned by the store.
var (
	// ErrNotFound indicates no run exists for the requested seller.
	ErrNotFound = errors.New("no run found")

	// ErrPersist indicates the history file could not be written.
	ErrPersist = errors.New("failed to persist run history")

	// ErrLoad indicates the history file could not be read.
	ErrLoad = errors.New("failed to load run history")
)
