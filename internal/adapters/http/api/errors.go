package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrServe      = errors.New("docs serve failed")
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("run already in progress")
)
