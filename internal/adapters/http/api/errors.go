package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrMissingUser = errors.New("missing user parameter")
	ErrBadUser     = errors.New("user must be a UUID")
)
