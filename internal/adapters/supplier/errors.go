package supplier

import "errors"

// Sentinel kinds for supplier errors.
var (
	ErrFetchFailed = errors.New("supplier fetch failed")
	ErrBadResponse = errors.New("supplier returned malformed response")
)
