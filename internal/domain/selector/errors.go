package selector

import "errors"

// Sentinel kinds for selection errors.
var (
	ErrUnavailable = errors.New("no item available for selection")
)
