package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrExhausted = errors.New("catalog exhausted")
)
