package repository

import "errors"

// Sentinel kinds for choice store errors.
var (
	ErrClosed      = errors.New("store closed")
	ErrEmptyKey    = errors.New("empty user or item key")
	ErrStorageIO   = errors.New("storage io failure")
	ErrBadSnapshot = errors.New("malformed snapshot")
)
