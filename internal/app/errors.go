package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownItem  = errors.New("unknown item")
	ErrBadStateFile = errors.New("bad state file")
)
