package affinity

import "errors"

// Sentinel kinds for affinity errors.
var (
	ErrBadSnapshot = errors.New("malformed tally snapshot")
)
