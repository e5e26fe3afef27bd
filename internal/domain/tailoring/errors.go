package tailoring

import "errors"

// Sentinel kinds for tailoring errors.
var (
	ErrCancelled = errors.New("tailoring cancelled")
)
