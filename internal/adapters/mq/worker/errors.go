package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrUnknownJob       = errors.New("decision for unknown job")
	ErrInvalidDirection = errors.New("decision without a direction")
)
