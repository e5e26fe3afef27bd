package repository

import "errors"

// Sentinel kinds for tracker errors.
var (
	ErrNotFound          = errors.New("application not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("invalid application status")
	ErrMissingJob        = errors.New("application without job id")
)
