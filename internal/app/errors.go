package service

import (
	"errors"

	"github.com/okian/sparkapply/internal/adapters/repository"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted       = errors.New("service not started")
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidDirection = errors.New("invalid swipe direction")
	ErrLoadCatalog      = errors.New("load catalog failed")

	// Tracker errors surface unchanged so callers can match them here.
	ErrApplicationNotFound = repository.ErrNotFound
	ErrInvalidTransition   = repository.ErrInvalidTransition
	ErrInvalidStatus       = repository.ErrInvalidStatus
)
