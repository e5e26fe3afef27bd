// Package worker drains the decision queue and submits decisions.
package worker

import (
	"github.com/okian/sparkapply/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithNotifier registers a receiver for every application the submitter records.
func WithNotifier(n Notifier) SubmitterOption {
	return func(s *Submitter) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithSubmitterLogger sets a custom logger for the submitter.
func WithSubmitterLogger(l logger.Logger) SubmitterOption {
	return func(s *Submitter) {
		if l != nil {
			s.logger = l
		}
	}
}
