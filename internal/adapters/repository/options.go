package repository

import "time"

// Option applies a configuration option to the TrackerStore.
type Option func(*TrackerStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *TrackerStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TrackerStore) {
		if now != nil {
			s.now = now
		}
	}
}
