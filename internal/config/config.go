// Package config defines service configuration and how it is loaded.
//
// Precedence, low to high: New() defaults, the YAML file named by
// SPARK_CONFIG, then SPARK_* environment variables.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory decision queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of submission workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the swipe request-id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// CatalogFile optionally points at a YAML job catalog; empty uses the built-in postings.
	CatalogFile string `koanf:"catalog_file"`

	// Swipe surface tuning. Threshold and clamp are independent values.
	DecisionThreshold float64 `koanf:"decision_threshold"`
	MaxDragOffset     float64 `koanf:"max_drag_offset"`
	RotationFactor    float64 `koanf:"rotation_factor"`
	OpacityFloor      float64 `koanf:"opacity_floor"`
	OpacityFalloff    float64 `koanf:"opacity_falloff"`
	PreviewDepth      int     `koanf:"preview_depth"`

	// SessionIdleTimeoutSec closes sessions nobody touched for this long.
	SessionIdleTimeoutSec int `koanf:"session_idle_timeout_sec"`

	// TailoringLatencyMinMS and TailoringLatencyMaxMS bound the simulated tailoring step.
	TailoringLatencyMinMS int `koanf:"tailoring_latency_min_ms"`
	TailoringLatencyMaxMS int `koanf:"tailoring_latency_max_ms"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		QueueSize:             10_000,
		WorkerCount:           runtime.NumCPU() * 4,
		DedupeSize:            50_000,
		DecisionThreshold:     100,
		MaxDragOffset:         200,
		RotationFactor:        0.1,
		OpacityFloor:          0.7,
		OpacityFalloff:        0.002,
		PreviewDepth:          2,
		SessionIdleTimeoutSec: 900,
		TailoringLatencyMinMS: 80,
		TailoringLatencyMaxMS: 150,
	}
}

// Validate reports the first problem with c, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.DecisionThreshold <= 0:
		return fmt.Errorf("%w: decision_threshold must be positive, got %v", ErrInvalidConfig, c.DecisionThreshold)
	case c.MaxDragOffset <= 0:
		return fmt.Errorf("%w: max_drag_offset must be positive, got %v", ErrInvalidConfig, c.MaxDragOffset)
	case c.DecisionThreshold >= c.MaxDragOffset:
		// a clamp at or below the threshold would make drags unresolvable
		return fmt.Errorf("%w: decision_threshold %v must be below max_drag_offset %v",
			ErrInvalidConfig, c.DecisionThreshold, c.MaxDragOffset)
	case c.OpacityFloor < 0 || c.OpacityFloor > 1:
		return fmt.Errorf("%w: opacity_floor must be within [0,1], got %v", ErrInvalidConfig, c.OpacityFloor)
	case c.OpacityFalloff < 0:
		return fmt.Errorf("%w: opacity_falloff must not be negative, got %v", ErrInvalidConfig, c.OpacityFalloff)
	case c.PreviewDepth < 0:
		return fmt.Errorf("%w: preview_depth must not be negative, got %d", ErrInvalidConfig, c.PreviewDepth)
	case c.SessionIdleTimeoutSec < 0:
		return fmt.Errorf("%w: session_idle_timeout_sec must not be negative", ErrInvalidConfig)
	case c.TailoringLatencyMinMS < 0 || c.TailoringLatencyMaxMS < c.TailoringLatencyMinMS:
		return fmt.Errorf("%w: tailoring latency range [%d,%d] ms is invalid",
			ErrInvalidConfig, c.TailoringLatencyMinMS, c.TailoringLatencyMaxMS)
	}
	return nil
}

// SessionIdleTimeout returns the idle eviction timeout; zero disables eviction.
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleTimeoutSec) * time.Second
}

// TailoringLatency returns the simulated tailoring latency bounds.
func (c *Config) TailoringLatency() (minLatency, maxLatency time.Duration) {
	return time.Duration(c.TailoringLatencyMinMS) * time.Millisecond,
		time.Duration(c.TailoringLatencyMaxMS) * time.Millisecond
}
