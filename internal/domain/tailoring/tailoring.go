// Package tailoring defines the contract for preparing an application for a posting.
//
// The in-memory implementation stands in for an AI service: it waits for a
// bounded, pseudo-random latency and then returns a fixed result derived from
// the posting alone.
package tailoring

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/sparkapply/internal/domain/job"
)

// Default tailoring configuration constants.
const (
	defaultMinLatency    = 80 * time.Millisecond
	defaultMaxLatency    = 150 * time.Millisecond
	defaultRandomSeed    = 42
	maxHighlightedSkills = 3
)

// Option applies a configuration option to the InMemoryTailor.
type Option func(*InMemoryTailor)

// WithLatencyRange sets the simulated latency range. A zero range disables the wait.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(t *InMemoryTailor) {
		if minLatency >= 0 && maxLatency >= minLatency {
			t.minLatency = minLatency
			t.maxLatency = maxLatency
		}
	}
}

// Result is a tailored application package for one posting.
type Result struct {
	JobID       string
	Headline    string
	Highlights  []string
	MatchScore  int
	GeneratedAt time.Time
}

// Tailor prepares application material for a posting.
type Tailor interface {
	// Tailor honors ctx for cancellation.
	Tailor(ctx context.Context, j job.Job) (Result, error)
}

// InMemoryTailor implements Tailor with a simulated delay.
type InMemoryTailor struct {
	minLatency time.Duration
	maxLatency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewInMemoryTailor creates a new in-memory tailor with configuration options.
func NewInMemoryTailor(opts ...Option) *InMemoryTailor {
	t := &InMemoryTailor{
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		rng:        rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible runs
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Tailor waits for the simulated latency and returns the canned result.
func (t *InMemoryTailor) Tailor(ctx context.Context, j job.Job) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	case <-time.After(t.latency()):
	}

	highlights := j.Requirements
	if len(highlights) > maxHighlightedSkills {
		highlights = highlights[:maxHighlightedSkills]
	}

	return Result{
		JobID:       j.ID,
		Headline:    fmt.Sprintf("Tailored CV for %s at %s", j.Title, j.Company),
		Highlights:  append([]string(nil), highlights...),
		MatchScore:  j.Match,
		GeneratedAt: t.now().UTC(),
	}, nil
}

func (t *InMemoryTailor) latency() time.Duration {
	span := t.maxLatency - t.minLatency
	if span <= 0 {
		return t.minLatency
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.minLatency + time.Duration(t.rng.Int63n(int64(span)))
}
