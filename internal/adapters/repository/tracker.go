package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sparkapply/internal/domain/model"
	"github.com/okian/sparkapply/pkg/metrics"
)

const defaultMetricsUpdateInterval = 5 * time.Second

// TrackerStore is the in-memory Store. Reads of counters go through an
// atomically published Snapshot and never take the write lock.
type TrackerStore struct {
	mu     sync.RWMutex
	byID   map[string]model.Application
	passes map[string]int
	now    func() time.Time

	snapshot atomic.Pointer[Snapshot]

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopChan              chan struct{}
	stopOnce              sync.Once
}

var _ Store = (*TrackerStore)(nil)

// NewTrackerStore constructs a tracker and starts its metrics updater, which
// runs until ctx is done or Close is called.
func NewTrackerStore(ctx context.Context, opts ...Option) *TrackerStore {
	s := &TrackerStore{
		byID:                  make(map[string]model.Application),
		passes:                make(map[string]int),
		now:                   time.Now,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.publishSnapshotLocked()
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background metrics updater.
func (s *TrackerStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Apply implements Store.Apply.
func (s *TrackerStore) Apply(ctx context.Context, app model.Application) (model.Application, error) {
	if err := ctx.Err(); err != nil {
		return model.Application{}, err
	}
	if app.JobID == "" {
		return model.Application{}, ErrMissingJob
	}
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.Status == "" {
		app.Status = model.StatusSent
	}
	if !app.Status.Valid() {
		return model.Application{}, fmt.Errorf("%w: %q", ErrInvalidStatus, app.Status)
	}
	now := s.now()
	if app.AppliedAt.IsZero() {
		app.AppliedAt = now
	}
	app.UpdatedAt = now
	app.Highlights = append([]string(nil), app.Highlights...)

	s.mu.Lock()
	s.byID[app.ID] = app
	s.publishSnapshotLocked()
	s.mu.Unlock()

	return app, nil
}

// Pass implements Store.Pass.
func (s *TrackerStore) Pass(ctx context.Context, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if jobID == "" {
		return ErrMissingJob
	}

	s.mu.Lock()
	s.passes[jobID]++
	s.publishSnapshotLocked()
	s.mu.Unlock()

	metrics.RecordPass()
	return nil
}

// Get implements Store.Get.
func (s *TrackerStore) Get(ctx context.Context, id string) (model.Application, error) {
	if err := ctx.Err(); err != nil {
		return model.Application{}, err
	}

	s.mu.RLock()
	app, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return model.Application{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(app), nil
}

// List implements Store.List.
func (s *TrackerStore) List(ctx context.Context, status model.Status) ([]model.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.mu.RLock()
	out := make([]model.Application, 0, len(s.byID))
	for _, app := range s.byID {
		if status == "" || app.Status == status {
			out = append(out, clone(app))
		}
	}
	s.mu.RUnlock()

	// newest first, id breaks ties so the order is deterministic
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppliedAt.Equal(out[j].AppliedAt) {
			return out[i].AppliedAt.After(out[j].AppliedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Advance implements Store.Advance.
func (s *TrackerStore) Advance(ctx context.Context, id string, next model.Status) (model.Application, error) {
	if err := ctx.Err(); err != nil {
		return model.Application{}, err
	}
	if !next.Valid() {
		return model.Application{}, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.byID[id]
	if !ok {
		return model.Application{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !app.Status.CanMove(next) {
		return model.Application{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, app.Status, next)
	}

	app.Status = next
	app.UpdatedAt = s.now()
	s.byID[id] = app
	s.publishSnapshotLocked()
	return clone(app), nil
}

// Counts implements Store.Counts.
func (s *TrackerStore) Counts(_ context.Context) map[model.Status]int {
	snap := s.snapshot.Load()
	out := make(map[model.Status]int, len(snap.ByStatus))
	for k, v := range snap.ByStatus {
		out[k] = v
	}
	return out
}

// Passes implements Store.Passes.
func (s *TrackerStore) Passes(_ context.Context) int {
	return s.snapshot.Load().Passes
}

// Snapshot returns the latest published counters.
func (s *TrackerStore) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// publishSnapshotLocked rebuilds the counters. Callers hold s.mu (or own s exclusively).
func (s *TrackerStore) publishSnapshotLocked() {
	snap := &Snapshot{
		ByStatus: make(map[model.Status]int, len(model.Statuses())),
		PassedBy: make(map[string]int, len(s.passes)),
	}
	for _, st := range model.Statuses() {
		snap.ByStatus[st] = 0
	}
	for _, app := range s.byID {
		snap.ByStatus[app.Status]++
	}
	snap.Total = len(s.byID)
	for jobID, n := range s.passes {
		snap.PassedBy[jobID] = n
		snap.Passes += n
	}
	s.snapshot.Store(snap)
}

func (s *TrackerStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *TrackerStore) updateMetrics() {
	for status, n := range s.snapshot.Load().ByStatus {
		metrics.UpdateApplications(string(status), n)
	}
}

func clone(app model.Application) model.Application {
	app.Highlights = append([]string(nil), app.Highlights...)
	return app
}
