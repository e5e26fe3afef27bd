// Package service owns the swipe sessions and the decision pipeline behind
// them, and implements the dependencies required by the HTTP adapters.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/sparkapply/internal/adapters/mq/queue"
	workerpool "github.com/okian/sparkapply/internal/adapters/mq/worker"
	"github.com/okian/sparkapply/internal/adapters/repository"
	"github.com/okian/sparkapply/internal/domain/dedupe"
	"github.com/okian/sparkapply/internal/domain/job"
	"github.com/okian/sparkapply/internal/domain/model"
	"github.com/okian/sparkapply/internal/domain/swipe"
	"github.com/okian/sparkapply/internal/domain/tailoring"
	"github.com/okian/sparkapply/internal/domain/types"
	"github.com/okian/sparkapply/pkg/logger"
	"github.com/okian/sparkapply/pkg/metrics"
)

const minSweepInterval = 10 * time.Millisecond

// Service implements the API dependencies for swipe sessions and the tracker.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog *job.StaticCatalog
	jobs    []job.Job
	tracker *repository.TrackerStore
	deduper dedupe.Deduper
	queue   eventqueue.Queue
	tailor  tailoring.Tailor
	pool    *workerpool.Pool

	// Sessions
	sessMu   sync.RWMutex
	sessions map[string]*session

	// Configuration
	workerCount         int
	queueSize           int
	dedupeSize          int
	catalogFile         string
	seedJobs            []job.Job
	surfaceOpts         []swipe.Option
	previewDepth        int
	idleTimeout         time.Duration
	tailoringMinLatency time.Duration
	tailoringMaxLatency time.Duration
	notifier            workerpool.Notifier
	now                 func() time.Time

	// Counters
	sessionsCreated  atomic.Int64
	sessionsEvicted  atomic.Int64
	decisionsEmitted atomic.Int64
	decisionsDropped atomic.Int64

	// State
	started bool
	runCtx  context.Context
	cancel  context.CancelFunc
	stopCh  chan struct{}
	wg      sync.WaitGroup

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of submission workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the decision queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the swipe request-id cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCatalogFile loads postings from a YAML file at Start.
func WithCatalogFile(path string) Option {
	return func(s *Service) {
		s.catalogFile = path
	}
}

// WithJobs replaces the built-in postings. Ignored when a catalog file is set.
func WithJobs(jobs []job.Job) Option {
	return func(s *Service) {
		s.seedJobs = append([]job.Job(nil), jobs...)
	}
}

// WithSurfaceOptions applies opts to every surface the service creates.
func WithSurfaceOptions(opts ...swipe.Option) Option {
	return func(s *Service) {
		s.surfaceOpts = append(s.surfaceOpts, opts...)
	}
}

// WithPreviewDepth sets how many upcoming postings a card view carries.
func WithPreviewDepth(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.previewDepth = n
		}
	}
}

// WithSessionIdleTimeout closes sessions idle for longer than d. Zero disables it.
func WithSessionIdleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.idleTimeout = d
		}
	}
}

// WithTailoringLatencyRange sets the simulated tailoring latency range.
func WithTailoringLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *Service) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.tailoringMinLatency = minLatency
			s.tailoringMaxLatency = maxLatency
		}
	}
}

// WithNotifier receives every application the pipeline records.
func WithNotifier(n workerpool.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithClock replaces time.Now for session bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:            make(map[string]*session),
		workerCount:         runtime.NumCPU() * 4,
		queueSize:           10_000,
		dedupeSize:          50_000,
		previewDepth:        2,
		idleTimeout:         15 * time.Minute,
		tailoringMinLatency: 80 * time.Millisecond,
		tailoringMaxLatency: 150 * time.Millisecond,
		now:                 time.Now,
		stopCh:              make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the catalog and starts the submission pipeline and the idle sweeper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting swipe service...")

	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return err
	}
	jobs, err := catalog.Ranked(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}
	s.catalog = catalog
	s.jobs = jobs

	s.runCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	s.tracker = repository.NewTrackerStore(s.runCtx)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.tailor = tailoring.NewInMemoryTailor(
		tailoring.WithLatencyRange(s.tailoringMinLatency, s.tailoringMaxLatency),
	)

	submitter := workerpool.NewSubmitter(s.catalog, s.tailor, s.tracker, workerpool.WithNotifier(s.notifier))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, submitter)
	s.pool.Start(s.runCtx)

	if s.idleTimeout > 0 {
		s.wg.Add(1)
		go s.sweep()
	}

	s.started = true
	s.logger.Info(ctx, "swipe service started",
		logger.Int("jobs", len(s.jobs)),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("idleTimeout", s.idleTimeout),
	)
	return nil
}

func (s *Service) loadCatalog(ctx context.Context) (*job.StaticCatalog, error) {
	switch {
	case s.catalogFile != "":
		c, err := job.LoadFile(ctx, s.catalogFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
		}
		s.logger.Info(ctx, "catalog loaded from file", logger.String("path", s.catalogFile))
		return c, nil
	case s.seedJobs != nil:
		if err := job.Validate(s.seedJobs); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
		}
		return job.NewStaticCatalog(s.seedJobs), nil
	default:
		return job.NewStaticCatalog(job.Defaults()), nil
	}
}

// Stop closes every session, drains the decision queue and stops the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping swipe service...")

	close(s.stopCh)
	s.wg.Wait()

	s.sessMu.Lock()
	open := s.sessions
	s.sessions = make(map[string]*session)
	s.sessMu.Unlock()
	for _, sess := range open {
		sess.close()
	}
	metrics.UpdateSessionsActive(0)

	var err error
	if s.pool != nil {
		err = s.pool.Shutdown(ctx)
	}
	_ = s.tracker.Close()
	s.cancel()

	s.started = false
	s.stopCh = make(chan struct{})
	s.logger.Info(ctx, "swipe service stopped")
	return err
}

// sweep evicts idle sessions until Stop.
func (s *Service) sweep() {
	defer s.wg.Done()

	interval := max(s.idleTimeout/4, minSweepInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if n := s.EvictIdle(s.now()); n > 0 {
				s.logger.Info(s.runCtx, "evicted idle sessions", logger.Int("count", n))
			}
		}
	}
}

// submit is the decision callback of every surface. It never blocks: a
// decision the queue refuses is logged and dropped.
func (s *Service) submit(sessionID, jobID string, dir swipe.Direction) {
	d := model.Decision{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		JobID:     jobID,
		Direction: dir,
		At:        s.now().UTC(),
	}
	metrics.RecordDecision(string(dir))
	s.decisionsEmitted.Add(1)

	if !s.queue.Enqueue(s.runCtx, d) {
		s.decisionsDropped.Add(1)
		metrics.RecordDecisionDropped()
		s.logger.Warn(s.runCtx, "decision dropped",
			logger.String("decisionID", d.ID),
			logger.String("sessionID", sessionID),
			logger.String("jobID", jobID),
			logger.String("direction", string(dir)),
		)
	}
}

// Jobs returns the ranked catalog.
func (s *Service) Jobs(_ context.Context) ([]job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return append([]job.Job(nil), s.jobs...), nil
}

// Applications lists tracked applications, newest first. An empty status lists all.
func (s *Service) Applications(ctx context.Context, status model.Status) ([]model.Application, error) {
	tracker, err := s.trackerStore()
	if err != nil {
		return nil, err
	}
	return tracker.List(ctx, status)
}

// Application returns one tracked application.
func (s *Service) Application(ctx context.Context, id string) (model.Application, error) {
	tracker, err := s.trackerStore()
	if err != nil {
		return model.Application{}, err
	}
	return tracker.Get(ctx, id)
}

// AdvanceApplication moves an application along the kanban.
func (s *Service) AdvanceApplication(ctx context.Context, id string, next model.Status) (model.Application, error) {
	tracker, err := s.trackerStore()
	if err != nil {
		return model.Application{}, err
	}
	app, err := tracker.Advance(ctx, id, next)
	if err != nil {
		return model.Application{}, err
	}
	if s.notifier != nil {
		s.notifier.ApplicationRecorded(app)
	}
	return app, nil
}

// ApplicationStats summarizes the tracker.
func (s *Service) ApplicationStats(ctx context.Context) (types.ApplicationStats, error) {
	tracker, err := s.trackerStore()
	if err != nil {
		return types.ApplicationStats{}, err
	}
	snap := tracker.Snapshot()
	return types.ApplicationStats{
		Total:    snap.Total,
		ByStatus: tracker.Counts(ctx),
		Passes:   snap.Passes,
	}, nil
}

func (s *Service) trackerStore() (*repository.TrackerStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.tracker, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"dedupeSize":       s.dedupeSize,
		"sessionsCreated":  s.sessionsCreated.Load(),
		"sessionsEvicted":  s.sessionsEvicted.Load(),
		"decisionsEmitted": s.decisionsEmitted.Load(),
		"decisionsDropped": s.decisionsDropped.Load(),
	}

	if s.started {
		snap := s.tracker.Snapshot()
		stats["jobs"] = len(s.jobs)
		stats["sessions"] = s.SessionCount()
		stats["queueLength"] = s.queue.Len(ctx)
		stats["processed"] = s.pool.Processed()
		stats["applications"] = snap.Total
		stats["passes"] = snap.Passes
		stats["dedupeEntries"] = s.deduper.Size()
	}

	return stats
}
