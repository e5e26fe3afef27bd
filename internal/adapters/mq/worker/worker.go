package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/sparkapply/internal/domain/model"
	"github.com/okian/sparkapply/pkg/logger"
	"github.com/okian/sparkapply/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
)

// Queue defines how workers receive decisions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Decision
}

// Handler processes one decision.
type Handler interface {
	Handle(ctx context.Context, d model.Decision) error
}

// Worker processes decisions read off a queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called or the queue closes.
	Run(ctx context.Context)

	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	handler Handler
	name    string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	processed atomic.Int64
	logger    logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, handler Handler, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		handler:  handler,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	decisions := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case d, ok := <-decisions:
			if !ok {
				return
			}
			if err := w.process(ctx, d); err != nil {
				w.logger.Error(ctx, "error processing decision",
					logger.String("decisionID", d.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker without waiting for the queue to drain.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Processed returns how many decisions this worker handled, failures included.
func (w *InMemoryWorker) Processed() int64 {
	return w.processed.Load()
}

func (w *InMemoryWorker) process(ctx context.Context, d model.Decision) error {
	start := time.Now()
	defer func() {
		w.processed.Add(1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.handler.Handle(ctx, d); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "handle_error")
		return fmt.Errorf("handle decision %s: %w", d.ID, err)
	}
	return nil
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. A count below one picks a size from the CPU count.
func NewPool(workerCount int, queue Queue, handler Handler) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(queue, handler, WithName("worker-"+strconv.Itoa(i)))
	}

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns the decisions handled across all workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerCount(len(p.workers))
}

// Stop stops all workers without draining the queue.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()
	for _, w := range p.workers {
		_ = w.Shutdown(ctx)
	}
	metrics.UpdateWorkerCount(0)
}

// Shutdown closes the queue and lets the workers drain what is left. Workers
// still busy when ctx expires are stopped and the error is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	defer metrics.UpdateWorkerCount(0)
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			for _, rest := range p.workers {
				rest.stop()
			}
			return fmt.Errorf("pool shutdown: %w", ctx.Err())
		}
	}
	return nil
}
