// Package queue carries resolved swipe decisions from sessions to the
// submission workers.
//
// Enqueue never blocks: a full or closed queue refuses the decision and the
// caller decides what to do with it.
package queue

import (
	"context"
	"sync"

	"github.com/okian/sparkapply/internal/domain/model"
	"github.com/okian/sparkapply/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a decision. It returns false when the decision was not accepted.
	Enqueue(ctx context.Context, d model.Decision) bool

	// Dequeue returns a channel fed with decisions until the queue is closed.
	Dequeue(ctx context.Context) <-chan model.Decision

	// Len returns the number of pending decisions.
	Len(ctx context.Context) int

	// Close stops accepting decisions. Pending ones are still delivered.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	decisions chan model.Decision
	capacity  int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.decisions = make(chan model.Decision, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a decision to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, d model.Decision) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	}

	select {
	case q.decisions <- d:
		metrics.RecordQueueEnqueue()
		q.observe()
		return true
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that receives decisions as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.Decision {
	out := make(chan model.Decision)
	go func() {
		defer close(out)
		for d := range q.decisions {
			select {
			case out <- d:
				metrics.RecordQueueDequeue()
				q.observe()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued decisions.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.observe()
	return len(q.decisions)
}

func (q *InMemoryQueue) observe() {
	size := len(q.decisions)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Close gracefully shuts down the queue. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.decisions)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
