package swipe

import "sync"

// ReleaseBus delivers global pointer-release events to subscribers.
//
// A release that happens anywhere (outside the card, or because the client
// went away) cancels whatever drag is in flight. Subscriptions are scoped:
// Subscribe hands back a cancel func that must be called on teardown.
type ReleaseBus struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]func()
}

// NewReleaseBus creates an empty bus.
func NewReleaseBus() *ReleaseBus {
	return &ReleaseBus{subs: make(map[uint64]func())}
}

// Subscribe registers fn and returns its cancel func. Cancel is idempotent.
func (b *ReleaseBus) Subscribe(fn func()) (cancel func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Release fires every current subscriber and returns how many were notified.
// Subscribers may cancel themselves from inside the callback.
func (b *ReleaseBus) Release() int {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// Len returns the number of live subscriptions.
func (b *ReleaseBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
