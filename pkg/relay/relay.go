package relay

import (
	"sync"
)

// Relay holds a single current value of type T and broadcasts every
// update to all live subscribers. New subscribers immediately receive
// the current value. All methods are safe for concurrent use.
type Relay[T any] struct {
	mu      sync.Mutex
	current T
	subs    map[uint64]chan T
	nextID  uint64
	closed  bool
}

// Subscription is one independent view onto a Relay. Values arrive on
// Updates in publication order with keep-newest coalescing.
type Subscription[T any] struct {
	relay *Relay[T]
	id    uint64
	ch    chan T
}

// New creates a Relay holding the given initial value.
func New[T any](initial T) *Relay[T] {
	return &Relay[T]{
		current: initial,
		subs:    make(map[uint64]chan T),
	}
}

// Current returns the latest value, independent of any subscription.
func (r *Relay[T]) Current() T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Update sets the current value and enqueues it to every live
// subscriber. Updates on a closed relay are no-ops.
func (r *Relay[T]) Update(value T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.current = value
	for _, ch := range r.subs {
		offer(ch, value)
	}
}

// Subscribe registers a new subscriber. The current value is enqueued
// synchronously so the first receive never blocks and never misses the
// latest state. On a closed relay the returned subscription yields the
// final value and is already closed.
func (r *Relay[T]) Subscribe() *Subscription[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan T, 1)
	ch <- r.current

	sub := &Subscription[T]{relay: r, ch: ch}
	if r.closed {
		close(ch)
		return sub
	}

	sub.id = r.nextID
	r.nextID++
	r.subs[sub.id] = ch
	return sub
}

// Len returns the number of live subscribers.
func (r *Relay[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Close removes and closes every subscriber channel and makes further
// Update and Subscribe calls inert. Close is idempotent.
func (r *Relay[T]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true

	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}

// Updates returns the channel on which this subscription receives
// values. The channel is closed when the subscription is canceled or
// the relay is closed.
func (s *Subscription[T]) Updates() <-chan T {
	return s.ch
}

// Cancel removes the subscription from the relay and closes its
// channel. Cancel is idempotent and safe to call concurrently with
// Update.
func (s *Subscription[T]) Cancel() {
	s.relay.mu.Lock()
	defer s.relay.mu.Unlock()

	if _, ok := s.relay.subs[s.id]; !ok {
		return
	}
	delete(s.relay.subs, s.id)
	close(s.ch)
}

// offer delivers value on a depth-one queue with keep-newest
// semantics. Must be called with the relay mutex held, which
// serializes producers; the subscriber may consume concurrently.
func offer[T any](ch chan T, value T) {
	for {
		select {
		case ch <- value:
			return
		default:
		}
		// Queue full: evict the stale value and try again.
		select {
		case <-ch:
		default:
		}
	}
}
