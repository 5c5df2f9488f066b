package loadable

import (
	"context"
	"sync"
)

// Monitor forwards states from a wrapped Loadable into a decorator.
// It guarantees the single-subscription discipline every decorator
// needs: the wrapped state stream is subscribed to exactly once, and
// the subscription is established synchronously inside Start, before
// the caller issues the first wrapped Load. Without that ordering,
// transitions emitted between load and subscription would be lost.
//
// The started latch lives behind the same mutex as the rest of the
// monitor state, so concurrent Load calls on the decorator cannot
// start two monitoring loops.
type Monitor[V any] struct {
	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Start subscribes to source and begins forwarding each received state
// to forward on a background goroutine. The first call subscribes and
// returns true; subsequent calls are no-ops returning false until Stop.
// Callers must invoke Start before the first wrapped Load.
func (m *Monitor[V]) Start(source Loadable[V], forward func(ctx context.Context, state State[V])) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return false
	}
	m.started = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	// Subscribe before returning so no transition can slip between
	// Start and the caller's first Load.
	sub := source.Subscribe()

	go func() {
		defer close(done)
		defer sub.Cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case state, ok := <-sub.Updates():
				if !ok {
					return
				}
				forward(ctx, state)
			}
		}
	}()

	return true
}

// Stop cancels the monitoring loop, waits for it to exit, and clears
// the latch so a later Start subscribes fresh. Safe to call when the
// monitor was never started. Must not be called from the forward
// callback itself.
func (m *Monitor[V]) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	cancel()
	<-done
}
