package loadable

import (
	"context"
	"fmt"
	"sync"

	"github.com/vnykmshr/goload/pkg/common/validation"
	"github.com/vnykmshr/goload/pkg/relay"
)

// FetchFunc is the user-supplied fetch operation. It may call report
// to publish intermediate loading progress; report is safe to call
// from any goroutine and becomes a no-op once the attempt is stale.
type FetchFunc[V any] func(ctx context.Context, report func(Progress)) (V, error)

// Base is the foundational loading state machine. It wraps a fetch
// operation and drives idle -> loading -> loaded/failure transitions
// through its state relay. Fetch errors (and panics) are captured as
// failure states and never escape Load.
type Base[V any] struct {
	mu       sync.Mutex
	states   *relay.Relay[State[V]]
	fetch    FetchFunc[V]
	canceled bool
	attempt  context.CancelFunc
	gen      uint64 // bumped per attempt and on reset; stale attempts publish nothing
}

// NewBase creates a base Loadable around the given fetch operation.
func NewBase[V any](fetch FetchFunc[V]) (*Base[V], error) {
	if fetch == nil {
		return nil, validation.ValidateNotNil("loadable", "fetch", nil)
	}

	return &Base[V]{
		states: relay.New(Idle[V]()),
		fetch:  fetch,
	}, nil
}

// Subscribe returns an independent view of the state stream.
func (b *Base[V]) Subscribe() *relay.Subscription[State[V]] {
	return b.states.Subscribe()
}

// CurrentState returns the latest state.
func (b *Base[V]) CurrentState() State[V] {
	return b.states.Current()
}

// IsCanceled reports whether cancellation has been requested.
func (b *Base[V]) IsCanceled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.canceled
}

// Load runs one fetch attempt. Re-entrant calls while loading, after
// a successful load, or after cancellation are no-ops; UI callers may
// invoke Load unconditionally on appearance.
func (b *Base[V]) Load(ctx context.Context) {
	b.mu.Lock()
	kind := b.states.Current().Kind()
	if b.canceled || kind == KindLoading || kind == KindLoaded {
		b.mu.Unlock()
		return
	}

	b.gen++
	gen := b.gen
	fetchCtx, cancel := context.WithCancel(ctx)
	b.attempt = cancel
	b.states.Update(Loading[V](nil))
	b.mu.Unlock()

	value, err := b.runFetch(fetchCtx, gen)
	cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.gen || b.canceled {
		// Superseded by reset, or canceled mid-flight: suppress the
		// terminal state from this attempt.
		return
	}
	b.attempt = nil
	if err != nil {
		b.states.Update(Failure[V](err))
		return
	}
	b.states.Update(Loaded(value))
}

// runFetch invokes the fetch with panic recovery and a progress hook
// scoped to this attempt.
func (b *Base[V]) runFetch(ctx context.Context, gen uint64) (value V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()

	report := func(p Progress) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if gen != b.gen || b.canceled {
			return
		}
		b.states.Update(Loading[V](&p))
	}

	return b.fetch(ctx, report)
}

// Cancel requests termination of the in-flight attempt. Idempotent;
// it publishes no state.
func (b *Base[V]) Cancel() {
	b.mu.Lock()
	if b.canceled {
		b.mu.Unlock()
		return
	}
	b.canceled = true
	cancel := b.attempt
	b.attempt = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Reset returns to idle, clears cancellation, and invalidates any
// in-flight attempt so a fresh Load behaves like the first ever call.
func (b *Base[V]) Reset() {
	b.mu.Lock()
	b.gen++
	b.canceled = false
	cancel := b.attempt
	b.attempt = nil
	b.states.Update(Idle[V]())
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Close tears the loadable down, canceling in-flight work and closing
// all subscriber channels.
func (b *Base[V]) Close() {
	b.mu.Lock()
	b.gen++
	cancel := b.attempt
	b.attempt = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	b.states.Close()
}
