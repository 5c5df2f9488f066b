package limit

import (
	"context"
	"fmt"
	"sync"

	glerrors "github.com/vnykmshr/goload/pkg/common/errors"
	"github.com/vnykmshr/goload/pkg/common/validation"
	"github.com/vnykmshr/goload/pkg/loadable"
	"github.com/vnykmshr/goload/pkg/relay"
	"github.com/vnykmshr/goload/pkg/tokenbucket"
)

// Config holds configuration options for creating a limiting Loader.
type Config struct {
	// Limit is the maximum number of concurrently running wrapped
	// loads. Must be positive.
	Limit int

	// Bucket optionally supplies the token bucket enforcing the limit,
	// allowing several loaders to share one bound. When nil, the
	// Loader creates its own bucket of Limit tokens.
	Bucket tokenbucket.Bucket
}

// Loader decorates a Loadable with a concurrency bound.
type Loader[V any] struct {
	wrapped loadable.Loadable[V]
	bucket  tokenbucket.Bucket
	states  *relay.Relay[loadable.State[V]]
	mon     loadable.Monitor[V]

	mu       sync.Mutex
	canceled bool
}

// New creates a limiting Loader with its own bucket of limit tokens.
func New[V any](wrapped loadable.Loadable[V], limit int) (*Loader[V], error) {
	return NewWithConfig(wrapped, Config{Limit: limit})
}

// NewWithConfig creates a limiting Loader from a Config.
func NewWithConfig[V any](wrapped loadable.Loadable[V], cfg Config) (*Loader[V], error) {
	if wrapped == nil {
		return nil, validation.ValidateNotNil("limit", "wrapped", nil)
	}

	bucket := cfg.Bucket
	if bucket == nil {
		var err error
		bucket, err = tokenbucket.New(cfg.Limit)
		if err != nil {
			return nil, err
		}
	}

	return &Loader[V]{
		wrapped: wrapped,
		bucket:  bucket,
		states:  relay.New(loadable.Idle[V]()),
	}, nil
}

// Subscribe returns an independent view of the decorated state stream.
func (l *Loader[V]) Subscribe() *relay.Subscription[loadable.State[V]] {
	return l.states.Subscribe()
}

// CurrentState returns the latest decorated state.
func (l *Loader[V]) CurrentState() loadable.State[V] {
	return l.states.Current()
}

// IsCanceled reports whether cancellation has been requested.
func (l *Loader[V]) IsCanceled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.canceled
}

// Bucket returns the token bucket enforcing the bound, for inspection
// or for sharing with other loaders.
func (l *Loader[V]) Bucket() tokenbucket.Bucket {
	return l.bucket
}

// Load acquires a token, queuing behind earlier callers if the bound
// is saturated, then invokes the wrapped Load and releases the token
// when it returns. If ctx ends while queued, the decorated stream
// observes a failure wrapping errors.ErrTokenUnavailable.
func (l *Loader[V]) Load(ctx context.Context) {
	l.mu.Lock()
	if l.canceled {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	// Subscribe before any wrapped Load so no transition is lost.
	l.mon.Start(l.wrapped, l.forward)

	err := l.bucket.WithToken(ctx, func() error {
		// Cancellation may have landed while this caller was queued.
		l.mu.Lock()
		canceled := l.canceled
		l.mu.Unlock()
		if canceled {
			return nil
		}

		l.wrapped.Load(ctx)
		return nil
	})
	if err == nil {
		return
	}

	l.mu.Lock()
	canceled := l.canceled
	l.mu.Unlock()
	if canceled {
		return
	}

	l.states.Update(loadable.Failure[V](loadable.NewUniqueError(
		fmt.Errorf("%w: %v", glerrors.ErrTokenUnavailable, err))))
}

// forward relays each wrapped state into the decorator's own stream.
func (l *Loader[V]) forward(_ context.Context, state loadable.State[V]) {
	l.states.Update(state)
}

// Cancel requests cooperative termination. Queued callers drain
// without invoking the wrapped Load. Idempotent.
func (l *Loader[V]) Cancel() {
	l.mu.Lock()
	if l.canceled {
		l.mu.Unlock()
		return
	}
	l.canceled = true
	l.mu.Unlock()

	l.wrapped.Cancel()
}

// Reset clears cancellation and resets the wrapped Loadable. Tokens
// are untouched: callers still in flight release theirs normally.
func (l *Loader[V]) Reset() {
	l.mon.Stop()

	l.mu.Lock()
	l.canceled = false
	l.mu.Unlock()

	l.wrapped.Reset()
	l.states.Update(loadable.Idle[V]())
}

// Close tears down the decorator and the wrapped Loadable.
func (l *Loader[V]) Close() {
	l.mon.Stop()
	l.wrapped.Close()
	l.states.Close()
}
