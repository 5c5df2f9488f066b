package cache

import (
	"context"
	"sync"

	"github.com/vnykmshr/goload/pkg/common/validation"
	"github.com/vnykmshr/goload/pkg/loadable"
	"github.com/vnykmshr/goload/pkg/metrics"
	"github.com/vnykmshr/goload/pkg/relay"
)

// Config holds configuration options for creating a caching Loader.
type Config[V any] struct {
	// Key identifies this loader's value in the store. Required.
	Key string

	// Store holds cached values. Required.
	Store Store[V]

	// OnWriteError, when set, is invoked with any error from the
	// write-through Set. Write failures never surface as failure
	// states; the loaded value has already been published.
	OnWriteError func(error)

	// Name labels this loader in metrics. Defaults to "default".
	Name string

	// Metrics configures hit and miss counting. Disabled by default.
	Metrics metrics.Config
}

// Loader decorates a Loadable with read-through, write-through
// caching.
type Loader[V any] struct {
	wrapped loadable.Loadable[V]
	cfg     Config[V]
	states  *relay.Relay[loadable.State[V]]
	mon     loadable.Monitor[V]

	registry *metrics.Registry // nil when metrics are disabled

	mu       sync.Mutex
	canceled bool
}

// New creates a caching Loader for the given key and store.
func New[V any](wrapped loadable.Loadable[V], key string, store Store[V]) (*Loader[V], error) {
	return NewWithConfig(wrapped, Config[V]{Key: key, Store: store})
}

// NewWithConfig creates a caching Loader from a Config.
func NewWithConfig[V any](wrapped loadable.Loadable[V], cfg Config[V]) (*Loader[V], error) {
	if wrapped == nil {
		return nil, validation.ValidateNotNil("cache", "wrapped", nil)
	}
	if err := validation.ValidateNotEmpty("cache", "key", cfg.Key); err != nil {
		return nil, err
	}
	if cfg.Store == nil {
		return nil, validation.ValidateNotNil("cache", "store", nil)
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}

	return &Loader[V]{
		wrapped:  wrapped,
		cfg:      cfg,
		states:   relay.New(loadable.Idle[V]()),
		registry: cfg.Metrics.Resolve(),
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

// Load serves the value from the store when present, invoking the
// wrapped Loadable only on a miss. Store read errors count as misses.
// Re-entrant calls while loading or after a successful load are
// no-ops, mirroring the wrapped state machine.
func (l *Loader[V]) Load(ctx context.Context) {
	l.mu.Lock()
	kind := l.states.Current().Kind()
	if l.canceled || kind == loadable.KindLoading || kind == loadable.KindLoaded {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	if value, ok, err := l.cfg.Store.Get(ctx, l.cfg.Key); err == nil && ok {
		if l.registry != nil {
			l.registry.CacheHits.WithLabelValues(l.cfg.Name).Inc()
		}
		l.mu.Lock()
		if !l.canceled {
			l.states.Update(loadable.Loading[V](nil))
			l.states.Update(loadable.Loaded(value))
		}
		l.mu.Unlock()
		return
	}

	if l.registry != nil {
		l.registry.CacheMisses.WithLabelValues(l.cfg.Name).Inc()
	}

	// Subscribe before any wrapped Load so no transition is lost.
	l.mon.Start(l.wrapped, l.forward)
	l.wrapped.Load(ctx)
}

// forward relays each wrapped state and writes loaded values back to
// the store. It runs on the monitoring goroutine.
func (l *Loader[V]) forward(ctx context.Context, state loadable.State[V]) {
	l.states.Update(state)

	if state.Kind() != loadable.KindLoaded {
		return
	}
	if value, ok := state.Value(); ok {
		// A write failure leaves the cache cold; the value itself has
		// already been published.
		if err := l.cfg.Store.Set(ctx, l.cfg.Key, value); err != nil && l.cfg.OnWriteError != nil {
			l.cfg.OnWriteError(err)
		}
	}
}

// Cancel requests cooperative termination of the wrapped Loadable.
// Idempotent.
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

// Reset returns to idle and resets the wrapped Loadable. The store is
// untouched: a following Load may still be served from cache.
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
