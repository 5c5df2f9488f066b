package debounce

import (
	"context"
	"sync"
	"time"

	"github.com/vnykmshr/goload/pkg/common/validation"
	"github.com/vnykmshr/goload/pkg/loadable"
	"github.com/vnykmshr/goload/pkg/metrics"
	"github.com/vnykmshr/goload/pkg/relay"
)

// Config holds configuration options for creating a debouncing Loader.
type Config struct {
	// Interval is the quiet period that must elapse before a pending
	// load executes. Must be positive.
	Interval time.Duration

	// ExecuteFirstImmediately executes the first call in a quiet
	// period right away and debounces only the calls that follow
	// within Interval.
	ExecuteFirstImmediately bool

	// Name labels this loader in metrics. Defaults to "default".
	Name string

	// Metrics configures suppressed-call counting. Disabled by default.
	Metrics metrics.Config
}

// Loader decorates a Loadable by debouncing Load calls.
type Loader[V any] struct {
	wrapped loadable.Loadable[V]
	cfg     Config
	states  *relay.Relay[loadable.State[V]]
	mon     loadable.Monitor[V]

	registry *metrics.Registry // nil when metrics are disabled

	mu       sync.Mutex
	timer    *time.Timer
	lastExec time.Time
	canceled bool
}

// New creates a debouncing Loader with the given quiet interval.
func New[V any](wrapped loadable.Loadable[V], interval time.Duration) (*Loader[V], error) {
	return NewWithConfig(wrapped, Config{Interval: interval})
}

// NewWithConfig creates a debouncing Loader from a Config.
func NewWithConfig[V any](wrapped loadable.Loadable[V], cfg Config) (*Loader[V], error) {
	if wrapped == nil {
		return nil, validation.ValidateNotNil("debounce", "wrapped", nil)
	}
	if err := validation.ValidatePositiveDuration("debounce", "interval", cfg.Interval); err != nil {
		return nil, err
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

// Load requests a load. Calls arriving within Interval of each other
// collapse into a single wrapped invocation; with
// ExecuteFirstImmediately the first call in a quiet period runs now.
func (l *Loader[V]) Load(ctx context.Context) {
	l.mu.Lock()
	if l.canceled {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	// Subscribe before any wrapped Load so no transition is lost.
	l.mon.Start(l.wrapped, l.forward)

	l.mu.Lock()
	now := time.Now()
	if l.cfg.ExecuteFirstImmediately && now.Sub(l.lastExec) >= l.cfg.Interval {
		l.lastExec = now
		l.mu.Unlock()
		l.wrapped.Load(ctx)
		return
	}

	// Supersede any pending execution and start the quiet period over.
	if l.timer != nil {
		l.timer.Stop()
		if l.registry != nil {
			l.registry.DebounceSuppressed.WithLabelValues(l.cfg.Name).Inc()
		}
	}
	// The quiet period may outlive the caller; the deferred execution
	// keeps the context's values but not its cancellation.
	deferred := context.WithoutCancel(ctx)
	l.timer = time.AfterFunc(l.cfg.Interval, func() {
		l.mu.Lock()
		if l.canceled {
			l.mu.Unlock()
			return
		}
		l.lastExec = time.Now()
		l.mu.Unlock()
		l.wrapped.Load(deferred)
	})
	l.mu.Unlock()
}

// forward relays each wrapped state into the decorator's own stream.
func (l *Loader[V]) forward(_ context.Context, state loadable.State[V]) {
	l.states.Update(state)
}

// Cancel requests cooperative termination: any pending debounce timer
// is discarded and the wrapped Loadable is canceled. Idempotent.
func (l *Loader[V]) Cancel() {
	l.mu.Lock()
	if l.canceled {
		l.mu.Unlock()
		return
	}
	l.canceled = true
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.mu.Unlock()

	l.wrapped.Cancel()
}

// Reset discards any pending timer and the cool-down, clears
// cancellation, and resets the wrapped Loadable.
func (l *Loader[V]) Reset() {
	l.mu.Lock()
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.lastExec = time.Time{}
	l.canceled = false
	l.mu.Unlock()

	l.mon.Stop()
	l.wrapped.Reset()
	l.states.Update(loadable.Idle[V]())
}

// Close tears down the decorator and the wrapped Loadable.
func (l *Loader[V]) Close() {
	l.mu.Lock()
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.mu.Unlock()

	l.mon.Stop()
	l.wrapped.Close()
	l.states.Close()
}
