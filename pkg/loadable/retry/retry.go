package retry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vnykmshr/goload/pkg/common/validation"
	"github.com/vnykmshr/goload/pkg/loadable"
	"github.com/vnykmshr/goload/pkg/metrics"
	"github.com/vnykmshr/goload/pkg/relay"
)

// Config holds configuration options for creating a retry Loader.
type Config struct {
	// MaxAttempts is the total number of attempts, counting the
	// initial try. Must be positive.
	MaxAttempts int

	// InitialBackoff is the delay before the second retry; each
	// further retry doubles it. The first retry always fires
	// immediately. Defaults to one second.
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between retries. Zero means no cap.
	MaxBackoff time.Duration

	// Name labels this loader in metrics. Defaults to "default".
	Name string

	// Metrics configures retry attempt counting. Disabled by default.
	Metrics metrics.Config
}

// Loader decorates a Loadable with retry-on-failure behavior.
type Loader[V any] struct {
	wrapped loadable.Loadable[V]
	cfg     Config
	states  *relay.Relay[loadable.State[V]]
	mon     loadable.Monitor[V]

	registry *metrics.Registry // nil when metrics are disabled

	mu       sync.Mutex
	attempt  int
	canceled bool
}

// New creates a retry Loader allowing maxAttempts total attempts.
func New[V any](wrapped loadable.Loadable[V], maxAttempts int) (*Loader[V], error) {
	return NewWithConfig(wrapped, Config{MaxAttempts: maxAttempts})
}

// NewWithConfig creates a retry Loader with custom backoff settings.
func NewWithConfig[V any](wrapped loadable.Loadable[V], cfg Config) (*Loader[V], error) {
	if wrapped == nil {
		return nil, validation.ValidateNotNil("retry", "wrapped", nil)
	}
	if err := validation.ValidatePositive("retry", "maxAttempts", cfg.MaxAttempts); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegativeDuration("retry", "initialBackoff", cfg.InitialBackoff); err != nil {
		return nil, err
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}

	return &Loader[V]{
		wrapped:  wrapped,
		cfg:      cfg,
		states:   relay.New(loadable.Idle[V]()),
		registry: cfg.Metrics.Resolve(),
		attempt:  1,
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

// Load starts the monitoring loop if needed and issues the initial
// attempt on the wrapped Loadable. Retries run on the monitoring loop.
func (l *Loader[V]) Load(ctx context.Context) {
	l.mu.Lock()
	if l.canceled {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	// Subscribe before the first wrapped Load so no transition is lost.
	l.mon.Start(l.wrapped, l.forward)
	l.wrapped.Load(ctx)
}

// forward relays each wrapped state and schedules retries on failure.
// It runs on the monitoring goroutine; retry attempts are therefore
// strictly sequential and never overlap.
func (l *Loader[V]) forward(ctx context.Context, state loadable.State[V]) {
	l.states.Update(state)

	if state.Kind() != loadable.KindFailure {
		return
	}

	l.mu.Lock()
	if l.canceled || l.attempt >= l.cfg.MaxAttempts {
		// Terminal failure: keep forwarding, stop retrying.
		l.mu.Unlock()
		return
	}
	l.attempt++
	attempt := l.attempt
	l.mu.Unlock()

	if l.registry != nil {
		l.registry.RetryAttempts.WithLabelValues(l.cfg.Name).Inc()
	}

	msg := fmt.Sprintf("retrying, attempt %d of %d", attempt, l.cfg.MaxAttempts)
	l.states.Update(loadable.Loading[V](loadable.NewProgress(loadable.WithMessage(msg))))

	if !sleep(ctx, l.backoffFor(attempt)) {
		return
	}

	l.mu.Lock()
	canceled := l.canceled
	l.mu.Unlock()
	if canceled {
		return
	}

	// Re-invoke without resetting: wrapped loader-local state, such as
	// a flakiness counter, must survive across attempts.
	l.wrapped.Load(ctx)
}

// backoffFor returns the delay before the given attempt. The first
// retry is immediate; later retries double from InitialBackoff.
func (l *Loader[V]) backoffFor(attempt int) time.Duration {
	if attempt <= 2 {
		return 0
	}
	d := l.cfg.InitialBackoff << (attempt - 3)
	if l.cfg.MaxBackoff > 0 && d > l.cfg.MaxBackoff {
		d = l.cfg.MaxBackoff
	}
	return d
}

// Cancel requests cooperative termination: the wrapped Loadable is
// canceled and no further retries are issued. Idempotent.
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

// Reset discards the monitoring loop, restarts the attempt count at
// one, clears cancellation, and resets the wrapped Loadable, so the
// next Load behaves like the first ever call.
func (l *Loader[V]) Reset() {
	l.mon.Stop()

	l.mu.Lock()
	l.attempt = 1
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

// sleep waits for d, returning false if ctx is done first. A zero
// duration returns immediately.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
