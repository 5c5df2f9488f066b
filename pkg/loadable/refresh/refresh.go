package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	glerrors "github.com/vnykmshr/goload/pkg/common/errors"
	"github.com/vnykmshr/goload/pkg/common/validation"
	"github.com/vnykmshr/goload/pkg/loadable"
	"github.com/vnykmshr/goload/pkg/metrics"
	"github.com/vnykmshr/goload/pkg/relay"
)

// Config holds configuration options for creating a refreshing Loader.
// Exactly one of Schedule and Interval must be set.
type Config struct {
	// Schedule is a standard five-field cron expression, such as
	// "*/5 * * * *". Minute resolution.
	Schedule string

	// Interval refreshes at a fixed period. Must be positive when set.
	Interval time.Duration

	// Name labels this loader in metrics. Defaults to "default".
	Name string

	// Metrics configures refresh tick counting. Disabled by default.
	Metrics metrics.Config
}

// Loader decorates a Loadable with scheduled background refreshes.
type Loader[V any] struct {
	wrapped loadable.Loadable[V]
	cfg     Config
	sched   cron.Schedule // nil in interval mode
	states  *relay.Relay[loadable.State[V]]
	mon     loadable.Monitor[V]

	registry *metrics.Registry // nil when metrics are disabled

	mu       sync.Mutex
	cancelFn context.CancelFunc // non-nil while the refresher runs
	done     chan struct{}
	canceled bool
}

// New creates a Loader that refreshes at a fixed interval.
func New[V any](wrapped loadable.Loadable[V], interval time.Duration) (*Loader[V], error) {
	return NewWithConfig(wrapped, Config{Interval: interval})
}

// NewWithConfig creates a refreshing Loader from a Config.
func NewWithConfig[V any](wrapped loadable.Loadable[V], cfg Config) (*Loader[V], error) {
	if wrapped == nil {
		return nil, validation.ValidateNotNil("refresh", "wrapped", nil)
	}

	var sched cron.Schedule
	switch {
	case cfg.Schedule != "" && cfg.Interval != 0:
		return nil, glerrors.NewValidationError("refresh", "schedule", cfg.Schedule,
			"schedule and interval are mutually exclusive").
			WithHint("set exactly one of Schedule and Interval")
	case cfg.Schedule != "":
		var err error
		sched, err = cron.ParseStandard(cfg.Schedule)
		if err != nil {
			return nil, glerrors.NewValidationError("refresh", "schedule", cfg.Schedule,
				err.Error()).
				WithHint("use a five-field cron expression, such as */5 * * * *")
		}
	case cfg.Interval != 0:
		if err := validation.ValidatePositiveDuration("refresh", "interval", cfg.Interval); err != nil {
			return nil, err
		}
	default:
		return nil, glerrors.NewValidationError("refresh", "interval", cfg.Interval,
			"no schedule configured").
			WithHint("set exactly one of Schedule and Interval")
	}

	if cfg.Name == "" {
		cfg.Name = "default"
	}

	return &Loader[V]{
		wrapped:  wrapped,
		cfg:      cfg,
		sched:    sched,
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

// Load performs the initial load and starts the background refresher
// if it is not already running.
func (l *Loader[V]) Load(ctx context.Context) {
	l.mu.Lock()
	if l.canceled {
		l.mu.Unlock()
		return
	}
	if l.cancelFn == nil {
		// The refresher outlives the caller's ctx; it stops on
		// Cancel, Reset, or Close.
		rctx, cancel := context.WithCancel(context.Background())
		l.cancelFn = cancel
		l.done = make(chan struct{})
		go l.run(rctx, l.done)
	}
	l.mu.Unlock()

	// Subscribe before any wrapped Load so no transition is lost.
	l.mon.Start(l.wrapped, l.forward)
	l.wrapped.Load(ctx)
}

// run drives the refresh schedule until ctx is canceled.
func (l *Loader[V]) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		timer := time.NewTimer(l.nextDelay(time.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if l.IsCanceled() {
			return
		}
		if l.registry != nil {
			l.registry.RefreshTicks.WithLabelValues(l.cfg.Name).Inc()
		}

		// Reset first so the loaded guard does not swallow the reload.
		l.wrapped.Reset()
		l.wrapped.Load(ctx)
	}
}

// nextDelay returns the time until the next activation.
func (l *Loader[V]) nextDelay(now time.Time) time.Duration {
	if l.sched != nil {
		return l.sched.Next(now).Sub(now)
	}
	return l.cfg.Interval
}

// forward relays each wrapped state into the decorator's own stream.
func (l *Loader[V]) forward(_ context.Context, state loadable.State[V]) {
	l.states.Update(state)
}

// stopRefresher halts the background refresher and waits for it to
// exit. Safe to call when it is not running.
func (l *Loader[V]) stopRefresher() {
	l.mu.Lock()
	cancel := l.cancelFn
	done := l.done
	l.cancelFn = nil
	l.done = nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Cancel stops the refresher and cancels the wrapped Loadable.
// Idempotent.
func (l *Loader[V]) Cancel() {
	l.mu.Lock()
	if l.canceled {
		l.mu.Unlock()
		return
	}
	l.canceled = true
	l.mu.Unlock()

	l.stopRefresher()
	l.wrapped.Cancel()
}

// Reset stops the refresher, clears cancellation, and resets the
// wrapped Loadable. The next Load starts a fresh refresher.
func (l *Loader[V]) Reset() {
	l.stopRefresher()
	l.mon.Stop()

	l.mu.Lock()
	l.canceled = false
	l.mu.Unlock()

	l.wrapped.Reset()
	l.states.Update(loadable.Idle[V]())
}

// Close tears down the refresher, the decorator, and the wrapped
// Loadable.
func (l *Loader[V]) Close() {
	l.stopRefresher()
	l.mon.Stop()
	l.wrapped.Close()
	l.states.Close()
}
