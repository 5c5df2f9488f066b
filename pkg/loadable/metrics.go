package loadable

import (
	"context"
	"time"

	"github.com/vnykmshr/goload/pkg/metrics"
	"github.com/vnykmshr/goload/pkg/relay"
)

// MetricsLoadable wraps any Loadable with Prometheus metrics
// collection. It observes the wrapped state stream on a dedicated
// subscription and counts transitions; all Loadable operations pass
// through unchanged.
type MetricsLoadable[V any] struct {
	wrapped  Loadable[V]
	name     string
	registry *metrics.Registry
	sub      *relay.Subscription[State[V]]
	done     chan struct{}
}

// NewMetricsLoadable wraps loadable with transition counters and a
// load-duration histogram under the given loader name. If metrics are
// disabled in the config, the wrapped Loadable is returned as is.
func NewMetricsLoadable[V any](wrapped Loadable[V], name string, cfg metrics.Config) Loadable[V] {
	registry := cfg.Resolve()
	if registry == nil {
		return wrapped
	}

	ml := &MetricsLoadable[V]{
		wrapped:  wrapped,
		name:     name,
		registry: registry,
		sub:      wrapped.Subscribe(),
		done:     make(chan struct{}),
	}
	go ml.observe()
	return ml
}

// observe counts state transitions. A very fast loading-to-terminal
// transition may coalesce on the observing queue; counters reflect
// observed states.
func (ml *MetricsLoadable[V]) observe() {
	defer close(ml.done)

	prev := KindIdle
	var loadingSince time.Time

	for state := range ml.sub.Updates() {
		kind := state.Kind()
		switch {
		case kind == KindLoading && prev != KindLoading:
			ml.registry.LoadsStarted.WithLabelValues(ml.name).Inc()
			loadingSince = time.Now()
		case kind == KindLoaded && prev != KindLoaded:
			ml.registry.LoadsSucceeded.WithLabelValues(ml.name).Inc()
			if !loadingSince.IsZero() {
				ml.registry.LoadDuration.WithLabelValues(ml.name).Observe(time.Since(loadingSince).Seconds())
			}
		case kind == KindFailure && prev != KindFailure:
			ml.registry.LoadsFailed.WithLabelValues(ml.name).Inc()
			if !loadingSince.IsZero() {
				ml.registry.LoadDuration.WithLabelValues(ml.name).Observe(time.Since(loadingSince).Seconds())
			}
		}
		prev = kind
	}
}

// Subscribe returns an independent view of the wrapped state stream.
func (ml *MetricsLoadable[V]) Subscribe() *relay.Subscription[State[V]] {
	return ml.wrapped.Subscribe()
}

// CurrentState returns the wrapped Loadable's latest state.
func (ml *MetricsLoadable[V]) CurrentState() State[V] {
	return ml.wrapped.CurrentState()
}

// IsCanceled reports whether cancellation has been requested.
func (ml *MetricsLoadable[V]) IsCanceled() bool {
	return ml.wrapped.IsCanceled()
}

// Load begins one load attempt on the wrapped Loadable.
func (ml *MetricsLoadable[V]) Load(ctx context.Context) {
	ml.wrapped.Load(ctx)
}

// Cancel forwards cancellation, counting the first request.
func (ml *MetricsLoadable[V]) Cancel() {
	if !ml.wrapped.IsCanceled() {
		ml.registry.LoadsCanceled.WithLabelValues(ml.name).Inc()
	}
	ml.wrapped.Cancel()
}

// Reset forwards to the wrapped Loadable.
func (ml *MetricsLoadable[V]) Reset() {
	ml.wrapped.Reset()
}

// Close stops the observer and closes the wrapped Loadable.
func (ml *MetricsLoadable[V]) Close() {
	ml.wrapped.Close()
	<-ml.done
}
