package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for goload components.
type Registry struct {
	// Loadable Metrics
	LoadsStarted   *prometheus.CounterVec
	LoadsSucceeded *prometheus.CounterVec
	LoadsFailed    *prometheus.CounterVec
	LoadsCanceled  *prometheus.CounterVec
	LoadDuration   *prometheus.HistogramVec

	// Decorator Metrics
	RetryAttempts      *prometheus.CounterVec
	DebounceSuppressed *prometheus.CounterVec
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	RefreshTicks       *prometheus.CounterVec

	// Token Bucket Metrics
	TokensAvailable *prometheus.GaugeVec
	TokenWaiters    *prometheus.GaugeVec
	TokenWaitTime   *prometheus.HistogramVec
}

// DefaultRegistry is the default metrics registry used by goload components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Loadable Metrics
		LoadsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goload",
				Subsystem: "loadable",
				Name:      "loads_started_total",
				Help:      "Total number of load attempts started",
			},
			[]string{"loader_name"},
		),

		LoadsSucceeded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goload",
				Subsystem: "loadable",
				Name:      "loads_succeeded_total",
				Help:      "Total number of loads that reached the loaded state",
			},
			[]string{"loader_name"},
		),

		LoadsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goload",
				Subsystem: "loadable",
				Name:      "loads_failed_total",
				Help:      "Total number of loads that reached the failure state",
			},
			[]string{"loader_name"},
		),

		LoadsCanceled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goload",
				Subsystem: "loadable",
				Name:      "loads_canceled_total",
				Help:      "Total number of cancellation requests",
			},
			[]string{"loader_name"},
		),

		LoadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "goload",
				Subsystem: "loadable",
				Name:      "load_duration_seconds",
				Help:      "Time from loading to a terminal state",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"loader_name"},
		),

		// Decorator Metrics
		RetryAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goload",
				Subsystem: "retry",
				Name:      "attempts_total",
				Help:      "Total number of retry attempts issued",
			},
			[]string{"loader_name"},
		),

		DebounceSuppressed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goload",
				Subsystem: "debounce",
				Name:      "suppressed_total",
				Help:      "Total number of load calls coalesced by debouncing",
			},
			[]string{"loader_name"},
		),

		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goload",
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Total number of loads served from the cache store",
			},
			[]string{"loader_name"},
		),

		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goload",
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Total number of loads that fell through to the fetch",
			},
			[]string{"loader_name"},
		),

		RefreshTicks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goload",
				Subsystem: "refresh",
				Name:      "ticks_total",
				Help:      "Total number of scheduled refresh activations",
			},
			[]string{"loader_name"},
		),

		// Token Bucket Metrics
		TokensAvailable: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "goload",
				Subsystem: "tokenbucket",
				Name:      "tokens_available",
				Help:      "Number of tokens currently available",
			},
			[]string{"bucket_name"},
		),

		TokenWaiters: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "goload",
				Subsystem: "tokenbucket",
				Name:      "waiters",
				Help:      "Number of goroutines queued for a token",
			},
			[]string{"bucket_name"},
		),

		TokenWaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "goload",
				Subsystem: "tokenbucket",
				Name:      "wait_duration_seconds",
				Help:      "Time spent waiting for a token",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"bucket_name"},
		),
	}
}
