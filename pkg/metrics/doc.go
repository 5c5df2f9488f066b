/*
Package metrics provides Prometheus instrumentation for goload
components.

All metrics live in a Registry built with promauto under the "goload"
namespace, with one subsystem per component (loadable, retry, debounce,
cache, refresh, tokenbucket). Components accept a metrics.Config; when
metrics are disabled the component carries no instrumentation overhead.

Basic usage:

	registry := prometheus.NewRegistry()
	cfg := metrics.Config{Enabled: true, Registry: registry}

	loader := loadable.NewMetricsLoadable(base, "articles", cfg)
	bucket, err := tokenbucket.NewWithMetrics(4, "fetch-pool", cfg)

The package-level DefaultRegistry registers against
prometheus.DefaultRegisterer at init time.
*/
package metrics
