package loadable

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/goload/internal/testutil"
	"github.com/vnykmshr/goload/pkg/metrics"
)

func isolatedMetrics(t *testing.T) (metrics.Config, *metrics.Registry) {
	t.Helper()
	cfg := metrics.Config{Enabled: true, Registry: prometheus.NewRegistry()}
	return cfg, cfg.Resolve()
}

func TestMetricsLoadableDisabledReturnsWrapped(t *testing.T) {
	base, err := NewBase(func(_ context.Context, _ func(Progress)) (string, error) {
		return "value", nil
	})
	testutil.AssertNoError(t, err)
	defer base.Close()

	wrapped := NewMetricsLoadable[string](base, "articles", metrics.Config{})
	if wrapped != Loadable[string](base) {
		t.Fatal("disabled metrics should return the wrapped Loadable unchanged")
	}
}

func TestMetricsLoadableCountsSuccess(t *testing.T) {
	cfg, registry := isolatedMetrics(t)

	release := make(chan struct{})
	base, err := NewBase(func(_ context.Context, _ func(Progress)) (string, error) {
		<-release
		return "value", nil
	})
	testutil.AssertNoError(t, err)

	loader := NewMetricsLoadable[string](base, "articles", cfg)
	go loader.Load(context.Background())

	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return promtestutil.ToFloat64(registry.LoadsStarted.WithLabelValues("articles")) == 1
	}, "entering the loading state should count a started load")

	close(release)
	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return promtestutil.ToFloat64(registry.LoadsSucceeded.WithLabelValues("articles")) == 1
	}, "reaching the loaded state should count a success")

	loader.Close()
	testutil.AssertEqual(t, promtestutil.ToFloat64(registry.LoadsFailed.WithLabelValues("articles")), 0)
	if promtestutil.CollectAndCount(registry.LoadDuration) == 0 {
		t.Error("a completed load should observe its duration")
	}
}

func TestMetricsLoadableCountsFailure(t *testing.T) {
	cfg, registry := isolatedMetrics(t)

	release := make(chan struct{})
	base, err := NewBase(func(_ context.Context, _ func(Progress)) (string, error) {
		<-release
		return "", errors.New("fetch failed")
	})
	testutil.AssertNoError(t, err)

	loader := NewMetricsLoadable[string](base, "articles", cfg)
	go loader.Load(context.Background())

	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return promtestutil.ToFloat64(registry.LoadsStarted.WithLabelValues("articles")) == 1
	}, "entering the loading state should count a started load")

	close(release)
	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return promtestutil.ToFloat64(registry.LoadsFailed.WithLabelValues("articles")) == 1
	}, "reaching the failure state should count a failed load")

	loader.Close()
	testutil.AssertEqual(t, promtestutil.ToFloat64(registry.LoadsSucceeded.WithLabelValues("articles")), 0)
}

func TestMetricsLoadableCountsCancelOnce(t *testing.T) {
	cfg, registry := isolatedMetrics(t)

	base, err := NewBase(func(_ context.Context, _ func(Progress)) (string, error) {
		return "value", nil
	})
	testutil.AssertNoError(t, err)

	loader := NewMetricsLoadable[string](base, "articles", cfg)
	defer loader.Close()

	loader.Cancel()
	loader.Cancel() // idempotent, not re-counted

	testutil.AssertEqual(t, promtestutil.ToFloat64(registry.LoadsCanceled.WithLabelValues("articles")), 1)
	testutil.AssertEqual(t, loader.IsCanceled(), true)
}
