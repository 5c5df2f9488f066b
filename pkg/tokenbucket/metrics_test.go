package tokenbucket

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/goload/internal/testutil"
	"github.com/vnykmshr/goload/pkg/metrics"
)

func TestNewWithMetricsValidation(t *testing.T) {
	_, err := NewWithMetrics(0, "pool", metrics.Config{})
	testutil.AssertError(t, err)
}

func TestNewWithMetricsDisabledReturnsPlainBucket(t *testing.T) {
	bucket, err := NewWithMetrics(2, "pool", metrics.Config{})
	testutil.AssertNoError(t, err)

	if _, ok := bucket.(*MetricsBucket); ok {
		t.Fatal("disabled metrics should return the plain bucket")
	}
	testutil.AssertEqual(t, bucket.Capacity(), 2)
}

func TestMetricsBucketTracksTokens(t *testing.T) {
	cfg := metrics.Config{Enabled: true, Registry: prometheus.NewRegistry()}
	registry := cfg.Resolve()

	bucket, err := NewWithMetrics(2, "pool", cfg)
	testutil.AssertNoError(t, err)

	available := registry.TokensAvailable.WithLabelValues("pool")
	testutil.AssertEqual(t, promtestutil.ToFloat64(available), 2)

	testutil.AssertNoError(t, bucket.Acquire(context.Background()))
	testutil.AssertEqual(t, promtestutil.ToFloat64(available), 1)

	testutil.AssertEqual(t, bucket.TryAcquire(), true)
	testutil.AssertEqual(t, promtestutil.ToFloat64(available), 0)
	testutil.AssertEqual(t, bucket.TryAcquire(), false)

	bucket.Release()
	bucket.Release()
	testutil.AssertEqual(t, promtestutil.ToFloat64(available), 2)
	testutil.AssertEqual(t, promtestutil.ToFloat64(registry.TokenWaiters.WithLabelValues("pool")), 0)
}

func TestMetricsBucketWithToken(t *testing.T) {
	cfg := metrics.Config{Enabled: true, Registry: prometheus.NewRegistry()}
	registry := cfg.Resolve()

	bucket, err := NewWithMetrics(1, "pool", cfg)
	testutil.AssertNoError(t, err)

	err = bucket.WithToken(context.Background(), func() error {
		testutil.AssertEqual(t, bucket.Tokens(), 0)
		return nil
	})
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, promtestutil.ToFloat64(registry.TokensAvailable.WithLabelValues("pool")), 1)
	if promtestutil.CollectAndCount(registry.TokenWaitTime) == 0 {
		t.Error("acquiring a token should observe a wait duration")
	}
}
