package tokenbucket

import (
	"context"
	"time"

	"github.com/vnykmshr/goload/pkg/metrics"
)

// MetricsBucket wraps a Bucket with Prometheus metrics collection.
type MetricsBucket struct {
	bucket   Bucket
	name     string
	registry *metrics.Registry
}

// NewWithMetrics creates a Bucket with the given capacity that reports
// token availability, queue depth, and wait times. If metrics are
// disabled in the config, the plain bucket is returned.
func NewWithMetrics(capacity int, name string, cfg metrics.Config) (Bucket, error) {
	bucket, err := New(capacity)
	if err != nil {
		return nil, err
	}

	registry := cfg.Resolve()
	if registry == nil {
		return bucket, nil
	}

	mb := &MetricsBucket{
		bucket:   bucket,
		name:     name,
		registry: registry,
	}
	mb.updateGauges()
	return mb, nil
}

func (mb *MetricsBucket) updateGauges() {
	mb.registry.TokensAvailable.WithLabelValues(mb.name).Set(float64(mb.bucket.Tokens()))
	mb.registry.TokenWaiters.WithLabelValues(mb.name).Set(float64(mb.bucket.Waiting()))
}

// Acquire takes one token, recording the time spent waiting.
func (mb *MetricsBucket) Acquire(ctx context.Context) error {
	start := time.Now()
	mb.registry.TokenWaiters.WithLabelValues(mb.name).Inc()

	err := mb.bucket.Acquire(ctx)

	mb.registry.TokenWaiters.WithLabelValues(mb.name).Dec()
	mb.registry.TokenWaitTime.WithLabelValues(mb.name).Observe(time.Since(start).Seconds())
	mb.updateGauges()
	return err
}

// TryAcquire takes one token if immediately available.
func (mb *MetricsBucket) TryAcquire() bool {
	ok := mb.bucket.TryAcquire()
	mb.updateGauges()
	return ok
}

// Release returns one token.
func (mb *MetricsBucket) Release() {
	mb.bucket.Release()
	mb.updateGauges()
}

// WithToken acquires a token, runs work, and releases exactly once.
func (mb *MetricsBucket) WithToken(ctx context.Context, work func() error) error {
	if err := mb.Acquire(ctx); err != nil {
		return err
	}
	defer mb.Release()
	return work()
}

// Capacity returns the total number of tokens.
func (mb *MetricsBucket) Capacity() int {
	return mb.bucket.Capacity()
}

// Tokens returns the number of tokens currently available.
func (mb *MetricsBucket) Tokens() int {
	return mb.bucket.Tokens()
}

// Waiting returns the number of goroutines queued for a token.
func (mb *MetricsBucket) Waiting() int {
	return mb.bucket.Waiting()
}
