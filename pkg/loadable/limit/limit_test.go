package limit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/goload/internal/testutil"
	glerrors "github.com/vnykmshr/goload/pkg/common/errors"
	"github.com/vnykmshr/goload/pkg/loadable"
	"github.com/vnykmshr/goload/pkg/relay"
	"github.com/vnykmshr/goload/pkg/tokenbucket"
)

// concurrentLoadable runs every Load call, unlike Base whose loading
// guard serializes attempts, so the decorator's bound is observable.
type concurrentLoadable struct {
	states   *relay.Relay[loadable.State[string]]
	inflight int64
	peak     int64
	total    int64
	hold     time.Duration
	canceled atomic.Bool
}

func newConcurrentLoadable(hold time.Duration) *concurrentLoadable {
	return &concurrentLoadable{
		states: relay.New(loadable.Idle[string]()),
		hold:   hold,
	}
}

func (c *concurrentLoadable) Subscribe() *relay.Subscription[loadable.State[string]] {
	return c.states.Subscribe()
}

func (c *concurrentLoadable) CurrentState() loadable.State[string] {
	return c.states.Current()
}

func (c *concurrentLoadable) IsCanceled() bool { return c.canceled.Load() }

func (c *concurrentLoadable) Load(_ context.Context) {
	n := atomic.AddInt64(&c.inflight, 1)
	for {
		p := atomic.LoadInt64(&c.peak)
		if n <= p || atomic.CompareAndSwapInt64(&c.peak, p, n) {
			break
		}
	}
	time.Sleep(c.hold)
	atomic.AddInt64(&c.inflight, -1)
	atomic.AddInt64(&c.total, 1)
	c.states.Update(loadable.Loaded("done"))
}

func (c *concurrentLoadable) Cancel() { c.canceled.Store(true) }

func (c *concurrentLoadable) Reset() {
	c.canceled.Store(false)
	c.states.Update(loadable.Idle[string]())
}

func (c *concurrentLoadable) Close() { c.states.Close() }

func TestNewValidation(t *testing.T) {
	base, err := loadable.NewBase(func(_ context.Context, _ func(loadable.Progress)) (string, error) {
		return "ok", nil
	})
	testutil.AssertNoError(t, err)

	tests := []struct {
		name      string
		wrapped   loadable.Loadable[string]
		cfg       Config
		wantError bool
	}{
		{"valid", base, Config{Limit: 2}, false},
		{"zero limit", base, Config{}, true},
		{"negative limit", base, Config{Limit: -1}, true},
		{"nil wrapped", nil, Config{Limit: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, err := NewWithConfig(tt.wrapped, tt.cfg)
			if tt.wantError {
				testutil.AssertError(t, err)
				if !glerrors.IsValidationError(err) {
					t.Error("expected a ValidationError")
				}
				if loader != nil {
					t.Error("expected nil loader on error")
				}
			} else {
				testutil.AssertNoError(t, err)
			}
		})
	}
}

func TestConcurrencyNeverExceedsLimit(t *testing.T) {
	const limit = 3
	const callers = 2 * limit

	wrapped := newConcurrentLoadable(30 * time.Millisecond)
	loader, err := New[string](wrapped, limit)
	testutil.AssertNoError(t, err)
	defer loader.Close()

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loader.Load(context.Background())
		}()
	}
	wg.Wait()

	testutil.AssertEqual(t, atomic.LoadInt64(&wrapped.total), int64(callers))
	if peak := atomic.LoadInt64(&wrapped.peak); peak > limit {
		t.Errorf("observed %d concurrent loads, limit is %d", peak, limit)
	}

	// Every token came back.
	testutil.AssertEqual(t, loader.Bucket().Tokens(), limit)
	testutil.AssertEqual(t, loader.Bucket().Waiting(), 0)
}

func TestQueuedCallerCancellationPublishesFailure(t *testing.T) {
	wrapped := newConcurrentLoadable(200 * time.Millisecond)
	loader, err := New[string](wrapped, 1)
	testutil.AssertNoError(t, err)
	defer loader.Close()

	// Saturate the single token.
	go loader.Load(context.Background())
	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return atomic.LoadInt64(&wrapped.inflight) == 1
	}, "first load should be running")

	// Queue a second caller, then abandon it.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loader.Load(ctx)
		close(done)
	}()
	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return loader.Bucket().Waiting() == 1
	}, "second caller should queue")

	cancel()
	testutil.AwaitClosed(t, done, "abandoned caller should return")

	state := loader.CurrentState()
	testutil.AssertEqual(t, state.Kind(), loadable.KindFailure)
	if !errors.Is(state.Err(), glerrors.ErrTokenUnavailable) {
		t.Errorf("expected ErrTokenUnavailable, got %v", state.Err())
	}

	// The abandoned caller consumed no token.
	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return loader.Bucket().Tokens() == 1
	}, "token should return after the first load finishes")
	testutil.AssertEqual(t, atomic.LoadInt64(&wrapped.total), int64(1))
}

func TestSharedBucketBoundsTwoLoaders(t *testing.T) {
	bucket, err := tokenbucket.New(1)
	testutil.AssertNoError(t, err)

	a := newConcurrentLoadable(40 * time.Millisecond)
	b := newConcurrentLoadable(40 * time.Millisecond)

	loaderA, err := NewWithConfig[string](a, Config{Limit: 1, Bucket: bucket})
	testutil.AssertNoError(t, err)
	defer loaderA.Close()

	loaderB, err := NewWithConfig[string](b, Config{Limit: 1, Bucket: bucket})
	testutil.AssertNoError(t, err)
	defer loaderB.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); loaderA.Load(context.Background()) }()
	go func() { defer wg.Done(); loaderB.Load(context.Background()) }()
	wg.Wait()

	if atomic.LoadInt64(&a.peak)+atomic.LoadInt64(&b.peak) > 2 {
		t.Error("shared bucket should serialize the two loads")
	}
	testutil.AssertEqual(t, bucket.Tokens(), 1)
}

func TestStatesFlowThrough(t *testing.T) {
	base, err := loadable.NewBase(func(_ context.Context, _ func(loadable.Progress)) (string, error) {
		return "fetched", nil
	})
	testutil.AssertNoError(t, err)

	loader, err := New[string](base, 2)
	testutil.AssertNoError(t, err)
	defer loader.Close()

	loader.Load(context.Background())

	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return loader.CurrentState().Kind() == loadable.KindLoaded
	}, "load should complete")

	v, _ := loader.CurrentState().Value()
	testutil.AssertEqual(t, v, "fetched")
}

func TestCancelDrainsQueuedCallersSilently(t *testing.T) {
	wrapped := newConcurrentLoadable(100 * time.Millisecond)
	loader, err := New[string](wrapped, 1)
	testutil.AssertNoError(t, err)
	defer loader.Close()

	go loader.Load(context.Background())
	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return atomic.LoadInt64(&wrapped.inflight) == 1
	}, "first load should be running")

	done := make(chan struct{})
	go func() {
		loader.Load(context.Background())
		close(done)
	}()
	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return loader.Bucket().Waiting() == 1
	}, "second caller should queue")

	loader.Cancel()
	loader.Cancel() // idempotent
	testutil.AssertEqual(t, loader.IsCanceled(), true)
	testutil.AssertEqual(t, wrapped.IsCanceled(), true)

	// The queued caller gets its token once the first load finishes,
	// sees the cancellation, and returns without invoking the wrapped
	// loadable again.
	testutil.AwaitClosed(t, done, "queued caller should drain after cancel")
	testutil.AssertEqual(t, atomic.LoadInt64(&wrapped.total), int64(1))

	// Load after cancel is a no-op.
	loader.Load(context.Background())
	testutil.AssertEqual(t, atomic.LoadInt64(&wrapped.total), int64(1))
}

func TestResetRestoresLoading(t *testing.T) {
	wrapped := newConcurrentLoadable(time.Millisecond)
	loader, err := New[string](wrapped, 2)
	testutil.AssertNoError(t, err)
	defer loader.Close()

	loader.Load(context.Background())
	loader.Cancel()

	loader.Reset()
	testutil.AssertEqual(t, loader.IsCanceled(), false)
	testutil.AssertEqual(t, loader.CurrentState().Kind(), loadable.KindIdle)

	loader.Load(context.Background())
	testutil.AssertEqual(t, atomic.LoadInt64(&wrapped.total), int64(2))
}
