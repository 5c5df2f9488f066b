package tokenbucket

import (
	"context"
	"sync"

	"github.com/eapache/queue"

	"github.com/vnykmshr/goload/pkg/common/validation"
)

// Bucket is a counting semaphore with FIFO wakeup. Acquisition parks
// the calling goroutine instead of blocking a thread, and honors
// context cancellation while queued.
type Bucket interface {
	// Acquire takes one token, waiting in FIFO order if none are
	// available. It returns an error if ctx is canceled or its
	// deadline passes before a token is granted; in that case no
	// token was consumed.
	Acquire(ctx context.Context) error

	// TryAcquire takes one token if immediately available. It does
	// not wait.
	TryAcquire() bool

	// Release returns one token. If waiters are queued, the token is
	// handed to the oldest live waiter instead of being banked.
	// It panics if more tokens are released than were acquired.
	Release()

	// WithToken acquires a token, runs work, and releases the token
	// exactly once regardless of how work exits, including panics.
	WithToken(ctx context.Context, work func() error) error

	// Capacity returns the total number of tokens.
	Capacity() int

	// Tokens returns the number of tokens currently available.
	Tokens() int

	// Waiting returns the number of goroutines queued for a token.
	Waiting() int
}

// tokenBucket implements Bucket. The token count and waiter queue are
// the only shared state; both are guarded by mu.
type tokenBucket struct {
	mu       sync.Mutex
	capacity int
	tokens   int
	waiters  *queue.Queue // of *waiter, FIFO
}

// waiter represents one goroutine parked in Acquire.
type waiter struct {
	ready     chan struct{} // closed when a token is handed over
	abandoned bool          // set under the bucket mutex on cancellation
}

// New creates a Bucket with the given capacity. Capacity must be
// positive.
func New(capacity int) (Bucket, error) {
	if err := validation.ValidatePositive("tokenbucket", "capacity", capacity); err != nil {
		return nil, err
	}

	return &tokenBucket{
		capacity: capacity,
		tokens:   capacity,
		waiters:  queue.New(),
	}, nil
}

// Acquire takes one token, queuing in FIFO order when none are available.
func (b *tokenBucket) Acquire(ctx context.Context) error {
	// Check if context is already canceled
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	b.mu.Lock()
	b.purgeAbandonedLocked()

	// Fast path: token available and nobody queued ahead of us.
	if b.tokens > 0 && b.waiters.Length() == 0 {
		b.tokens--
		b.mu.Unlock()
		return nil
	}

	// Slow path: join the queue.
	w := &waiter{ready: make(chan struct{})}
	b.waiters.Add(w)
	b.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		b.mu.Lock()
		select {
		case <-w.ready:
			// A token was handed over concurrently with cancellation.
			// Give it back so the count stays consistent.
			b.mu.Unlock()
			b.Release()
		default:
			w.abandoned = true
			b.purgeAbandonedLocked()
			b.mu.Unlock()
		}
		return ctx.Err()
	}
}

// TryAcquire takes one token if immediately available.
func (b *tokenBucket) TryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.purgeAbandonedLocked()

	if b.tokens > 0 && b.waiters.Length() == 0 {
		b.tokens--
		return true
	}
	return false
}

// purgeAbandonedLocked drops abandoned waiters from the head of the
// queue so they cannot starve the fast path. Must be called with
// b.mu held.
func (b *tokenBucket) purgeAbandonedLocked() {
	for b.waiters.Length() > 0 && b.waiters.Peek().(*waiter).abandoned {
		b.waiters.Remove()
	}
}

// Release returns one token, waking the oldest live waiter if any.
func (b *tokenBucket) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Hand the token to the oldest waiter that has not abandoned its
	// place. Abandoned waiters are discarded without a token.
	for b.waiters.Length() > 0 {
		w := b.waiters.Remove().(*waiter)
		if w.abandoned {
			continue
		}
		close(w.ready)
		return
	}

	if b.tokens >= b.capacity {
		panic("tokenbucket: released more tokens than acquired")
	}
	b.tokens++
}

// WithToken acquires a token, runs work, and releases exactly once.
func (b *tokenBucket) WithToken(ctx context.Context, work func() error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()
	return work()
}

// Capacity returns the total number of tokens.
func (b *tokenBucket) Capacity() int {
	return b.capacity
}

// Tokens returns the number of tokens currently available.
func (b *tokenBucket) Tokens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens
}

// Waiting returns the number of queued waiters, including any that
// have been abandoned but not yet discarded.
func (b *tokenBucket) Waiting() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for i := 0; i < b.waiters.Length(); i++ {
		if !b.waiters.Get(i).(*waiter).abandoned {
			n++
		}
	}
	return n
}
