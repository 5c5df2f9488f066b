/*
Package tokenbucket provides a counting semaphore with context-based
acquisition and strict FIFO wakeup.

A Bucket holds a fixed number of tokens. Acquire takes a token,
parking the calling goroutine on a channel when none are available;
no OS thread is blocked while waiting. Release hands the token
directly to the oldest live waiter, so capacity is granted in arrival
order rather than by scheduler luck.

Basic usage:

	bucket, err := tokenbucket.New(4)
	if err != nil {
		log.Fatal(err)
	}

	err = bucket.WithToken(ctx, func() error {
		return doBoundedWork(ctx)
	})

WithToken releases the token exactly once on every exit path,
including panics. A waiter whose context is canceled abandons its
place in the queue without ever having consumed a token.

Fairness:

Waiters are queued in a FIFO ring buffer. Release always considers the
oldest waiter first; a token is never handed to a newer waiter while
an older live one exists. This is an explicit guarantee, not an
accident of implementation.
*/
package tokenbucket
