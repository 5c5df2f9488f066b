package loadable

import (
	"context"

	"github.com/vnykmshr/goload/pkg/relay"
)

// Loadable is the capability contract for an observable, cancelable,
// resettable asynchronous producer of a value. Every node in a
// decorator chain implements it: the base loader and each decorator
// wrapping it.
//
// Load never returns an error; success and failure are both reported
// through the state stream, which is the single channel of truth.
type Loadable[V any] interface {
	// Subscribe returns an independent view of the state stream. The
	// current state is replayed immediately; subsequent states arrive
	// in publication order with keep-newest coalescing. The stream
	// never errors and ends only when the Loadable is closed.
	Subscribe() *relay.Subscription[State[V]]

	// CurrentState returns the latest state without subscribing.
	CurrentState() State[V]

	// IsCanceled reports whether cancellation has been requested.
	IsCanceled() bool

	// Load begins one load attempt, blocking until the attempt (or
	// this decorator's part in it) completes. It is a no-op while a
	// load is in flight, after a successful load, or after
	// cancellation.
	Load(ctx context.Context)

	// Cancel requests cooperative termination of in-flight work.
	// Idempotent: canceling an already-canceled Loadable does nothing
	// and publishes nothing.
	Cancel()

	// Reset returns the Loadable to idle, clears the cancellation
	// flag, and discards decorator-local bookkeeping (attempt
	// counters, timers, monitors) so the next Load behaves like the
	// first ever call.
	Reset()

	// Close tears the Loadable down: background work is stopped and
	// all subscriber channels are closed. A closed Loadable must not
	// be used again.
	Close()
}
