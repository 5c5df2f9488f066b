/*
Package goload provides observable, cancelable, resettable asynchronous
loading for Go applications, built from a small state machine and a set
of composable decorators.

Core (pkg/loadable):
  - loadable: the Loadable contract, loading states, the base loader
  - retry: re-invoke a failed load with exponential backoff
  - debounce: coalesce bursts of load requests into one
  - limit: bound concurrent loads with a token bucket
  - cache: serve loads from a store (in-memory or Redis) before fetching
  - refresh: re-load periodically on an interval or cron schedule

Primitives:
  - relay: broadcast-with-replay of a single current value (pkg/relay)
  - tokenbucket: FIFO counting semaphore with context-based acquisition
    (pkg/tokenbucket)

Example usage:

	import (
		"github.com/vnykmshr/goload/pkg/loadable"
		"github.com/vnykmshr/goload/pkg/loadable/retry"
	)

	base, _ := loadable.NewBase(fetchArticle)
	loader, _ := retry.New[Article](base, 3)

	sub := loader.Subscribe()
	go loader.Load(ctx)
	for state := range sub.Updates() {
		// render state
	}
*/
package goload
