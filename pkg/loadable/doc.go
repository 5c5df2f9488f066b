/*
Package loadable provides an observable state machine for asynchronous
"load an artifact" operations, and the contract its decorators build on.

A Loadable owns exactly one current State of a fixed four-variant shape
- idle, loading (with optional progress), loaded, or failure - and
broadcasts every transition to any number of independent observers
through a broadcast-with-replay relay. Consumers that (re)appear read
CurrentState to resynchronize without reloading, or Subscribe for the
ongoing stream.

The base state machine:

	base, err := loadable.NewBase(func(ctx context.Context, report func(loadable.Progress)) (Article, error) {
		report(*loadable.NewProgress(loadable.WithPercent(50)))
		return fetchArticle(ctx)
	})
	if err != nil {
		log.Fatal(err)
	}

	sub := base.Subscribe()
	defer sub.Cancel()

	go base.Load(ctx)
	for state := range sub.Updates() {
		if state.IsTerminal() {
			break
		}
	}

Errors raised by the fetch never escape Load; they surface as failure
states on the same stream that reports success. Cancel is cooperative
and idempotent; Reset returns to idle and makes the next Load behave
like the first ever call.

Decorators in the subpackages (retry, debounce, limit, cache, refresh)
each wrap any Loadable and forward its states through their own relay,
composing in any order:

	base, _ := loadable.NewBase(fetch)
	limited, _ := limit.New[Article](base, 4)
	retried, _ := retry.New[Article](limited, 3)

The Monitor type factors out the forwarding discipline the decorators
share: subscribe to the wrapped stream exactly once, before the first
wrapped load, guarded by a latch so concurrent loads never start a
second monitoring loop.
*/
package loadable
