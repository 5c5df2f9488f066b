/*
Package debounce provides a Loadable decorator that coalesces bursts of
load requests into a single downstream invocation.

Each Load call (re)arms a timer; when the configured interval elapses
without another call, the wrapped Load is invoked once. With
ExecuteFirstImmediately set, the first call in a quiet period executes
right away and starts a cool-down instead.

Only the decision to invoke is debounced: once the wrapped Loadable
runs, its states flow through unchanged at whatever cadence it emits
them.

Basic usage:

	loader, err := debounce.New[SearchResults](base, 200*time.Millisecond)
	if err != nil {
		log.Fatal(err)
	}

	// Rapid calls collapse into one fetch.
	for i := 0; i < 5; i++ {
		go loader.Load(ctx)
	}
*/
package debounce
