/*
Package limit provides a Loadable decorator that bounds how many
decorated loads run concurrently.

A shared token bucket backs the bound: every Load acquires a token
before invoking the wrapped Loadable and releases it when the
invocation returns, so at most Limit fetches are in flight at once.
Excess callers queue in FIFO order; a caller whose context ends while
queued consumes no token and observes a failure state carrying
errors.ErrTokenUnavailable.

Basic usage:

	loader, err := limit.New[Thumbnail](base, 4)
	if err != nil {
		log.Fatal(err)
	}

	for _, url := range urls {
		go loader.Load(ctx)
	}
*/
package limit
