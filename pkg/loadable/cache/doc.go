/*
Package cache provides a Loadable decorator that serves loads from a
store and writes fetched values back through it.

On Load the decorator consults its Store first. A hit publishes the
cached value without touching the wrapped Loadable; a miss (or a store
error, which is treated as a miss) falls through to the wrapped Load,
and the value it produces is written back to the store.

Two stores ship with the package: an in-process MemoryStore with
per-entry TTL, and a RedisStore that keeps JSON-encoded values in
Redis for sharing across processes.

Basic usage:

	store := cache.NewMemoryStore[Profile](time.Minute)
	loader, err := cache.New(base, "profile:42", store)
	if err != nil {
		log.Fatal(err)
	}

	loader.Load(ctx) // fetches and caches
	loader.Reset()
	loader.Load(ctx) // served from the store
*/
package cache
