/*
Package retry provides a Loadable decorator that re-invokes a failed
load with exponential backoff.

The decorator forwards every state the wrapped Loadable emits. When it
observes a failure and attempts remain, it publishes a loading state
with a "retrying" progress message, sleeps the backoff, and invokes the
wrapped Load again - without resetting the wrapped Loadable, so
loader-local state such as per-attempt counters survives across
attempts. After the configured number of attempts the last failure is
forwarded as terminal.

Basic usage:

	loader, err := retry.New[Article](base, 3)
	if err != nil {
		log.Fatal(err)
	}

	sub := loader.Subscribe()
	go loader.Load(ctx)

The first retry fires immediately; subsequent backoffs start at
Config.InitialBackoff and double per attempt, capped at
Config.MaxBackoff when set. Reset discards the monitoring loop and the
attempt counter, so the next Load starts a fresh attempt count.
*/
package retry
