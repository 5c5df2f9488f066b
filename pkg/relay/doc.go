/*
Package relay provides a broadcast-with-replay primitive: a single
current value fanned out to any number of independent subscribers.

A Relay holds exactly one value of type T. Every call to Update replaces
the current value and delivers it to all live subscribers. A new
subscriber always receives the current value as its first element, so
observers joining late never see an empty gap before the first update.

Each subscriber owns a delivery queue of depth one with keep-newest
semantics: a slow subscriber may skip intermediate values but always
converges to the latest, and never observes values out of order or
duplicated. This models state, not events - the relay is not a general
pub/sub mechanism.

Basic usage:

	r := relay.New("idle")

	sub := r.Subscribe()
	defer sub.Cancel()

	go func() {
		r.Update("loading")
		r.Update("done")
	}()

	for v := range sub.Updates() {
		fmt.Println(v)
		if v == "done" {
			break
		}
	}

Closing a relay closes every subscriber channel and makes further
updates no-ops. Subscriptions created after Close receive the final
value and are immediately closed.
*/
package relay
