/*
Package events provides an in-memory event broker for relation-lifecycle
notifications.

It is the same buffered pub/sub shape as a cluster event bus: a single
internal channel feeds a broadcast loop that fans out to per-subscriber
buffered channels, dropping on a full subscriber buffer rather than
blocking the publisher.

# Role

relcore has no shared relation cache of its own -- bbolt is single-writer
and in-process, so nothing today strictly needs cache invalidation
messages. The Broker exists so that reldestroy's CacheInvalidator
interface has one concrete, testable implementation (events.CacheInvalidator)
instead of only the nil no-op, and so a future read-through cache can
subscribe without any change to reldestroy itself.

# Event Types

	relation.created          new pg_class row committed
	relation.dropped          catalog rows for a relation removed
	relation.truncated        file truncated to a new block count
	relation.column_dropped   an attribute marked dropped

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	destroyer.Cache = events.CacheInvalidator{Broker: broker}
*/
package events
