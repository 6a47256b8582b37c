// Package events is an in-memory pub/sub broker adapted from Warren's
// cluster event bus, repurposed here as the relation-cache invalidation
// channel reldestroy.CacheInvalidator expects. This core has no actual
// shared relation cache (bbolt is single-writer, in-process), so the
// broker's only subscribers today are tests; it exists to give a
// later cache layer somewhere to subscribe without reldestroy itself
// changing.
package events

import (
	"sync"
	"time"

	"github.com/relforge/relcore/pkg/types"
)

// EventType identifies the shape of an Event.
type EventType string

const (
	EventRelationCreated   EventType = "relation.created"
	EventRelationDropped   EventType = "relation.dropped"
	EventRelationTruncated EventType = "relation.truncated"
	EventColumnDropped     EventType = "relation.column_dropped"
)

// Event is a single relation-lifecycle notification.
type Event struct {
	Type      EventType
	Relation  types.RelationID
	Timestamp time.Time
	Message   string
}

// Subscriber is a channel that receives events.
type Subscriber chan *Event

// Broker manages event subscriptions and distribution.
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
}

// NewBroker creates a new event broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 100),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's event distribution loop.
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker.
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription and returns a channel.
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	close(sub)
}

// Publish publishes an event to all subscribers.
func (b *Broker) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, skip.
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// CacheInvalidator adapts a Broker into reldestroy.CacheInvalidator: every
// invalidation is published as an EventRelationDropped notification.
type CacheInvalidator struct {
	Broker *Broker
}

// Invalidate publishes a relation.dropped event for id.
func (c CacheInvalidator) Invalidate(id types.RelationID) {
	if c.Broker == nil {
		return
	}
	c.Broker.Publish(&Event{Type: EventRelationDropped, Relation: id})
}
