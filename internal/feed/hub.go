// Package feed delivers notification insert/update events to connected
// live viewers. Delivery is best-effort: a viewer that connects after
// an event missed it and relies on the initial snapshot fetch.
package feed

import (
	"log"
	"sync"

	"mcmalerts/internal/alerts"
)

// Kind identifies what happened to the notification carried by an event.
type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
)

// Event is one change-feed message.
type Event struct {
	Kind         Kind                `json:"kind"`
	Notification alerts.Notification `json:"notification"`
}

// subscriberBuffer is the per-connection event backlog. A viewer that
// falls further behind than this is disconnected rather than allowed
// to block publishing; it can reconnect and re-fetch the snapshot.
const subscriberBuffer = 64

// Subscription is one viewer's live event stream. Events arrive on C
// until Cancel is called or the hub drops the subscriber; either way
// C is closed.
type Subscription struct {
	C   <-chan Event
	ch  chan Event
	hub *Hub
}

// Cancel detaches the subscription and releases its resources.
// Safe to call more than once.
func (s *Subscription) Cancel() {
	s.hub.mu.Lock()
	s.hub.remove(s)
	s.hub.mu.Unlock()
}

// Hub is a thread-safe fan-out of change-feed events to all active
// subscriptions.
type Hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewHub creates a ready-to-use hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new viewer connection.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan Event, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, hub: h}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Publish sends an event to every active subscription without blocking.
// A subscriber whose buffer is full is dropped so it cannot delay
// delivery to the others.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case sub.ch <- e:
		default:
			log.Printf("feed: subscriber too slow, disconnecting")
			h.remove(sub)
		}
	}
}

// PublishInsert broadcasts a newly created notification.
func (h *Hub) PublishInsert(n alerts.Notification) {
	h.Publish(Event{Kind: KindInsert, Notification: n})
}

// PublishUpdate broadcasts a lifecycle change to an existing notification.
func (h *Hub) PublishUpdate(n alerts.Notification) {
	h.Publish(Event{Kind: KindUpdate, Notification: n})
}

// SubscriberCount returns the number of active subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close detaches all subscriptions, closing their channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		h.remove(sub)
	}
}

// remove deletes and closes a subscription. Caller must hold mu.
func (h *Hub) remove(s *Subscription) {
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.ch)
}
