// Package events is the in-process publish/subscribe channel that carries
// domain events between the ledger, the notification center and the session.
package events

import (
	"context"
	"log"
	"sync"
)

// Topic names an event stream.
type Topic string

const (
	// TopicPointsEarned carries PointsEarned.
	TopicPointsEarned Topic = "pointsEarned"
	// TopicProfilePhotoUpdated carries ProfilePhotoUpdated.
	TopicProfilePhotoUpdated Topic = "profilePhotoUpdated"
	// TopicLedgerChanged carries LedgerChanged.
	TopicLedgerChanged Topic = "ledgerChanged"
)

// PointsEarned announces an award. Message, when set, is shown verbatim.
type PointsEarned struct {
	Points   int    `json:"points"`
	Reason   string `json:"reason"`
	Message  string `json:"message,omitempty"`
	FormType string `json:"formType,omitempty"`
}

// Activity is one entry of the ledger's recent-activity view.
type Activity struct {
	Points int    `json:"points"`
	Reason string `json:"reason"`
	Time   string `json:"time"`
}

// LedgerChanged announces a new total and recent-activity view.
type LedgerChanged struct {
	Total  int        `json:"total"`
	Recent []Activity `json:"recent"`
}

// ProfilePhotoUpdated announces a new persisted profile photo.
type ProfilePhotoUpdated struct {
	UserID string `json:"userId"`
	URL    string `json:"url"`
}

// Event is one delivery on the bus.
type Event struct {
	Topic   Topic
	Payload any
}

// Handler receives events. Handlers run on the publisher's goroutine.
type Handler func(ctx context.Context, ev Event)

type subscription struct {
	id int
	h  Handler
}

// Bus delivers each event synchronously to the topic's subscribers in
// subscription order. It is safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic][]subscription
	nextID int
	closed bool
	logger *log.Logger
}

// NewBus returns an open bus. A nil logger uses log.Default().
func NewBus(logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.Default()
	}
	return &Bus{subs: make(map[Topic][]subscription), logger: logger}
}

// Subscribe registers h for topic and returns a function that removes it.
// Subscribing to a closed bus is a no-op.
func (b *Bus) Subscribe(topic Topic, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, h: h})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, id) })
	}
}

func (b *Bus) remove(topic Topic, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers ev to every current subscriber of ev.Topic and returns
// once all of them have run. A panicking handler is logged and skipped.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := append([]subscription(nil), b.subs[ev.Topic]...)
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(ctx, s.h, ev)
	}
}

func (b *Bus) deliver(ctx context.Context, h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Printf("events: %s handler panicked: %v", ev.Topic, r)
		}
	}()
	h(ctx, ev)
}

// Subscribers reports how many handlers are registered for topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Close drops all subscribers. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[Topic][]subscription)
}
