// Package bus provides the in-process event broker that fans refresh and
// credential events out to connected GUI clients.
package bus

import (
	"sync"

	"github.com/feldrim/ghdesk/internal/domain/model"
	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*Broker)(nil)

// Event is one notification on the wire toward the GUI.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// subscriberBuffer bounds each subscriber's queue. A subscriber that falls
// this far behind starts losing events; the GUI resynchronizes from the HTTP
// API anyway.
const subscriberBuffer = 16

// Broker is a non-blocking fan-out of events to any number of subscribers.
// Publishing never waits on a slow consumer.
type Broker struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber. The returned cancel function must be
// called to release it; afterwards the channel is closed.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}

	return ch, cancel
}

// Publish delivers event to every subscriber with room in its queue.
func (b *Broker) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// TokenSet signals that a new credential was verified and stored.
func (b *Broker) TokenSet(user model.User) {
	b.Publish(Event{Type: "token_set", Payload: map[string]string{"login": user.Login}})
}

// TokenInvalid signals that the active credential was rejected upstream.
func (b *Broker) TokenInvalid() {
	b.Publish(Event{Type: "token_invalid"})
}

// UserUpdated signals that a tracked user record was created or changed.
func (b *Broker) UserUpdated(user model.User) {
	b.Publish(Event{Type: "user_update", Payload: map[string]string{"login": user.Login}})
}

// UserDataUpdated signals that a refresh changed the user's cached feed.
func (b *Broker) UserDataUpdated(login string) {
	b.Publish(Event{Type: "user_data_update", Payload: map[string]string{"login": login}})
}

// Tick is the periodic scheduler heartbeat.
func (b *Broker) Tick(n int) {
	b.Publish(Event{Type: "iteration", Payload: map[string]int{"n": n}})
}
