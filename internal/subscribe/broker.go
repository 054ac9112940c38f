// Package subscribe is the in-process change feed. Services publish an
// event after every successful write; views subscribe to the
// collections they render and re-fetch on delivery. Events carry only
// the collection and document id, so redelivery is harmless as long as
// handlers re-read instead of applying deltas.
package subscribe

import (
	"sync"
	"time"
)

type Event struct {
	Collection string    `json:"collection"`
	DocID      string    `json:"docId"`
	Kind       string    `json:"kind"` // created | updated | deleted
	At         time.Time `json:"at"`
}

// Subscription is a handle on the feed. C delivers events for the
// subscribed collections; Cancel releases the handle and closes C.
// All subscriptions owned by a view must be cancelled together when the
// view is torn down.
type Subscription struct {
	C      chan Event
	broker *Broker
	id     int
	once   sync.Once
}

func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.broker.drop(s.id)
	})
}

type subscriber struct {
	collections map[string]bool
	ch          chan Event
}

type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]*subscriber)}
}

// Subscribe registers for change events on the given collections. An
// empty list subscribes to everything.
func (b *Broker) Subscribe(collections ...string) *Subscription {
	set := make(map[string]bool, len(collections))
	for _, c := range collections {
		set[c] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscriber{
		collections: set,
		ch:          make(chan Event, 64),
	}
	b.subs[b.nextID] = sub

	return &Subscription{C: sub.ch, broker: b, id: b.nextID}
}

// Publish fans an event out to matching subscribers. Slow consumers are
// skipped rather than blocking the writer; they recover on their next
// re-fetch since events are only invalidation hints.
func (b *Broker) Publish(collection, docID, kind string) {
	ev := Event{Collection: collection, DocID: docID, Kind: kind, At: time.Now()}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if len(sub.collections) > 0 && !sub.collections[collection] {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

func (b *Broker) drop(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// SubscriberCount reports active subscriptions, used by leak checks.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
