// Package viewport carries pan/zoom input from the interaction layer to the
// scenes that render it.
package viewport

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"schematic/internal/geometry"
)

// Event is one pan/zoom update. Zoom is the root container's scale and Offset
// its translation in the outer frame.
type Event struct {
	Zoom   float64        `json:"zoom"`
	Offset geometry.Point `json:"offset"`
}

// Transform returns the event as a root transform
func (e Event) Transform() geometry.Transform {
	return geometry.Transform{Offset: e.Offset, Zoom: e.Zoom}
}

// Subscription receives events from a Stream. Only the most recent pending
// event is kept; a subscriber that falls behind sees the latest state, not
// every intermediate one.
type Subscription struct {
	id string
	ch chan Event
}

// ID returns the subscription's unique ID
func (s *Subscription) ID() string {
	return s.id
}

// C returns the channel events arrive on. It is closed on Unsubscribe or
// when the stream closes.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Stream is a push-based, multi-subscriber pan/zoom event source
type Stream struct {
	mu     sync.Mutex
	subs   map[string]*Subscription
	last   *Event
	closed bool
}

// NewStream creates an empty stream
func NewStream() *Stream {
	return &Stream{
		subs: make(map[string]*Subscription),
	}
}

// Subscribe registers a new subscriber. If an event has already been
// published, the subscriber receives the latest one immediately.
func (s *Stream) Subscribe() *Subscription {
	sub := &Subscription{
		id: uuid.NewString(),
		ch: make(chan Event, 1),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(sub.ch)
		return sub
	}
	s.subs[sub.id] = sub
	if s.last != nil {
		sub.ch <- *s.last
	}
	log.Printf("Viewport subscriber added: %s (total: %d)", sub.id, len(s.subs))
	return sub
}

// Unsubscribe removes a subscriber and closes its channel
func (s *Stream) Unsubscribe(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[sub.id]; ok {
		delete(s.subs, sub.id)
		close(sub.ch)
		log.Printf("Viewport subscriber removed: %s (total: %d)", sub.id, len(s.subs))
	}
}

// Publish sends an event to all subscribers without blocking. A subscriber
// with an undelivered event has it replaced by this one.
func (s *Stream) Publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.last = &ev
	for _, sub := range s.subs {
		select {
		case sub.ch <- ev:
		default:
			// Drop the stale pending event, keep the newest
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- ev:
			default:
			}
		}
	}
}

// Last returns the most recently published event
func (s *Stream) Last() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Event{}, false
	}
	return *s.last, true
}

// SubscriberCount returns the number of active subscribers
func (s *Stream) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close closes every subscription; later publishes are ignored
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, sub := range s.subs {
		close(sub.ch)
		delete(s.subs, id)
	}
}
