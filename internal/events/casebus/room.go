package casebus

import (
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer is the depth of a subscriber's outgoing channel. A
// subscriber that cannot drain this many pending events before the
// next publish is disconnected rather than allowed to block the bus.
const subscriberBuffer = 16

// Subscriber is a single connected client's view of one case room.
type Subscriber struct {
	ID     uuid.UUID
	Role   Role
	events chan Event
	closed chan struct{}
	once   sync.Once
}

// Events returns the channel the subscriber should range over to
// receive published events. The channel is closed when the
// subscriber is removed from its room.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

func (s *Subscriber) close() {
	s.once.Do(func() {
		close(s.closed)
		close(s.events)
	})
}

// room holds the subscribers for one case, guarded by its own mutex
// so publishes to different cases never contend with each other.
type room struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]*Subscriber
}

func newRoom() *room {
	return &room{subscribers: make(map[uuid.UUID]*Subscriber)}
}

func (r *room) join(role Role) *Subscriber {
	sub := &Subscriber{
		ID:     uuid.New(),
		Role:   role,
		events: make(chan Event, subscriberBuffer),
		closed: make(chan struct{}),
	}

	r.mu.Lock()
	r.subscribers[sub.ID] = sub
	r.mu.Unlock()

	return sub
}

func (r *room) leave(id uuid.UUID) {
	r.mu.Lock()
	sub, ok := r.subscribers[id]
	if ok {
		delete(r.subscribers, id)
	}
	r.mu.Unlock()

	if ok {
		sub.close()
	}
}

// publish delivers ev to every current subscriber on a best-effort
// basis: a subscriber whose buffer is full is dropped from the room
// instead of blocking the publisher.
func (r *room) publish(ev Event) {
	r.mu.Lock()
	targets := make([]*Subscriber, 0, len(r.subscribers))
	for _, sub := range r.subscribers {
		targets = append(targets, sub)
	}
	r.mu.Unlock()

	for _, sub := range targets {
		select {
		case sub.events <- ev:
		default:
			r.leave(sub.ID)
		}
	}
}

func (r *room) isEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers) == 0
}
