// Package casebus implements the per-case publish/subscribe channel
// that delivers status and advice events to connected PHW and
// specialist clients. Membership is role-aware, delivery is
// best-effort within one connection's lifetime, and nothing is
// persisted or replayed on reconnect.
package casebus

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// PingInterval is how often an idle subscriber receives a keepalive.
const PingInterval = 30 * time.Second

// Bus routes events to per-case rooms. The zero value is not usable;
// construct with New.
type Bus struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*room
}

// New constructs an empty Bus.
func New() *Bus {
	return &Bus{rooms: make(map[uuid.UUID]*room)}
}

func (b *Bus) roomFor(caseID uuid.UUID) *room {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rooms[caseID]
	if !ok {
		r = newRoom()
		b.rooms[caseID] = r
	}
	return r
}

// Subscribe joins the room for caseID with the given role and returns
// a Subscriber whose Events channel receives every event published to
// that case from this point on. The returned cancel function must be
// called when the connection ends to free the subscriber slot.
func (b *Bus) Subscribe(caseID uuid.UUID, role Role) (*Subscriber, func()) {
	r := b.roomFor(caseID)
	sub := r.join(role)

	cancel := func() {
		r.leave(sub.ID)
		b.pruneIfEmpty(caseID)
	}

	return sub, cancel
}

func (b *Bus) pruneIfEmpty(caseID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rooms[caseID]
	if !ok {
		return
	}
	if r.isEmpty() {
		delete(b.rooms, caseID)
	}
}

// Publish broadcasts ev to every current subscriber of its case.
// Publishes for a given case are expected to be called in the order
// their corresponding transitions commit, so subscribers observe
// state changes in commit order.
func (b *Bus) Publish(ev Event) {
	b.roomFor(ev.CaseID).publish(ev)
}
