package casebus

import (
	"time"

	"github.com/google/uuid"

	"github.com/mamacare/triagedesk/internal/domain/model"
)

// EventType discriminates the payload of an Event.
type EventType string

const (
	EventStatusUpdate EventType = "STATUS_UPDATE"
	EventAdvicePush   EventType = "ADVICE_PUSH"
	EventPing         EventType = "PING"
)

// Event is one message published to a case room. Subscribers receive
// the same Event value; the bus never mutates it after publish.
type Event struct {
	Type      EventType        `json:"type"`
	CaseID    uuid.UUID        `json:"case_id"`
	Status    model.CaseStatus `json:"status,omitempty"`
	Advice    *model.Advice    `json:"advice,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Role identifies the kind of subscriber a connection represents,
// derived from its authentication context.
type Role string

const (
	RolePHW        Role = "phw"
	RoleSpecialist Role = "specialist"
)

// NewStatusUpdate builds a STATUS_UPDATE event for caseID.
func NewStatusUpdate(caseID uuid.UUID, status model.CaseStatus) Event {
	return Event{Type: EventStatusUpdate, CaseID: caseID, Status: status, Timestamp: time.Now().UTC()}
}

// NewAdvicePush builds an ADVICE_PUSH event carrying the submitted advice.
func NewAdvicePush(caseID uuid.UUID, advice *model.Advice) Event {
	return Event{Type: EventAdvicePush, CaseID: caseID, Advice: advice, Timestamp: time.Now().UTC()}
}

// NewPing builds a keepalive event.
func NewPing(caseID uuid.UUID) Event {
	return Event{Type: EventPing, CaseID: caseID, Timestamp: time.Now().UTC()}
}
