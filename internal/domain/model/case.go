package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CaseStatus is the lifecycle state of a triage case, per the state
// machine: intake -> analyzed -> escalated -> specialist_reviewing ->
// advised -> closed, with cancelled reachable from any non-closed
// status.
type CaseStatus string

const (
	CaseStatusIntake              CaseStatus = "intake"
	CaseStatusAnalyzed            CaseStatus = "analyzed"
	CaseStatusEscalated           CaseStatus = "escalated"
	CaseStatusSpecialistReviewing CaseStatus = "specialist_reviewing"
	CaseStatusAdvised             CaseStatus = "advised"
	CaseStatusClosed              CaseStatus = "closed"
	CaseStatusCancelled           CaseStatus = "cancelled"
)

// allowedTransitions enumerates the DAG edges from §3: every status
// reachable from the given status with a single state_transition call.
var allowedTransitions = map[CaseStatus]map[CaseStatus]bool{
	CaseStatusIntake: {
		CaseStatusAnalyzed:  true,
		CaseStatusCancelled: true,
	},
	CaseStatusAnalyzed: {
		CaseStatusEscalated: true,
		CaseStatusCancelled: true,
	},
	CaseStatusEscalated: {
		CaseStatusSpecialistReviewing: true,
		CaseStatusCancelled:           true,
	},
	CaseStatusSpecialistReviewing: {
		CaseStatusAdvised:   true,
		CaseStatusCancelled: true,
	},
	CaseStatusAdvised: {
		CaseStatusClosed:    true,
		CaseStatusCancelled: true,
	},
}

// CanTransition reports whether moving from this status to next is a
// legal edge in the case lifecycle DAG.
func (s CaseStatus) CanTransition(next CaseStatus) bool {
	if s == CaseStatusClosed || s == CaseStatusCancelled {
		return false
	}
	return allowedTransitions[s][next]
}

// Tier is the escalation urgency bucket produced by the decision
// aggregator.
type Tier string

const (
	TierLow      Tier = "low"
	TierModerate Tier = "moderate"
	TierHigh     Tier = "high"
	TierCritical Tier = "critical"
)

// Severity returns an ordinal for comparing tiers: higher is worse.
func (t Tier) Severity() int {
	switch t {
	case TierCritical:
		return 3
	case TierHigh:
		return 2
	case TierModerate:
		return 1
	default:
		return 0
	}
}

// Max returns the more severe of two tiers.
func (t Tier) Max(other Tier) Tier {
	if other.Severity() > t.Severity() {
		return other
	}
	return t
}

// Case is the aggregate root for a single triage encounter: a patient
// attended by a peripheral health worker at a facility, carrying the
// vitals, symptoms and medications gathered at intake plus whatever
// assessments, escalation and advice have followed.
type Case struct {
	ID                 uuid.UUID    `json:"case_id"`
	Patient            Patient      `json:"patient"`
	PHWID              string       `json:"phw_id"`
	PHWName            string       `json:"phw_name"`
	Facility           string       `json:"facility"`
	Status             CaseStatus   `json:"status"`
	ChiefComplaint     string       `json:"chief_complaint"`
	EscalationReason   string       `json:"escalation_reason,omitempty"`
	AssignedSpecialist string       `json:"assigned_specialist,omitempty"`
	Vitals             Vitals       `json:"vitals"`
	Symptoms           []Symptom    `json:"symptoms"`
	Medications        []Medication `json:"medications"`
	OpenedAt           time.Time    `json:"opened_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
	ClosedAt           *time.Time   `json:"closed_at,omitempty"`
	DeletedAt          *time.Time   `json:"-"`
}

// NewCase opens a new case at intake for the given patient, PHW and
// facility.
func NewCase(patient Patient, phwID, phwName, facility, chiefComplaint string) *Case {
	now := time.Now().UTC()
	return &Case{
		ID:             uuid.New(),
		Patient:        patient,
		PHWID:          phwID,
		PHWName:        phwName,
		Facility:       facility,
		ChiefComplaint: chiefComplaint,
		Status:         CaseStatusIntake,
		OpenedAt:       now,
		UpdatedAt:      now,
	}
}

// IsTerminal reports whether the case has reached a status that no
// longer accepts assessments, escalations or advice.
func (c *Case) IsTerminal() bool {
	return c.Status == CaseStatusClosed || c.Status == CaseStatusCancelled
}

// Transition validates and applies a status change, returning an error
// naming the offending current status if the edge is not legal.
func (c *Case) Transition(next CaseStatus) error {
	if !c.Status.CanTransition(next) && next != CaseStatusCancelled {
		return fmt.Errorf("illegal transition %s -> %s", c.Status, next)
	}
	if next == CaseStatusCancelled && c.IsTerminal() {
		return fmt.Errorf("illegal transition %s -> %s", c.Status, next)
	}
	c.Status = next
	c.UpdatedAt = time.Now().UTC()
	if next == CaseStatusClosed {
		now := time.Now().UTC()
		c.ClosedAt = &now
	}
	return nil
}
