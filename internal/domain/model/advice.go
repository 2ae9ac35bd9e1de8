package model

import (
	"time"

	"github.com/google/uuid"
)

// Handover is the SBAR-structured summary produced for a specialist
// reviewing an escalated case.
type Handover struct {
	Situation      string `json:"situation"`
	Background     string `json:"background"`
	Assessment     string `json:"assessment"`
	Recommendation string `json:"recommendation"`
	Fallback       bool   `json:"fallback"`
}

// AdviceType enumerates the specialist's recommended course of action.
type AdviceType string

const (
	AdviceUrgentReferral AdviceType = "urgent_referral"
	AdviceObserve2h      AdviceType = "observe_2h"
	AdviceManageLocally  AdviceType = "manage_locally"
	AdviceStartIVFluids  AdviceType = "start_iv_fluids"
	AdviceAdmit          AdviceType = "admit"
	AdviceCustom         AdviceType = "custom"
)

// Advice is a specialist's structured response to an escalated case,
// delivered back to the PHW. Rows are append-only; the latest row for
// a case is authoritative, per §3.
type Advice struct {
	ID                 uuid.UUID  `json:"advice_id"`
	CaseID             uuid.UUID  `json:"case_id"`
	RiskAssessmentID   uuid.UUID  `json:"risk_assessment_id"`
	TokenID            uuid.UUID  `json:"-"`
	SpecialistID       string     `json:"specialist_id,omitempty"`
	AdviceType         AdviceType `json:"advice_type"`
	Notes              string     `json:"notes,omitempty"`
	Text               string     `json:"text,omitempty"`
	MedicationsAdvised []string   `json:"medications_advised,omitempty"`
	Investigations     []string   `json:"investigations,omitempty"`
	FollowUpHours      *int       `json:"follow_up_hours,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}
