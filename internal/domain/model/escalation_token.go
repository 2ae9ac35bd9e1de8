package model

import (
	"time"

	"github.com/google/uuid"
)

// EscalationToken grants a specialist time-boxed access to one case's
// portal view. Only the hash of the bearer token is ever persisted;
// the plaintext is returned to the caller exactly once, at mint time.
type EscalationToken struct {
	ID         uuid.UUID  `json:"token_id"`
	CaseID     uuid.UUID  `json:"case_id"`
	TokenHash  [32]byte   `json:"-"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// IsValid reports whether the token can still be used to view or act
// on its case at time t.
func (t EscalationToken) IsValid(at time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	if at.After(t.ExpiresAt) {
		return false
	}
	return true
}
