package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditRecord is an immutable log entry describing one state-changing
// operation against a case, written synchronously in the same
// transaction as the operation it describes.
type AuditRecord struct {
	ID        uuid.UUID `json:"audit_id"`
	CaseID    uuid.UUID `json:"case_id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	TraceID   string    `json:"trace_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
