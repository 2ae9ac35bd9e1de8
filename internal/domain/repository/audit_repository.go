package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mamacare/triagedesk/internal/domain/model"
)

// AuditRepository persists audit records.
type AuditRepository interface {
	Create(ctx context.Context, r *model.AuditRecord) error
	ListForCase(ctx context.Context, caseID uuid.UUID) ([]*model.AuditRecord, error)
}
