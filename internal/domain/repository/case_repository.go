package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mamacare/triagedesk/internal/domain/model"
)

// CaseRepository persists and retrieves cases. Implementations must
// participate in the ambient transaction found on ctx, if any, via
// TxManager.GetQuerier.
type CaseRepository interface {
	Create(ctx context.Context, c *model.Case) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Case, error)
	// GetByIDForUpdate locks the case row for the duration of the
	// enclosing transaction, serializing concurrent writers.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Case, error)
	AppendVitals(ctx context.Context, caseID uuid.UUID, v model.Vitals) error
	UpdateStatus(ctx context.Context, caseID uuid.UUID, status model.CaseStatus) error
	// UpdateEscalation persists the escalation reason and assigned
	// specialist alongside a status change, in one statement.
	UpdateEscalation(ctx context.Context, caseID uuid.UUID, status model.CaseStatus, reason, specialistID string) error
	ListByFacility(ctx context.Context, facility string, limit int) ([]*model.Case, error)
}
