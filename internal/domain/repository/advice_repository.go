package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mamacare/triagedesk/internal/domain/model"
)

// AdviceRepository persists specialist advice written back for a case.
type AdviceRepository interface {
	Create(ctx context.Context, a *model.Advice) error
	ListForCase(ctx context.Context, caseID uuid.UUID) ([]*model.Advice, error)
}
