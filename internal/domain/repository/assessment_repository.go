package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mamacare/triagedesk/internal/domain/model"
)

// AssessmentRepository persists risk assessments produced by the
// decision aggregator.
type AssessmentRepository interface {
	Create(ctx context.Context, a *model.RiskAssessment) error
	LatestForCase(ctx context.Context, caseID uuid.UUID) (*model.RiskAssessment, error)
	ListForCase(ctx context.Context, caseID uuid.UUID) ([]*model.RiskAssessment, error)
}
