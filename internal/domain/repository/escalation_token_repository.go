package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mamacare/triagedesk/internal/domain/model"
)

// EscalationTokenRepository persists escalation tokens. Lookup is
// always by hash; the plaintext bearer value is never stored.
type EscalationTokenRepository interface {
	Create(ctx context.Context, t *model.EscalationToken) error
	GetByHash(ctx context.Context, hash [32]byte) (*model.EscalationToken, error)
	GetActiveForCase(ctx context.Context, caseID uuid.UUID) (*model.EscalationToken, error)
	MarkConsumed(ctx context.Context, id uuid.UUID) error
	Revoke(ctx context.Context, id uuid.UUID) error
}
