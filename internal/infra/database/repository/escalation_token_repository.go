package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/internal/infra/database"
	"github.com/mamacare/triagedesk/pkg/errorx"
)

// EscalationTokenRepository is the pgx-backed implementation of
// repository.EscalationTokenRepository. Only the token hash is ever
// stored; lookups are always by hash.
type EscalationTokenRepository struct {
	tx *database.TxManager
}

// NewEscalationTokenRepository constructs an EscalationTokenRepository.
func NewEscalationTokenRepository(tx *database.TxManager) *EscalationTokenRepository {
	return &EscalationTokenRepository{tx: tx}
}

const tokenSelectSQL = `SELECT id, case_id, token_hash, issued_at, expires_at, consumed_at, revoked_at FROM escalation_tokens`

func (r *EscalationTokenRepository) Create(ctx context.Context, t *model.EscalationToken) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.tx.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO escalation_tokens (id, case_id, token_hash, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.CaseID, t.TokenHash[:], t.IssuedAt, t.ExpiresAt)
	if err != nil {
		return errorx.Wrap(err, errorx.DatabaseError, "failed to insert escalation token")
	}
	return nil
}

func (r *EscalationTokenRepository) GetByHash(ctx context.Context, hash [32]byte) (*model.EscalationToken, error) {
	row := r.tx.GetQuerier(ctx).QueryRow(ctx, tokenSelectSQL+" WHERE token_hash = $1", hash[:])
	return scanToken(row)
}

func (r *EscalationTokenRepository) GetActiveForCase(ctx context.Context, caseID uuid.UUID) (*model.EscalationToken, error) {
	row := r.tx.GetQuerier(ctx).QueryRow(ctx, tokenSelectSQL+" WHERE case_id = $1 AND revoked_at IS NULL ORDER BY issued_at DESC LIMIT 1", caseID)
	return scanToken(row)
}

func (r *EscalationTokenRepository) MarkConsumed(ctx context.Context, id uuid.UUID) error {
	_, err := r.tx.GetQuerier(ctx).Exec(ctx, `UPDATE escalation_tokens SET consumed_at = now() WHERE id = $1`, id)
	if err != nil {
		return errorx.Wrap(err, errorx.DatabaseError, "failed to mark token consumed")
	}
	return nil
}

func (r *EscalationTokenRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	_, err := r.tx.GetQuerier(ctx).Exec(ctx, `UPDATE escalation_tokens SET revoked_at = now() WHERE id = $1`, id)
	if err != nil {
		return errorx.Wrap(err, errorx.DatabaseError, "failed to revoke token")
	}
	return nil
}

func scanToken(row pgx.Row) (*model.EscalationToken, error) {
	var t model.EscalationToken
	var hash []byte

	err := row.Scan(&t.ID, &t.CaseID, &hash, &t.IssuedAt, &t.ExpiresAt, &t.ConsumedAt, &t.RevokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorx.New(errorx.TokenInvalid, "escalation token not found")
		}
		return nil, errorx.Wrap(err, errorx.DatabaseError, "failed to scan escalation token")
	}
	copy(t.TokenHash[:], hash)

	return &t, nil
}
