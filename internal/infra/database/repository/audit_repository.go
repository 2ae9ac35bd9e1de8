package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/internal/infra/database"
	"github.com/mamacare/triagedesk/pkg/errorx"
)

// AuditRepository is the pgx-backed implementation of
// repository.AuditRepository.
type AuditRepository struct {
	tx *database.TxManager
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(tx *database.TxManager) *AuditRepository {
	return &AuditRepository{tx: tx}
}

func (r *AuditRepository) Create(ctx context.Context, rec *model.AuditRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := r.tx.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO audit_records (id, case_id, actor, action, detail, trace_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.CaseID, rec.Actor, rec.Action, rec.Detail, rec.TraceID, rec.CreatedAt)
	if err != nil {
		return errorx.Wrap(err, errorx.DatabaseError, "failed to insert audit record")
	}
	return nil
}

func (r *AuditRepository) ListForCase(ctx context.Context, caseID uuid.UUID) ([]*model.AuditRecord, error) {
	rows, err := r.tx.GetQuerier(ctx).Query(ctx, `
		SELECT id, case_id, actor, action, detail, trace_id, created_at
		FROM audit_records WHERE case_id = $1 ORDER BY created_at ASC
	`, caseID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.DatabaseError, "failed to list audit records")
	}
	defer rows.Close()

	var out []*model.AuditRecord
	for rows.Next() {
		var rec model.AuditRecord
		if err := rows.Scan(&rec.ID, &rec.CaseID, &rec.Actor, &rec.Action, &rec.Detail, &rec.TraceID, &rec.CreatedAt); err != nil {
			return nil, errorx.Wrap(err, errorx.DatabaseError, "failed to scan audit record")
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
