package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/internal/infra/database"
	"github.com/mamacare/triagedesk/pkg/errorx"
)

// AdviceRepository is the pgx-backed implementation of
// repository.AdviceRepository. Advice rows are append-only; the
// newest row for a case is authoritative.
type AdviceRepository struct {
	tx *database.TxManager
}

// NewAdviceRepository constructs an AdviceRepository.
func NewAdviceRepository(tx *database.TxManager) *AdviceRepository {
	return &AdviceRepository{tx: tx}
}

func (r *AdviceRepository) Create(ctx context.Context, a *model.Advice) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	meds, err := json.Marshal(a.MedicationsAdvised)
	if err != nil {
		return errorx.Wrap(err, errorx.InternalServerError, "failed to encode medications advised")
	}
	investigations, err := json.Marshal(a.Investigations)
	if err != nil {
		return errorx.Wrap(err, errorx.InternalServerError, "failed to encode investigations")
	}

	var riskAssessmentID *uuid.UUID
	if a.RiskAssessmentID != uuid.Nil {
		riskAssessmentID = &a.RiskAssessmentID
	}

	_, err = r.tx.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO advice (id, case_id, risk_assessment_id, token_id, specialist_id, advice_type,
			text, medications_advised, investigations, follow_up_hours, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, a.ID, a.CaseID, riskAssessmentID, a.TokenID, a.SpecialistID, a.AdviceType,
		a.Text, meds, investigations, a.FollowUpHours, a.CreatedAt)
	if err != nil {
		return errorx.Wrap(err, errorx.DatabaseError, "failed to insert advice")
	}
	return nil
}

const adviceSelectSQL = `
	SELECT id, case_id, risk_assessment_id, token_id, specialist_id, advice_type,
		text, medications_advised, investigations, follow_up_hours, created_at
	FROM advice`

func (r *AdviceRepository) ListForCase(ctx context.Context, caseID uuid.UUID) ([]*model.Advice, error) {
	rows, err := r.tx.GetQuerier(ctx).Query(ctx, adviceSelectSQL+" WHERE case_id = $1 ORDER BY created_at ASC", caseID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.DatabaseError, "failed to list advice")
	}
	defer rows.Close()

	var out []*model.Advice
	for rows.Next() {
		a, err := scanAdvice(rows)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAdvice(row rowScanner) (*model.Advice, error) {
	var a model.Advice
	var riskAssessmentID *uuid.UUID
	var meds, investigations []byte

	if err := row.Scan(&a.ID, &a.CaseID, &riskAssessmentID, &a.TokenID, &a.SpecialistID, &a.AdviceType,
		&a.Text, &meds, &investigations, &a.FollowUpHours, &a.CreatedAt); err != nil {
		return nil, errorx.Wrap(err, errorx.DatabaseError, "failed to scan advice")
	}
	if riskAssessmentID != nil {
		a.RiskAssessmentID = *riskAssessmentID
	}
	if err := json.Unmarshal(meds, &a.MedicationsAdvised); err != nil {
		return nil, errorx.Wrap(err, errorx.InternalServerError, "failed to decode medications advised")
	}
	if err := json.Unmarshal(investigations, &a.Investigations); err != nil {
		return nil, errorx.Wrap(err, errorx.InternalServerError, "failed to decode investigations")
	}
	return &a, nil
}
