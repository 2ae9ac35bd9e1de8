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

// AssessmentRepository is the pgx-backed implementation of
// repository.AssessmentRepository. Assessments are append-only.
type AssessmentRepository struct {
	tx *database.TxManager
}

// NewAssessmentRepository constructs an AssessmentRepository.
func NewAssessmentRepository(tx *database.TxManager) *AssessmentRepository {
	return &AssessmentRepository{tx: tx}
}

func (r *AssessmentRepository) Create(ctx context.Context, a *model.RiskAssessment) error {
	rule, err := json.Marshal(a.RuleResult)
	if err != nil {
		return errorx.Wrap(err, errorx.InternalServerError, "failed to encode rule result")
	}
	modelResult, err := json.Marshal(a.ModelResult)
	if err != nil {
		return errorx.Wrap(err, errorx.InternalServerError, "failed to encode model result")
	}
	meds, err := json.Marshal(a.MedWarnings)
	if err != nil {
		return errorx.Wrap(err, errorx.InternalServerError, "failed to encode medication warnings")
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	_, err = r.tx.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO risk_assessments (id, case_id, rule_result, model_result, med_warnings,
			final_risk_level, final_risk_score, recommendation, escalation_suggested, model_version, assessed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, a.ID, a.CaseID, rule, modelResult, meds, a.FinalRiskLevel, a.FinalRiskScore,
		a.Recommendation, a.EscalationSuggested, a.ModelVersion, a.AssessedAt)
	if err != nil {
		return errorx.Wrap(err, errorx.DatabaseError, "failed to insert risk assessment")
	}
	return nil
}

const assessmentSelectSQL = `
	SELECT id, case_id, rule_result, model_result, med_warnings,
		final_risk_level, final_risk_score, recommendation, escalation_suggested, model_version, assessed_at
	FROM risk_assessments`

func (r *AssessmentRepository) LatestForCase(ctx context.Context, caseID uuid.UUID) (*model.RiskAssessment, error) {
	row := r.tx.GetQuerier(ctx).QueryRow(ctx, assessmentSelectSQL+" WHERE case_id = $1 ORDER BY assessed_at DESC LIMIT 1", caseID)
	return scanAssessment(row)
}

func (r *AssessmentRepository) ListForCase(ctx context.Context, caseID uuid.UUID) ([]*model.RiskAssessment, error) {
	rows, err := r.tx.GetQuerier(ctx).Query(ctx, assessmentSelectSQL+" WHERE case_id = $1 ORDER BY assessed_at ASC", caseID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.DatabaseError, "failed to list assessments")
	}
	defer rows.Close()

	var out []*model.RiskAssessment
	for rows.Next() {
		a, err := scanAssessmentRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAssessment(row pgx.Row) (*model.RiskAssessment, error) {
	return scanAssessmentRow(row)
}

func scanAssessmentRow(row rowScanner) (*model.RiskAssessment, error) {
	var a model.RiskAssessment
	var rule, modelResult, meds []byte

	err := row.Scan(&a.ID, &a.CaseID, &rule, &modelResult, &meds,
		&a.FinalRiskLevel, &a.FinalRiskScore, &a.Recommendation, &a.EscalationSuggested, &a.ModelVersion, &a.AssessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorx.New(errorx.NotFound, "risk assessment not found")
		}
		return nil, errorx.Wrap(err, errorx.DatabaseError, "failed to scan risk assessment")
	}

	if err := json.Unmarshal(rule, &a.RuleResult); err != nil {
		return nil, errorx.Wrap(err, errorx.InternalServerError, "failed to decode rule result")
	}
	if len(modelResult) > 0 && string(modelResult) != "null" {
		var mr model.ModelResult
		if err := json.Unmarshal(modelResult, &mr); err != nil {
			return nil, errorx.Wrap(err, errorx.InternalServerError, "failed to decode model result")
		}
		mr.Available = true
		a.ModelResult = &mr
	}
	if err := json.Unmarshal(meds, &a.MedWarnings); err != nil {
		return nil, errorx.Wrap(err, errorx.InternalServerError, "failed to decode medication warnings")
	}

	return &a, nil
}
