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

// CaseRepository is the pgx-backed implementation of
// repository.CaseRepository.
type CaseRepository struct {
	tx *database.TxManager
}

// NewCaseRepository constructs a CaseRepository.
func NewCaseRepository(tx *database.TxManager) *CaseRepository {
	return &CaseRepository{tx: tx}
}

func (r *CaseRepository) Create(ctx context.Context, c *model.Case) error {
	patient, err := json.Marshal(c.Patient)
	if err != nil {
		return errorx.Wrap(err, errorx.InternalServerError, "failed to encode patient snapshot")
	}
	vitals, err := json.Marshal(c.Vitals)
	if err != nil {
		return errorx.Wrap(err, errorx.InternalServerError, "failed to encode vitals snapshot")
	}
	symptoms, err := json.Marshal(c.Symptoms)
	if err != nil {
		return errorx.Wrap(err, errorx.InternalServerError, "failed to encode symptoms")
	}
	meds, err := json.Marshal(c.Medications)
	if err != nil {
		return errorx.Wrap(err, errorx.InternalServerError, "failed to encode medications")
	}

	_, err = r.tx.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO cases (id, patient, phw_id, phw_name, facility, status, chief_complaint,
			escalation_reason, assigned_specialist, vitals, symptoms, medications, opened_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, c.ID, patient, c.PHWID, c.PHWName, c.Facility, c.Status, c.ChiefComplaint,
		c.EscalationReason, c.AssignedSpecialist, vitals, symptoms, meds, c.OpenedAt, c.UpdatedAt)
	if err != nil {
		return errorx.Wrap(err, errorx.DatabaseError, "failed to insert case")
	}
	return nil
}

func (r *CaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Case, error) {
	row := r.tx.GetQuerier(ctx).QueryRow(ctx, caseSelectSQL+" WHERE id = $1 AND deleted_at IS NULL", id)
	return scanCase(row)
}

func (r *CaseRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Case, error) {
	row := r.tx.GetQuerier(ctx).QueryRow(ctx, caseSelectSQL+" WHERE id = $1 AND deleted_at IS NULL FOR UPDATE", id)
	return scanCase(row)
}

func (r *CaseRepository) AppendVitals(ctx context.Context, caseID uuid.UUID, v model.Vitals) error {
	vitals, err := json.Marshal(v)
	if err != nil {
		return errorx.Wrap(err, errorx.InternalServerError, "failed to encode vitals snapshot")
	}

	tag, err := r.tx.GetQuerier(ctx).Exec(ctx, `UPDATE cases SET vitals = $1, updated_at = now() WHERE id = $2 AND deleted_at IS NULL`, vitals, caseID)
	if err != nil {
		return errorx.Wrap(err, errorx.DatabaseError, "failed to append vitals")
	}
	if tag.RowsAffected() == 0 {
		return errorx.New(errorx.NotFound, "case not found")
	}
	return nil
}

func (r *CaseRepository) UpdateStatus(ctx context.Context, caseID uuid.UUID, status model.CaseStatus) error {
	tag, err := r.tx.GetQuerier(ctx).Exec(ctx, `UPDATE cases SET status = $1, updated_at = now() WHERE id = $2 AND deleted_at IS NULL`, status, caseID)
	if err != nil {
		return errorx.Wrap(err, errorx.DatabaseError, "failed to update case status")
	}
	if tag.RowsAffected() == 0 {
		return errorx.New(errorx.NotFound, "case not found")
	}
	return nil
}

func (r *CaseRepository) UpdateEscalation(ctx context.Context, caseID uuid.UUID, status model.CaseStatus, reason, specialistID string) error {
	tag, err := r.tx.GetQuerier(ctx).Exec(ctx, `
		UPDATE cases SET status = $1, escalation_reason = $2, assigned_specialist = $3, updated_at = now()
		WHERE id = $4 AND deleted_at IS NULL
	`, status, reason, specialistID, caseID)
	if err != nil {
		return errorx.Wrap(err, errorx.DatabaseError, "failed to update case escalation")
	}
	if tag.RowsAffected() == 0 {
		return errorx.New(errorx.NotFound, "case not found")
	}
	return nil
}

func (r *CaseRepository) ListByFacility(ctx context.Context, facility string, limit int) ([]*model.Case, error) {
	rows, err := r.tx.GetQuerier(ctx).Query(ctx, caseSelectSQL+" WHERE facility = $1 AND deleted_at IS NULL ORDER BY opened_at DESC LIMIT $2", facility, limit)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.DatabaseError, "failed to list cases")
	}
	defer rows.Close()

	var cases []*model.Case
	for rows.Next() {
		c, err := scanCaseRow(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

const caseSelectSQL = `
	SELECT id, patient, phw_id, phw_name, facility, status, chief_complaint,
		escalation_reason, assigned_specialist, vitals, symptoms, medications,
		opened_at, updated_at, closed_at
	FROM cases`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCase(row pgx.Row) (*model.Case, error) {
	return scanCaseRow(row)
}

func scanCaseRow(row rowScanner) (*model.Case, error) {
	var c model.Case
	var patient, vitals, symptoms, meds []byte

	err := row.Scan(&c.ID, &patient, &c.PHWID, &c.PHWName, &c.Facility, &c.Status, &c.ChiefComplaint,
		&c.EscalationReason, &c.AssignedSpecialist, &vitals, &symptoms, &meds,
		&c.OpenedAt, &c.UpdatedAt, &c.ClosedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorx.New(errorx.NotFound, "case not found")
		}
		return nil, errorx.Wrap(err, errorx.DatabaseError, "failed to scan case")
	}

	if err := json.Unmarshal(patient, &c.Patient); err != nil {
		return nil, errorx.Wrap(err, errorx.InternalServerError, "failed to decode patient snapshot")
	}
	if err := json.Unmarshal(vitals, &c.Vitals); err != nil {
		return nil, errorx.Wrap(err, errorx.InternalServerError, "failed to decode vitals snapshot")
	}
	if err := json.Unmarshal(symptoms, &c.Symptoms); err != nil {
		return nil, errorx.Wrap(err, errorx.InternalServerError, "failed to decode symptoms")
	}
	if err := json.Unmarshal(meds, &c.Medications); err != nil {
		return nil, errorx.Wrap(err, errorx.InternalServerError, "failed to decode medications")
	}

	return &c, nil
}
