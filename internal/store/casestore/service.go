// Package casestore implements the transactional case lifecycle:
// create_case, append_vitals, write_assessment, mint_escalation,
// consume_escalation, append_advice and update_status, each writing
// its audit record in the same transaction as the state change it
// describes.
package casestore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/internal/domain/repository"
	"github.com/mamacare/triagedesk/internal/infra/database"
	"github.com/mamacare/triagedesk/pkg/errorx"
	"github.com/mamacare/triagedesk/pkg/logger"
)

// Service owns the case lifecycle. Writes are serialized per-case by
// a local mutex registry in addition to the SELECT ... FOR UPDATE row
// lock taken inside the transaction, so concurrent requests against
// the same case never interleave even when they share a connection
// pool across processes on the same host.
type Service struct {
	tx          *database.TxManager
	cases       repository.CaseRepository
	assessments repository.AssessmentRepository
	advice      repository.AdviceRepository
	tokens      repository.EscalationTokenRepository
	audit       repository.AuditRepository
	log         logger.Logger

	locks   map[uuid.UUID]*sync.Mutex
	locksMu sync.Mutex
}

// New constructs a case store Service.
func New(
	tx *database.TxManager,
	cases repository.CaseRepository,
	assessments repository.AssessmentRepository,
	advice repository.AdviceRepository,
	tokens repository.EscalationTokenRepository,
	audit repository.AuditRepository,
	log logger.Logger,
) *Service {
	return &Service{
		tx:          tx,
		cases:       cases,
		assessments: assessments,
		advice:      advice,
		tokens:      tokens,
		audit:       audit,
		log:         log,
		locks:       make(map[uuid.UUID]*sync.Mutex),
	}
}

// caseLock returns the process-local mutex guarding caseID, creating
// one on first use. The registry itself is protected by locksMu; it
// never shrinks, which is an acceptable trade-off given a case's
// bounded lifetime relative to process uptime.
func (s *Service) caseLock(caseID uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	m, ok := s.locks[caseID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[caseID] = m
	}
	return m
}

func (s *Service) writeAudit(ctx context.Context, caseID uuid.UUID, actor, action, detail string) error {
	return s.audit.Create(ctx, &model.AuditRecord{
		CaseID:    caseID,
		Actor:     actor,
		Action:    action,
		Detail:    detail,
		TraceID:   traceIDFromContext(ctx),
		CreatedAt: time.Now().UTC(),
	})
}

// CreateCase opens a new case at intake and writes its audit record.
func (s *Service) CreateCase(ctx context.Context, c *model.Case) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.cases.Create(ctx, c); err != nil {
			return err
		}
		return s.writeAudit(ctx, c.ID, c.PHWID, "create_case", "case opened at intake")
	})
}

// AppendVitals replaces the case's vitals snapshot with a new
// immutable reading and records the change in the audit log.
func (s *Service) AppendVitals(ctx context.Context, caseID uuid.UUID, actor string, v model.Vitals) error {
	lock := s.caseLock(caseID)
	lock.Lock()
	defer lock.Unlock()

	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.cases.GetByIDForUpdate(ctx, caseID)
		if err != nil {
			return err
		}
		if c.IsTerminal() {
			return errorx.New(errorx.StateConflict, "case is closed or cancelled").AddDetail("status", "current", string(c.Status))
		}
		if err := s.cases.AppendVitals(ctx, caseID, v); err != nil {
			return err
		}
		return s.writeAudit(ctx, caseID, actor, "append_vitals", "vitals snapshot recorded")
	})
}

// WriteAssessment persists the aggregator's output and transitions the
// case from intake to analyzed.
func (s *Service) WriteAssessment(ctx context.Context, caseID uuid.UUID, actor string, a *model.RiskAssessment) error {
	lock := s.caseLock(caseID)
	lock.Lock()
	defer lock.Unlock()

	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.cases.GetByIDForUpdate(ctx, caseID)
		if err != nil {
			return err
		}
		if c.IsTerminal() {
			return errorx.New(errorx.StateConflict, "case is closed or cancelled").AddDetail("status", "current", string(c.Status))
		}
		if err := s.assessments.Create(ctx, a); err != nil {
			return err
		}
		if c.Status == model.CaseStatusIntake {
			if err := c.Transition(model.CaseStatusAnalyzed); err != nil {
				return errorx.Wrap(err, errorx.StateConflict, err.Error())
			}
			if err := s.cases.UpdateStatus(ctx, caseID, c.Status); err != nil {
				return err
			}
		}
		return s.writeAudit(ctx, caseID, actor, "write_assessment", "risk assessment recorded")
	})
}

// MintEscalation transitions the case to escalated and returns the
// newly created token alongside the case, for the caller to generate
// a handover against.
func (s *Service) MintEscalation(ctx context.Context, caseID uuid.UUID, actor, reason, specialistID string, newToken func() (*model.EscalationToken, error)) (*model.Case, *model.EscalationToken, error) {
	lock := s.caseLock(caseID)
	lock.Lock()
	defer lock.Unlock()

	var resultCase *model.Case
	var resultToken *model.EscalationToken

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.cases.GetByIDForUpdate(ctx, caseID)
		if err != nil {
			return err
		}
		if err := c.Transition(model.CaseStatusEscalated); err != nil {
			return errorx.Wrap(err, errorx.StateConflict, err.Error())
		}

		if existing, err := s.tokens.GetActiveForCase(ctx, caseID); err == nil && existing != nil {
			if err := s.tokens.Revoke(ctx, existing.ID); err != nil {
				return err
			}
		}

		token, err := newToken()
		if err != nil {
			return err
		}
		if err := s.tokens.Create(ctx, token); err != nil {
			return err
		}

		c.EscalationReason = reason
		c.AssignedSpecialist = specialistID
		if err := s.cases.UpdateEscalation(ctx, caseID, c.Status, reason, specialistID); err != nil {
			return err
		}

		if err := s.writeAudit(ctx, caseID, actor, "mint_escalation", "case escalated: "+reason); err != nil {
			return err
		}

		resultCase, resultToken = c, token
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return resultCase, resultToken, nil
}

// ConsumeEscalation marks the token used and, on its first use,
// transitions the case from escalated to specialist_reviewing.
func (s *Service) ConsumeEscalation(ctx context.Context, token *model.EscalationToken, actor string) (*model.Case, error) {
	lock := s.caseLock(token.CaseID)
	lock.Lock()
	defer lock.Unlock()

	var resultCase *model.Case

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.cases.GetByIDForUpdate(ctx, token.CaseID)
		if err != nil {
			return err
		}

		if c.Status == model.CaseStatusEscalated {
			if err := c.Transition(model.CaseStatusSpecialistReviewing); err != nil {
				return errorx.Wrap(err, errorx.StateConflict, err.Error())
			}
			if err := s.cases.UpdateStatus(ctx, token.CaseID, c.Status); err != nil {
				return err
			}
		}

		if err := s.tokens.MarkConsumed(ctx, token.ID); err != nil {
			return err
		}

		if err := s.writeAudit(ctx, token.CaseID, actor, "consume_escalation", "escalation token read"); err != nil {
			return err
		}

		resultCase = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resultCase, nil
}

// AppendAdvice records a specialist's advice and transitions the case
// to advised. Advice may only be appended while the case is escalated,
// specialist_reviewing, or already advised (§3 invariant d). The
// escalation token presented for the submission is revoked immediately
// after a successful write, making it single-use for advice even
// though the portal GET remains re-readable within its validity
// window.
func (s *Service) AppendAdvice(ctx context.Context, a *model.Advice, actor string) (*model.Case, error) {
	lock := s.caseLock(a.CaseID)
	lock.Lock()
	defer lock.Unlock()

	var resultCase *model.Case

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.cases.GetByIDForUpdate(ctx, a.CaseID)
		if err != nil {
			return err
		}

		switch c.Status {
		case model.CaseStatusEscalated, model.CaseStatusSpecialistReviewing, model.CaseStatusAdvised:
		default:
			return errorx.New(errorx.StateConflict, "advice not permitted in current case status").
				AddDetail("status", "current", string(c.Status))
		}

		if err := s.advice.Create(ctx, a); err != nil {
			return err
		}

		if a.TokenID != uuid.Nil {
			if err := s.tokens.Revoke(ctx, a.TokenID); err != nil {
				return err
			}
		}

		if c.Status != model.CaseStatusAdvised {
			if err := c.Transition(model.CaseStatusAdvised); err != nil {
				return errorx.Wrap(err, errorx.StateConflict, err.Error())
			}
			if err := s.cases.UpdateStatus(ctx, a.CaseID, c.Status); err != nil {
				return err
			}
		}

		if err := s.writeAudit(ctx, a.CaseID, actor, "append_advice", "specialist advice submitted"); err != nil {
			return err
		}

		resultCase = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resultCase, nil
}

// UpdateStatus performs a validated, audited status transition, used
// by the PHW-driven close and cancel operations.
func (s *Service) UpdateStatus(ctx context.Context, caseID uuid.UUID, actor string, next model.CaseStatus) (*model.Case, error) {
	lock := s.caseLock(caseID)
	lock.Lock()
	defer lock.Unlock()

	var resultCase *model.Case

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.cases.GetByIDForUpdate(ctx, caseID)
		if err != nil {
			return err
		}
		if err := c.Transition(next); err != nil {
			return errorx.Wrap(err, errorx.StateConflict, err.Error())
		}
		if err := s.cases.UpdateStatus(ctx, caseID, c.Status); err != nil {
			return err
		}
		if err := s.writeAudit(ctx, caseID, actor, "update_status", "transitioned to "+string(next)); err != nil {
			return err
		}
		resultCase = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resultCase, nil
}

// GetCase reads a case without locking it.
func (s *Service) GetCase(ctx context.Context, caseID uuid.UUID) (*model.Case, error) {
	return s.cases.GetByID(ctx, caseID)
}

type traceIDKey struct{}

// WithTraceID attaches a request trace id to ctx for audit records
// written during that request.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func traceIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey{}).(string); ok {
		return id
	}
	return ""
}
