package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/mamacare/triagedesk/internal/decision/handover"
	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/internal/domain/repository"
	"github.com/mamacare/triagedesk/internal/events/casebus"
	"github.com/mamacare/triagedesk/internal/port/middleware"
	"github.com/mamacare/triagedesk/internal/port/response"
	"github.com/mamacare/triagedesk/internal/store/casestore"
	"github.com/mamacare/triagedesk/internal/store/escalation"
	"github.com/mamacare/triagedesk/pkg/errorx"
	"github.com/mamacare/triagedesk/pkg/logger"
	"github.com/mamacare/triagedesk/pkg/validator"
)

// EscalateHandler mints an escalation token for a case and builds the
// SBAR handover a specialist will see.
type EscalateHandler struct {
	validate      *validator.Validator
	cases         *casestore.Service
	assessments   repository.AssessmentRepository
	tokens        *escalation.Service
	handoverGen   *handover.Generator
	bus           *casebus.Bus
	portalBaseURL string
	log           logger.Logger
}

// NewEscalateHandler constructs an EscalateHandler. portalBaseURL is
// prefixed onto the minted plaintext token to build the specialist
// magic link returned from Escalate.
func NewEscalateHandler(
	validate *validator.Validator,
	cases *casestore.Service,
	assessments repository.AssessmentRepository,
	tokens *escalation.Service,
	handoverGen *handover.Generator,
	bus *casebus.Bus,
	portalBaseURL string,
	log logger.Logger,
) *EscalateHandler {
	return &EscalateHandler{
		validate:      validate,
		cases:         cases,
		assessments:   assessments,
		tokens:        tokens,
		handoverGen:   handoverGen,
		bus:           bus,
		portalBaseURL: portalBaseURL,
		log:           log,
	}
}

// sbarResponse is the wire shape of a generated handover summary.
type sbarResponse struct {
	Situation      string `json:"situation"`
	Background     string `json:"background"`
	Assessment     string `json:"assessment"`
	Recommendation string `json:"recommendation"`
}

// escalateResponse is the JSON body returned on a successful escalation.
type escalateResponse struct {
	CaseID              uuid.UUID    `json:"case_id"`
	SpecialistMagicLink string       `json:"specialist_magic_link"`
	SBAR                sbarResponse `json:"sbar"`
	EscalatedAt         string       `json:"escalated_at"`
}

// Escalate handles POST /api/v1/escalate.
func (h *EscalateHandler) Escalate(w http.ResponseWriter, r *http.Request) error {
	identity, err := middleware.GetPHWIdentity(r.Context())
	if err != nil {
		return err
	}

	var req validator.EscalateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errorx.Wrap(err, errorx.InvalidRequest, "invalid JSON body")
	}
	if err := h.validate.Validate(&req); err != nil {
		return err
	}

	caseID, err := uuid.Parse(req.CaseID)
	if err != nil {
		return errorx.Wrap(err, errorx.InvalidRequest, "invalid case_id")
	}

	latest, err := h.assessments.LatestForCase(r.Context(), caseID)
	if err != nil {
		return errorx.Wrap(err, errorx.NotFound, "case has no recorded assessment")
	}

	var plaintext string
	updatedCase, _, err := h.cases.MintEscalation(r.Context(), caseID, identity.ID, req.EscalationReason, req.SpecialistID, func() (*model.EscalationToken, error) {
		pt, tok, mintErr := h.tokens.Mint(caseID, escalation.DefaultTTL)
		if mintErr != nil {
			return nil, mintErr
		}
		plaintext = pt
		return tok, nil
	})
	if err != nil {
		return err
	}

	handoverSummary := h.handoverGen.Generate(r.Context(), *updatedCase, *latest)

	h.bus.Publish(casebus.NewStatusUpdate(caseID, model.CaseStatusEscalated))

	return response.Send(w, r, escalateResponse{
		CaseID:              caseID,
		SpecialistMagicLink: h.portalBaseURL + "/" + plaintext,
		SBAR: sbarResponse{
			Situation:      handoverSummary.Situation,
			Background:     handoverSummary.Background,
			Assessment:     handoverSummary.Assessment,
			Recommendation: handoverSummary.Recommendation,
		},
		EscalatedAt: updatedCase.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}
