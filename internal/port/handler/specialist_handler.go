package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mamacare/triagedesk/internal/decision/handover"
	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/internal/domain/repository"
	"github.com/mamacare/triagedesk/internal/events/casebus"
	"github.com/mamacare/triagedesk/internal/port/middleware"
	"github.com/mamacare/triagedesk/internal/port/response"
	"github.com/mamacare/triagedesk/internal/store/casestore"
	"github.com/mamacare/triagedesk/pkg/errorx"
	"github.com/mamacare/triagedesk/pkg/logger"
	"github.com/mamacare/triagedesk/pkg/validator"
)

// adviceTypeText maps an AdviceRequestDTO's advice_type to the
// sentence prefixed onto the specialist's free-text notes, so a PHW
// reading the advice sees the action before the detail.
var adviceTypeText = map[string]string{
	"urgent_referral": "Urgent referral advised.",
	"observe_2h":      "Observe for 2 hours and reassess.",
	"manage_locally":  "Manage locally; no referral needed.",
	"start_iv_fluids": "Start IV fluids.",
	"admit":           "Admit for inpatient care.",
	"custom":          "",
}

// SpecialistHandler serves the specialist portal: reading an escalated
// case's handover and submitting advice back to the PHW, both gated on
// a valid escalation token rather than specialist identity.
type SpecialistHandler struct {
	validate    *validator.Validator
	cases       *casestore.Service
	assessments repository.AssessmentRepository
	handoverGen *handover.Generator
	bus         *casebus.Bus
	log         logger.Logger
}

// NewSpecialistHandler constructs a SpecialistHandler.
func NewSpecialistHandler(
	validate *validator.Validator,
	cases *casestore.Service,
	assessments repository.AssessmentRepository,
	handoverGen *handover.Generator,
	bus *casebus.Bus,
	log logger.Logger,
) *SpecialistHandler {
	return &SpecialistHandler{
		validate:    validate,
		cases:       cases,
		assessments: assessments,
		handoverGen: handoverGen,
		bus:         bus,
		log:         log,
	}
}

type portalResponse struct {
	Case       *model.Case           `json:"case"`
	Assessment *model.RiskAssessment `json:"assessment,omitempty"`
	Handover   model.Handover        `json:"handover"`
}

// Portal handles GET /api/v1/specialist/portal/{token}. Reading the
// portal is repeatable within the token's validity window; only the
// first read moves the case to specialist_reviewing.
func (h *SpecialistHandler) Portal(w http.ResponseWriter, r *http.Request) error {
	token, err := middleware.GetEscalationToken(r.Context())
	if err != nil {
		return err
	}

	c, err := h.cases.ConsumeEscalation(r.Context(), token, "specialist")
	if err != nil {
		return err
	}

	latest, err := h.assessments.LatestForCase(r.Context(), token.CaseID)
	if err != nil {
		return errorx.Wrap(err, errorx.NotFound, "case has no recorded assessment")
	}

	handoverSummary := h.handoverGen.Generate(r.Context(), *c, *latest)

	return response.Send(w, r, portalResponse{Case: c, Assessment: latest, Handover: handoverSummary})
}

type adviceResponse struct {
	AdviceID uuid.UUID        `json:"advice_id"`
	CaseID   uuid.UUID        `json:"case_id"`
	Status   model.CaseStatus `json:"status"`
}

// SubmitAdvice handles POST /api/v1/specialist/advice.
func (h *SpecialistHandler) SubmitAdvice(w http.ResponseWriter, r *http.Request) error {
	token, err := middleware.GetEscalationToken(r.Context())
	if err != nil {
		return err
	}

	var req validator.AdviceRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errorx.Wrap(err, errorx.InvalidRequest, "invalid JSON body")
	}
	if err := h.validate.Validate(&req); err != nil {
		return err
	}

	text := req.Notes
	if prefix := adviceTypeText[req.AdviceType]; prefix != "" {
		text = fmt.Sprintf("%s %s", prefix, req.Notes)
	}

	var riskAssessmentID uuid.UUID
	if latest, err := h.assessments.LatestForCase(r.Context(), token.CaseID); err == nil && latest != nil {
		riskAssessmentID = latest.ID
	}

	advice := &model.Advice{
		ID:                 uuid.New(),
		CaseID:             token.CaseID,
		RiskAssessmentID:   riskAssessmentID,
		TokenID:            token.ID,
		AdviceType:         model.AdviceType(req.AdviceType),
		Notes:              req.Notes,
		Text:               text,
		MedicationsAdvised: req.MedicationsAdvised,
		Investigations:     req.Investigations,
		FollowUpHours:      req.FollowUpHours,
		CreatedAt:          time.Now().UTC(),
	}

	c, err := h.cases.AppendAdvice(r.Context(), advice, "specialist")
	if err != nil {
		return err
	}

	h.bus.Publish(casebus.NewAdvicePush(token.CaseID, advice))
	h.bus.Publish(casebus.NewStatusUpdate(token.CaseID, c.Status))

	return response.Send(w, r, adviceResponse{AdviceID: advice.ID, CaseID: c.ID, Status: c.Status})
}
