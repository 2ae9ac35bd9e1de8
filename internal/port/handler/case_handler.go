package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/internal/domain/repository"
	"github.com/mamacare/triagedesk/internal/port/response"
	"github.com/mamacare/triagedesk/pkg/errorx"
	"github.com/mamacare/triagedesk/pkg/logger"
)

const defaultCaseListLimit = 50

// CaseHandler serves read-only case lookup and listing for the PHW
// facility view.
type CaseHandler struct {
	cases       repository.CaseRepository
	assessments repository.AssessmentRepository
	advice      repository.AdviceRepository
	log         logger.Logger
}

// NewCaseHandler constructs a CaseHandler.
func NewCaseHandler(cases repository.CaseRepository, assessments repository.AssessmentRepository, advice repository.AdviceRepository, log logger.Logger) *CaseHandler {
	return &CaseHandler{cases: cases, assessments: assessments, advice: advice, log: log}
}

// List handles GET /api/v1/cases?facility=...&limit=...
func (h *CaseHandler) List(w http.ResponseWriter, r *http.Request) error {
	facility := r.URL.Query().Get("facility")
	if facility == "" {
		return errorx.New(errorx.InvalidRequest, "facility query parameter is required")
	}

	limit := defaultCaseListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return errorx.New(errorx.InvalidRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	cases, err := h.cases.ListByFacility(r.Context(), facility, limit)
	if err != nil {
		return err
	}

	return response.Send(w, r, cases)
}

type caseDetailResponse struct {
	Case        *model.Case            `json:"case"`
	Assessments []*model.RiskAssessment `json:"assessments"`
	Advice      []*model.Advice         `json:"advice"`
}

// Get handles GET /api/v1/cases/{id}.
func (h *CaseHandler) Get(w http.ResponseWriter, r *http.Request) error {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/cases/")
	caseID, err := uuid.Parse(idStr)
	if err != nil {
		return errorx.Wrap(err, errorx.InvalidRequest, "invalid case id")
	}

	c, err := h.cases.GetByID(r.Context(), caseID)
	if err != nil {
		return err
	}

	assessments, err := h.assessments.ListForCase(r.Context(), caseID)
	if err != nil {
		return err
	}

	adviceRecords, err := h.advice.ListForCase(r.Context(), caseID)
	if err != nil {
		return err
	}

	return response.Send(w, r, caseDetailResponse{Case: c, Assessments: assessments, Advice: adviceRecords})
}
