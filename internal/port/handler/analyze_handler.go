package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mamacare/triagedesk/internal/decision/aggregator"
	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/internal/events/casebus"
	"github.com/mamacare/triagedesk/internal/port/middleware"
	"github.com/mamacare/triagedesk/internal/port/response"
	"github.com/mamacare/triagedesk/internal/store/casestore"
	"github.com/mamacare/triagedesk/pkg/errorx"
	"github.com/mamacare/triagedesk/pkg/logger"
	"github.com/mamacare/triagedesk/pkg/validator"
)

// AnalyzeHandler serves the intake/re-assessment endpoint: it opens a
// case (or appends a fresh vitals reading to an existing one) and runs
// the decision aggregator over it.
type AnalyzeHandler struct {
	validate   *validator.Validator
	cases      *casestore.Service
	aggregator *aggregator.Aggregator
	bus        *casebus.Bus
	log        logger.Logger
}

// NewAnalyzeHandler constructs an AnalyzeHandler.
func NewAnalyzeHandler(validate *validator.Validator, cases *casestore.Service, agg *aggregator.Aggregator, bus *casebus.Bus, log logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{validate: validate, cases: cases, aggregator: agg, bus: bus, log: log}
}

// Analyze handles POST /api/v1/analyze/risk.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) error {
	identity, err := middleware.GetPHWIdentity(r.Context())
	if err != nil {
		return err
	}

	var req validator.AnalyzeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errorx.Wrap(err, errorx.InvalidRequest, "invalid JSON body")
	}
	if err := h.validate.Validate(&req); err != nil {
		return err
	}

	vitals := vitalsFromDTO(req.Vitals)

	var c *model.Case
	if req.CaseID != nil && *req.CaseID != "" {
		caseID, err := uuid.Parse(*req.CaseID)
		if err != nil {
			return errorx.Wrap(err, errorx.InvalidRequest, "invalid case_id")
		}
		if err := h.cases.AppendVitals(r.Context(), caseID, identity.ID, vitals); err != nil {
			return err
		}
		c, err = h.cases.GetCase(r.Context(), caseID)
		if err != nil {
			return err
		}
	} else {
		patient := patientFromDTO(req.Patient)
		c = model.NewCase(patient, identity.ID, req.PHWName, req.Facility, req.ChiefComplaint)
		c.Vitals = vitals
		c.Symptoms = symptomsFromDTO(req.Symptoms)
		c.Medications = medicationsFromDTO(req.Medications)
		if err := h.cases.CreateCase(r.Context(), c); err != nil {
			return err
		}
	}

	assessment, err := h.aggregator.Analyze(r.Context(), *c)
	if err != nil {
		return err
	}
	assessment.ID = uuid.New()
	assessment.CaseID = c.ID
	assessment.AssessedAt = time.Now().UTC()

	if err := h.cases.WriteAssessment(r.Context(), c.ID, identity.ID, assessment); err != nil {
		return err
	}

	h.bus.Publish(casebus.NewStatusUpdate(c.ID, model.CaseStatusAnalyzed))

	return response.SendWithStatus(w, r, assessment, http.StatusOK)
}

func patientFromDTO(d validator.PatientDTO) model.Patient {
	flags := make(map[model.VulnerabilityFlag]bool, len(d.Flags))
	for _, f := range d.Flags {
		flags[model.VulnerabilityFlag(f)] = true
	}
	return model.Patient{
		Age:     d.Age,
		Sex:     model.Sex(d.Sex),
		GeoTags: d.GeoTags,
		Flags:   flags,
	}
}

func vitalsFromDTO(d validator.VitalsDTO) model.Vitals {
	return model.Vitals{
		SystolicBP:      d.SystolicBP,
		DiastolicBP:     d.DiastolicBP,
		HeartRate:       d.HeartRate,
		RespiratoryRate: d.RespiratoryRate,
		SpO2:            d.SpO2,
		Temperature:     d.Temperature,
		BloodGlucose:    d.BloodGlucose,
		WeightKg:        d.WeightKg,
		GCSScore:        d.GCSScore,
	}
}

func symptomsFromDTO(d []validator.SymptomDTO) []model.Symptom {
	out := make([]model.Symptom, 0, len(d))
	for _, s := range d {
		out = append(out, model.Symptom{
			Name:          s.Name,
			IsRedFlag:     s.IsRedFlag,
			Severity:      model.SymptomSeverity(s.Severity),
			DurationHours: s.DurationHours,
		})
	}
	return out
}

func medicationsFromDTO(d []validator.MedicationDTO) []model.Medication {
	out := make([]model.Medication, 0, len(d))
	for _, m := range d {
		out = append(out, model.Medication{
			DrugName: m.DrugName,
			Code:     m.Code,
			Dose:     m.Dose,
			Route:    m.Route,
		})
	}
	return out
}
