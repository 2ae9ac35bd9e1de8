package validator

// DTOs for the intake and escalation surface. Validation happens here,
// at the HTTP boundary, so out-of-range vitals never reach the
// analyzers (§3 invariant e).
type (
	// VitalsDTO is the wire shape of a vitals snapshot.
	VitalsDTO struct {
		SystolicBP      int      `json:"systolic_bp" validate:"required,systolic_bp"`
		DiastolicBP     int      `json:"diastolic_bp" validate:"required,diastolic_bp"`
		HeartRate       int      `json:"heart_rate" validate:"required,heart_rate"`
		RespiratoryRate int      `json:"respiratory_rate" validate:"required,respiratory_rate"`
		SpO2            float64  `json:"spo2" validate:"required,spo2"`
		Temperature     float64  `json:"temperature" validate:"required,temperature"`
		BloodGlucose    *float64 `json:"blood_glucose_mgdl" validate:"omitempty,blood_glucose"`
		WeightKg        *float64 `json:"weight_kg" validate:"omitempty,min=1,max=400"`
		GCSScore        *int     `json:"gcs_score" validate:"omitempty,gcs_score"`
	}

	// SymptomDTO is the wire shape of a reported symptom.
	SymptomDTO struct {
		Name          string   `json:"symptom_name" validate:"required,max=200"`
		IsRedFlag     bool     `json:"is_red_flag"`
		Severity      string   `json:"severity" validate:"required,oneof=mild moderate severe"`
		DurationHours *float64 `json:"duration_hours" validate:"omitempty,min=0"`
	}

	// MedicationDTO is the wire shape of a current medication.
	MedicationDTO struct {
		DrugName string `json:"drug_name" validate:"required,max=200"`
		Code     string `json:"code" validate:"omitempty,max=50"`
		Dose     string `json:"dose" validate:"omitempty,max=100"`
		Route    string `json:"route" validate:"omitempty,max=50"`
	}

	// PatientDTO is the wire shape of the patient snapshot.
	PatientDTO struct {
		Age     int      `json:"age" validate:"required,patient_age"`
		Sex     string   `json:"sex" validate:"required,oneof=male female other"`
		GeoTags []string `json:"geo_tags" validate:"omitempty,dive,max=100"`
		Flags   []string `json:"vulnerability_flags" validate:"omitempty,dive,oneof=pregnant diabetic elderly heart_disease immunocompromised"`
	}

	// AnalyzeRequestDTO is the body of POST /api/v1/analyze/risk.
	AnalyzeRequestDTO struct {
		CaseID         *string         `json:"case_id" validate:"omitempty,uuid"`
		PHWName        string          `json:"phw_name" validate:"required,max=200"`
		Facility       string          `json:"facility" validate:"required,max=200"`
		Patient        PatientDTO      `json:"patient" validate:"required"`
		Vitals         VitalsDTO       `json:"vitals" validate:"required"`
		Medications    []MedicationDTO `json:"medications" validate:"omitempty,dive"`
		Symptoms       []SymptomDTO    `json:"symptoms" validate:"omitempty,dive"`
		ChiefComplaint string          `json:"chief_complaint" validate:"required,max=1000"`
	}

	// EscalateRequestDTO is the body of POST /api/v1/escalate.
	EscalateRequestDTO struct {
		CaseID           string `json:"case_id" validate:"required,uuid"`
		EscalationReason string `json:"escalation_reason" validate:"required,max=1000"`
		SpecialistID     string `json:"specialist_id" validate:"omitempty,max=200"`
	}

	// AdviceRequestDTO is the body of POST /api/v1/specialist/advice.
	AdviceRequestDTO struct {
		AdviceType         string   `json:"advice_type" validate:"required,oneof=urgent_referral observe_2h manage_locally start_iv_fluids admit custom"`
		Notes              string   `json:"notes" validate:"omitempty,max=2000"`
		MedicationsAdvised []string `json:"medications_advised" validate:"omitempty,dive,max=200"`
		Investigations     []string `json:"investigations" validate:"omitempty,dive,max=200"`
		FollowUpHours      *int     `json:"follow_up_hours" validate:"omitempty,min=0,max=720"`
	}
)
