package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FeatureAttribution is one entry of a risk model's explanation: how
// much a single input feature pushed the predicted probability, in
// the style of a SHAP value.
type FeatureAttribution struct {
	Feature      string  `json:"feature"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
	Label        string  `json:"label"`
}

// RuleResult is the output of the deterministic guardrail: every
// threshold that fired and the worst candidate tier among them.
type RuleResult struct {
	Triggered  bool     `json:"triggered"`
	Level      Tier     `json:"risk_level"`
	Reasons    []string `json:"reasons"`
	OverrideML bool     `json:"override_ml"`
}

// ModelResult is the risk model analyzer's output: a calibrated
// probability, the tier that probability falls into, and the top
// contributing features. Available is true on every result Predict
// returns; when the model artifact could not be loaded the aggregator
// proceeds without a ModelResult (RiskAssessment.ModelResult is nil).
type ModelResult struct {
	Available    bool                 `json:"-"`
	Probability  float64              `json:"risk_probability"`
	Level        Tier                 `json:"risk_level"`
	Attributions []FeatureAttribution `json:"shap_features"`
	ShapText     string               `json:"shap_text"`
	ModelVersion string               `json:"model_version"`
}

// AnalyzerDiagnostic records how one analyzer behaved during a single
// aggregation round: whether it completed, timed out or errored.
type AnalyzerDiagnostic struct {
	Analyzer string        `json:"analyzer"`
	Status   string        `json:"status"` // "ok", "timeout", "error", "unavailable"
	Duration time.Duration `json:"duration_ms"`
	Detail   string        `json:"detail,omitempty"`
}

// MarshalJSON writes Duration as whole milliseconds under duration_ms.
func (d AnalyzerDiagnostic) MarshalJSON() ([]byte, error) {
	type alias AnalyzerDiagnostic
	return json.Marshal(struct {
		alias
		Duration int64 `json:"duration_ms"`
	}{alias: alias(d), Duration: d.Duration.Milliseconds()})
}

// RiskAssessment is the aggregated output of a single analysis round
// over a case: the rule result, the model result, the medication
// warnings, and the aggregator's final tier with its recommendation.
// Immutable once written.
type RiskAssessment struct {
	ID                  uuid.UUID            `json:"assessment_id"`
	CaseID              uuid.UUID            `json:"case_id"`
	RuleResult          RuleResult           `json:"rule_engine"`
	ModelResult         *ModelResult         `json:"ml_result"`
	MedWarnings         []MedicationWarning  `json:"med_warnings"`
	FinalRiskLevel      Tier                 `json:"final_risk_level"`
	FinalRiskScore      float64              `json:"final_risk_score"`
	Recommendation      string               `json:"recommendation"`
	EscalationSuggested bool                 `json:"escalation_suggested"`
	ModelVersion        string               `json:"model_version"`
	AnalyzerDiagnostics []AnalyzerDiagnostic `json:"analyzer_diagnostics,omitempty"`
	AssessedAt          time.Time            `json:"assessed_at"`
}
