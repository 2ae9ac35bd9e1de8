// Package rule implements the deterministic vitals/symptom guardrail:
// a pure, total function that can unilaterally drive a case to
// critical regardless of what the probabilistic model says.
package rule

import (
	"fmt"

	"github.com/mamacare/triagedesk/internal/domain/model"
)

// threshold is one row of the fixed clinical rule table. Order matters:
// ties among triggered rules at the same candidate level break in
// table order, per §4.4 of the design.
type threshold struct {
	level       model.Tier
	description string
	check       func(in model.Case) bool
}

var table = []threshold{
	{
		level:       model.TierCritical,
		description: "spo2 < 90.0",
		check: func(c model.Case) bool {
			return c.Vitals.SpO2 < 90.0
		},
	},
	{
		level:       model.TierCritical,
		description: "systolic_bp out of safe range (<90 or >220)",
		check: func(c model.Case) bool {
			return c.Vitals.SystolicBP < 90 || c.Vitals.SystolicBP > 220
		},
	},
	{
		level:       model.TierCritical,
		description: "respiratory_rate out of safe range (<8 or >30)",
		check: func(c model.Case) bool {
			return c.Vitals.RespiratoryRate < 8 || c.Vitals.RespiratoryRate > 30
		},
	},
	{
		level:       model.TierCritical,
		description: "heart_rate out of safe range (<40 or >130)",
		check: func(c model.Case) bool {
			return c.Vitals.HeartRate < 40 || c.Vitals.HeartRate > 130
		},
	},
	{
		level:       model.TierCritical,
		description: "temperature out of safe range (<35.0 or >39.5)",
		check: func(c model.Case) bool {
			return c.Vitals.Temperature < 35.0 || c.Vitals.Temperature > 39.5
		},
	},
	{
		level:       model.TierCritical,
		description: "gcs_score below 13",
		check: func(c model.Case) bool {
			return c.Vitals.GCSScore != nil && *c.Vitals.GCSScore < 13
		},
	},
	{
		level:       model.TierCritical,
		description: "red-flag symptom reported",
		check: func(c model.Case) bool {
			for _, s := range c.Symptoms {
				if s.IsRedFlag {
					return true
				}
			}
			return false
		},
	},
	{
		level:       model.TierCritical,
		description: "pregnancy hypertension (sbp>=140 and dbp>=90)",
		check: func(c model.Case) bool {
			return c.Patient.HasFlag(model.FlagPregnant) &&
				c.Vitals.SystolicBP >= 140 && c.Vitals.DiastolicBP >= 90
		},
	},
	{
		level:       model.TierHigh,
		description: "tachycardia, borderline hypoxia or fever",
		check: func(c model.Case) bool {
			return c.Vitals.HeartRate > 120 ||
				(c.Vitals.SpO2 >= 90 && c.Vitals.SpO2 < 94) ||
				c.Vitals.Temperature > 38.5
		},
	},
}

// Evaluate runs every threshold in the table against the case's
// vitals, symptoms and vulnerability flags. It is a pure function: no
// I/O, no allocation beyond its own return value, and it always
// terminates.
func Evaluate(c model.Case) model.RuleResult {
	result := model.RuleResult{Level: model.TierLow}

	for _, t := range table {
		if !t.check(c) {
			continue
		}
		result.Triggered = true
		result.Reasons = append(result.Reasons, t.description)
		result.Level = result.Level.Max(t.level)
	}

	result.OverrideML = result.Level == model.TierCritical

	return result
}

// String renders a RuleResult for log lines and diagnostics.
func String(r model.RuleResult) string {
	return fmt.Sprintf("triggered=%t level=%s reasons=%d", r.Triggered, r.Level, len(r.Reasons))
}
