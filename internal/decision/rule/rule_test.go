package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamacare/triagedesk/internal/decision/rule"
	"github.com/mamacare/triagedesk/internal/domain/model"
)

func benignCase() model.Case {
	return model.Case{
		Patient: model.Patient{Age: 28, Sex: model.SexMale, Flags: map[model.VulnerabilityFlag]bool{}},
		Vitals: model.Vitals{
			SystolicBP:      122,
			DiastolicBP:     78,
			HeartRate:       72,
			RespiratoryRate: 16,
			SpO2:            98,
			Temperature:     36.9,
		},
	}
}

func TestEvaluate_BenignIntake(t *testing.T) {
	c := benignCase()
	c.Symptoms = []model.Symptom{{Name: "mild headache", Severity: model.SymptomMild}}

	result := rule.Evaluate(c)

	assert.False(t, result.Triggered)
	assert.Equal(t, model.TierLow, result.Level)
	assert.False(t, result.OverrideML)
}

func TestEvaluate_CriticalRuleOverridesModel(t *testing.T) {
	c := benignCase()
	c.Patient.Flags[model.FlagDiabetic] = true
	c.Patient.Flags[model.FlagHeartDisease] = true
	c.Vitals = model.Vitals{
		SystolicBP:      85,
		DiastolicBP:     55,
		HeartRate:       118,
		RespiratoryRate: 26,
		SpO2:            91.5,
		Temperature:     38.8,
	}
	c.Symptoms = []model.Symptom{
		{Name: "chest pain", IsRedFlag: true, Severity: model.SymptomSevere},
		{Name: "difficulty breathing", IsRedFlag: true},
	}

	result := rule.Evaluate(c)

	require.True(t, result.Triggered)
	assert.Equal(t, model.TierCritical, result.Level)
	assert.True(t, result.OverrideML)
	assert.Contains(t, result.Reasons, "systolic_bp out of safe range (<90 or >220)")
}

func TestEvaluate_PregnancyHypertension(t *testing.T) {
	c := benignCase()
	c.Patient.Flags[model.FlagPregnant] = true
	c.Vitals = model.Vitals{
		SystolicBP:      155,
		DiastolicBP:     100,
		HeartRate:       98,
		RespiratoryRate: 20,
		SpO2:            97,
		Temperature:     37.2,
	}
	c.Symptoms = []model.Symptom{
		{Name: "severe headache", IsRedFlag: true, Severity: model.SymptomSevere},
		{Name: "blurred vision", IsRedFlag: true, Severity: model.SymptomSevere},
	}

	result := rule.Evaluate(c)

	assert.Equal(t, model.TierCritical, result.Level)
	assert.Contains(t, result.Reasons, "pregnancy hypertension (sbp>=140 and dbp>=90)")
}

func TestEvaluate_HighTierOnTachycardia(t *testing.T) {
	c := benignCase()
	c.Vitals.HeartRate = 125

	result := rule.Evaluate(c)

	assert.Equal(t, model.TierHigh, result.Level)
	assert.True(t, result.Triggered)
	assert.False(t, result.OverrideML)
}

func TestEvaluate_IsTotalAndDeterministic(t *testing.T) {
	c := benignCase()
	first := rule.Evaluate(c)
	second := rule.Evaluate(c)
	assert.Equal(t, first, second)
}
