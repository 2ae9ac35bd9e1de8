package aggregator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamacare/triagedesk/internal/decision/aggregator"
	"github.com/mamacare/triagedesk/internal/decision/medengine"
	"github.com/mamacare/triagedesk/internal/decision/mlmodel"
	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/pkg/logger"
)

func newAggregator() *aggregator.Aggregator {
	log := logger.NewLogger(logger.Config{LogLevel: "error"})
	// No artifact on disk: the model analyzer reports unavailable and
	// the aggregator must still produce a complete assessment (S6).
	m := mlmodel.NewModel("/nonexistent/artifact.json", log)
	return aggregator.New(m, medengine.NewEngine(), log)
}

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
		Symptoms: []model.Symptom{{Name: "mild headache", Severity: model.SymptomMild}},
	}
}

func TestAnalyze_ModelAbsenceStillProducesAssessment(t *testing.T) {
	a := newAggregator()
	c := benignCase()

	assessment, err := a.Analyze(context.Background(), c)
	require.NoError(t, err)

	assert.Nil(t, assessment.ModelResult)
	assert.Equal(t, model.TierLow, assessment.FinalRiskLevel)
	assert.False(t, assessment.EscalationSuggested)
}

func TestAnalyze_CriticalRuleOverridesFinalLevel(t *testing.T) {
	a := newAggregator()
	c := benignCase()
	c.Vitals.SpO2 = 85

	assessment, err := a.Analyze(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, model.TierCritical, assessment.FinalRiskLevel)
	assert.True(t, assessment.EscalationSuggested)
}

func TestAnalyze_FinalLevelAlwaysDefined(t *testing.T) {
	a := newAggregator()
	c := benignCase()

	assessment, err := a.Analyze(context.Background(), c)
	require.NoError(t, err)

	switch assessment.FinalRiskLevel {
	case model.TierLow, model.TierModerate, model.TierHigh, model.TierCritical:
	default:
		t.Fatalf("unexpected final risk level %q", assessment.FinalRiskLevel)
	}
}

func TestAnalyze_RecommendationIsDeterministic(t *testing.T) {
	a := newAggregator()
	c := benignCase()

	first, err := a.Analyze(context.Background(), c)
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, first.Recommendation, second.Recommendation)
}

func TestAnalyze_MedOverrideEscalates(t *testing.T) {
	a := newAggregator()
	c := benignCase()
	c.Medications = []model.Medication{{DrugName: "Warfarin"}, {DrugName: "Aspirin"}}

	assessment, err := a.Analyze(context.Background(), c)
	require.NoError(t, err)

	assert.True(t, assessment.EscalationSuggested)
	require.NotEmpty(t, assessment.MedWarnings)
	assert.True(t, assessment.MedWarnings[0].OverrideTriggered)
}
