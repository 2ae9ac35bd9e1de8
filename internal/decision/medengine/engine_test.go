package medengine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamacare/triagedesk/internal/decision/medengine"
	"github.com/mamacare/triagedesk/internal/domain/model"
)

func TestEvaluate_BetaBlockerWithBradycardia(t *testing.T) {
	e := medengine.NewEngine()

	meds := []model.Medication{{DrugName: "Atenolol", Dose: "50mg", Route: "OD"}}
	symptoms := []model.Symptom{{Name: "bradycardia", IsRedFlag: true, Severity: model.SymptomSevere}}

	warnings, err := e.Evaluate(context.Background(), meds, map[model.VulnerabilityFlag]bool{}, symptoms)
	require.NoError(t, err)
	require.Len(t, warnings, 1)

	assert.Equal(t, "drug-symptom", warnings[0].Type)
	assert.Equal(t, model.SeveritySevere, warnings[0].Severity)
	assert.True(t, warnings[0].OverrideTriggered)
}

func TestEvaluate_DrugDrugContraindication(t *testing.T) {
	e := medengine.NewEngine()

	meds := []model.Medication{{DrugName: "Warfarin"}, {DrugName: "Aspirin"}}

	warnings, err := e.Evaluate(context.Background(), meds, map[model.VulnerabilityFlag]bool{}, nil)
	require.NoError(t, err)
	require.Len(t, warnings, 1)

	assert.Equal(t, "drug-drug", warnings[0].Type)
	assert.Equal(t, model.SeverityContraindicated, warnings[0].Severity)
	assert.True(t, warnings[0].OverrideTriggered)
}

func TestEvaluate_DrugConditionFlagGated(t *testing.T) {
	e := medengine.NewEngine()

	meds := []model.Medication{{DrugName: "Ibuprofen"}}
	flags := map[model.VulnerabilityFlag]bool{model.FlagHeartDisease: true}

	warnings, err := e.Evaluate(context.Background(), meds, flags, nil)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "drug-condition", warnings[0].Type)

	// Without the flag, no warning is produced.
	warnings, err = e.Evaluate(context.Background(), meds, map[model.VulnerabilityFlag]bool{}, nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestEvaluate_NoMedicationsNoWarnings(t *testing.T) {
	e := medengine.NewEngine()
	warnings, err := e.Evaluate(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestEvaluate_OrderingIsDeterministic(t *testing.T) {
	e := medengine.NewEngine()
	meds := []model.Medication{{DrugName: "Aspirin"}, {DrugName: "Warfarin"}, {DrugName: "Ibuprofen"}}
	flags := map[model.VulnerabilityFlag]bool{model.FlagHeartDisease: true}

	first, err := e.Evaluate(context.Background(), meds, flags, nil)
	require.NoError(t, err)
	second, err := e.Evaluate(context.Background(), meds, flags, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	if len(first) > 1 {
		assert.GreaterOrEqual(t, first[0].Severity, first[1].Severity)
	}
}
