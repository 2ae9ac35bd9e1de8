package mlmodel_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamacare/triagedesk/internal/decision/mlmodel"
	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/pkg/errorx"
	"github.com/mamacare/triagedesk/pkg/logger"
)

func writeArtifact(t *testing.T, a mlmodel.Artifact) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.json")
	data, err := json.Marshal(a)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestNewModel_MissingArtifactIsUnavailable(t *testing.T) {
	log := logger.NewLogger(logger.Config{LogLevel: "error"})
	m := mlmodel.NewModel("/nonexistent/path.json", log)

	assert.False(t, m.Available())

	_, err := m.Predict(map[string]float64{"age": 30})
	require.Error(t, err)
	assert.True(t, errorx.Is(err, errorx.Unavailable))
}

func TestPredict_TierBoundaries(t *testing.T) {
	log := logger.NewLogger(logger.Config{LogLevel: "error"})
	path := writeArtifact(t, mlmodel.Artifact{
		Version: "v-test",
		Bias:    -5,
		Weights: map[string]float64{"x": 10},
		Labels:  map[string]string{"x": "feature x"},
	})
	m := mlmodel.NewModel(path, log)
	require.True(t, m.Available())

	result, err := m.Predict(map[string]float64{"x": 0.5})
	require.NoError(t, err)

	switch result.Level {
	case model.TierLow, model.TierModerate, model.TierHigh, model.TierCritical:
	default:
		t.Fatalf("unexpected tier %q", result.Level)
	}
	// z = -5 + 10*0.5 = 0, so p = 0.5, which lies in [0.30, 0.55).
	assert.Equal(t, model.TierModerate, result.Level)
	assert.NotEmpty(t, result.ShapText)
	assert.LessOrEqual(t, len(result.Attributions), 5)
}

func TestPredict_AttributionsAreMonotonic(t *testing.T) {
	log := logger.NewLogger(logger.Config{LogLevel: "error"})
	path := writeArtifact(t, mlmodel.Artifact{
		Version: "v-test",
		Weights: map[string]float64{"a": 5, "b": 1, "c": -3},
	})
	m := mlmodel.NewModel(path, log)

	result, err := m.Predict(map[string]float64{"a": 1, "b": 1, "c": 1})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(result.Attributions), 2)

	for i := 1; i < len(result.Attributions); i++ {
		prevAbs := abs(result.Attributions[i-1].Contribution)
		curAbs := abs(result.Attributions[i].Contribution)
		assert.GreaterOrEqual(t, prevAbs, curAbs)
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
