package handover_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamacare/triagedesk/internal/decision/handover"
	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/pkg/logger"
)

type stubTextService struct {
	err   error
	delay time.Duration
}

func (s stubTextService) Summarize(ctx context.Context, c model.Case, a model.RiskAssessment) (string, string, string, string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", "", "", "", ctx.Err()
		}
	}
	if s.err != nil {
		return "", "", "", "", s.err
	}
	return "sit", "bg", "as", "rec", nil
}

func sampleCase() model.Case {
	return model.Case{
		Patient:  model.Patient{Age: 45, Sex: model.SexFemale, Flags: map[model.VulnerabilityFlag]bool{}},
		Facility: "Clinic A",
		Vitals:   model.Vitals{SystolicBP: 85, DiastolicBP: 55, HeartRate: 118, RespiratoryRate: 26, SpO2: 91.5, Temperature: 38.8},
	}
}

func TestGenerate_UsesTextServiceWhenItSucceeds(t *testing.T) {
	log := logger.NewLogger(logger.Config{LogLevel: "error"})
	g := handover.New(stubTextService{}, log)

	h := g.Generate(context.Background(), sampleCase(), model.RiskAssessment{FinalRiskLevel: model.TierCritical})

	assert.Equal(t, "sit", h.Situation)
	assert.False(t, h.Fallback)
}

func TestGenerate_FallsBackOnServiceError(t *testing.T) {
	log := logger.NewLogger(logger.Config{LogLevel: "error"})
	g := handover.New(stubTextService{err: errors.New("boom")}, log)

	h := g.Generate(context.Background(), sampleCase(), model.RiskAssessment{FinalRiskLevel: model.TierCritical})

	require.True(t, h.Fallback)
	assert.Contains(t, h.Situation, "CRITICAL")
}

func TestGenerate_FallsBackOnTimeout(t *testing.T) {
	log := logger.NewLogger(logger.Config{LogLevel: "error"})
	g := handover.NewWithTimeout(stubTextService{delay: 50 * time.Millisecond}, 10*time.Millisecond, log)

	start := time.Now()
	h := g.Generate(context.Background(), sampleCase(), model.RiskAssessment{FinalRiskLevel: model.TierHigh})
	elapsed := time.Since(start)

	assert.True(t, h.Fallback)
	assert.Less(t, elapsed, handover.DefaultTimeout)
}

func TestGenerate_NilTextServiceUsesFallback(t *testing.T) {
	log := logger.NewLogger(logger.Config{LogLevel: "error"})
	g := handover.New(nil, log)

	h := g.Generate(context.Background(), sampleCase(), model.RiskAssessment{FinalRiskLevel: model.TierLow})

	assert.True(t, h.Fallback)
	assert.NotEmpty(t, h.Recommendation)
}
