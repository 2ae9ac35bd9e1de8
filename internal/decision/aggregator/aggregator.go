// Package aggregator fans the three analyzers (rule, model, medication)
// out concurrently, joins their results under a composite deadline,
// and applies the declared override precedence to produce one
// immutable risk assessment.
package aggregator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mamacare/triagedesk/internal/decision/medengine"
	"github.com/mamacare/triagedesk/internal/decision/mlmodel"
	"github.com/mamacare/triagedesk/internal/decision/rule"
	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/pkg/errorx"
	"github.com/mamacare/triagedesk/pkg/logger"
)

// Deadlines for each analyzer task, per §5 of the design.
const (
	CompositeDeadline = 5 * time.Second
	RuleDeadline      = 50 * time.Millisecond
	ModelDeadline     = 2 * time.Second
	MedEngineDeadline = 1 * time.Second
)

// Aggregator owns the three analyzers and runs them per request.
type Aggregator struct {
	model     *mlmodel.Model
	medEngine *medengine.Engine
	log       logger.Logger
}

// New constructs an Aggregator over the given analyzers.
func New(model *mlmodel.Model, medEngine *medengine.Engine, log logger.Logger) *Aggregator {
	return &Aggregator{model: model, medEngine: medEngine, log: log}
}

// Analyze runs the rule guardrail, risk model and medication engine
// concurrently against c, then composes the final assessment.
//
// The rule guardrail is the safety floor: if it cannot complete within
// its own deadline, the whole request fails fatal. The model and
// medication engine degrade independently; their absence is recorded
// as an AnalyzerDiagnostic rather than failing the request.
func (a *Aggregator) Analyze(ctx context.Context, c model.Case) (*model.RiskAssessment, error) {
	ctx, cancel := context.WithTimeout(ctx, CompositeDeadline)
	defer cancel()

	var (
		ruleResult  model.RuleResult
		modelResult *model.ModelResult
		medWarnings []model.MedicationWarning
		diagnostics []model.AnalyzerDiagnostic
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		done := make(chan model.RuleResult, 1)
		go func() { done <- rule.Evaluate(c) }()

		select {
		case r := <-done:
			ruleResult = r
			diagnostics = append(diagnostics, model.AnalyzerDiagnostic{Analyzer: "rule", Status: "ok", Duration: time.Since(start)})
			return nil
		case <-time.After(RuleDeadline):
			return errorx.New(errorx.Unavailable, "rule guardrail exceeded its deadline")
		case <-gctx.Done():
			return gctx.Err()
		}
	})

	g.Go(func() error {
		start := time.Now()
		mctx, mcancel := context.WithTimeout(gctx, ModelDeadline)
		defer mcancel()

		if a.model == nil || !a.model.Available() {
			diagnostics = append(diagnostics, model.AnalyzerDiagnostic{Analyzer: "model", Status: "unavailable", Duration: time.Since(start)})
			return nil
		}

		features := mlmodel.ExtractFeatures(c)
		done := make(chan *model.ModelResult, 1)
		errCh := make(chan error, 1)
		go func() {
			result, err := a.model.Predict(features)
			if err != nil {
				errCh <- err
				return
			}
			done <- result
		}()

		select {
		case result := <-done:
			modelResult = result
			diagnostics = append(diagnostics, model.AnalyzerDiagnostic{Analyzer: "model", Status: "ok", Duration: time.Since(start)})
		case err := <-errCh:
			diagnostics = append(diagnostics, model.AnalyzerDiagnostic{Analyzer: "model", Status: "unavailable", Duration: time.Since(start), Detail: err.Error()})
		case <-mctx.Done():
			diagnostics = append(diagnostics, model.AnalyzerDiagnostic{Analyzer: "model", Status: "timeout", Duration: time.Since(start)})
		}
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		mctx, mcancel := context.WithTimeout(gctx, MedEngineDeadline)
		defer mcancel()

		done := make(chan []model.MedicationWarning, 1)
		errCh := make(chan error, 1)
		go func() {
			warnings, err := a.medEngine.Evaluate(mctx, c.Medications, c.Patient.Flags, c.Symptoms)
			if err != nil {
				errCh <- err
				return
			}
			done <- warnings
		}()

		select {
		case warnings := <-done:
			medWarnings = warnings
			diagnostics = append(diagnostics, model.AnalyzerDiagnostic{Analyzer: "medengine", Status: "ok", Duration: time.Since(start)})
		case err := <-errCh:
			a.log.Error("medication engine failed", err)
			diagnostics = append(diagnostics, model.AnalyzerDiagnostic{Analyzer: "medengine", Status: "error", Duration: time.Since(start), Detail: err.Error()})
		case <-mctx.Done():
			diagnostics = append(diagnostics, model.AnalyzerDiagnostic{Analyzer: "medengine", Status: "timeout", Duration: time.Since(start)})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, errorx.Wrap(err, errorx.Unavailable, "rule guardrail unavailable")
	}

	assessment := compose(c, ruleResult, modelResult, medWarnings)
	assessment.AnalyzerDiagnostics = diagnostics

	return assessment, nil
}

// compose applies the override precedence from §4.4 and builds the
// deterministic recommendation string.
func compose(c model.Case, ruleResult model.RuleResult, modelResult *model.ModelResult, medWarnings []model.MedicationWarning) *model.RiskAssessment {
	medOverride := false
	for _, w := range medWarnings {
		if w.OverrideTriggered {
			medOverride = true
			break
		}
	}

	var finalLevel model.Tier
	switch {
	case ruleResult.Level == model.TierCritical:
		finalLevel = model.TierCritical
	case medOverride:
		finalLevel = model.TierHigh
		if modelResult != nil {
			finalLevel = finalLevel.Max(modelResult.Level)
		}
	case modelResult != nil:
		finalLevel = modelResult.Level
	default:
		finalLevel = ruleResult.Level.Max(model.TierLow)
	}

	finalScore := scoreForLevel(finalLevel)
	if modelResult != nil {
		finalScore = modelResult.Probability
	}

	escalationSuggested := finalLevel == model.TierHigh || finalLevel == model.TierCritical || medOverride

	recommendation := composeRecommendation(finalLevel, ruleResult, modelResult, medWarnings)

	modelVersion := ""
	if modelResult != nil {
		modelVersion = modelResult.ModelVersion
	}

	return &model.RiskAssessment{
		CaseID:              c.ID,
		RuleResult:          ruleResult,
		ModelResult:         modelResult,
		MedWarnings:         medWarnings,
		FinalRiskLevel:      finalLevel,
		FinalRiskScore:      finalScore,
		Recommendation:      recommendation,
		EscalationSuggested: escalationSuggested,
		ModelVersion:        modelVersion,
		AssessedAt:          time.Now().UTC(),
	}
}

func scoreForLevel(level model.Tier) float64 {
	switch level {
	case model.TierCritical:
		return 1.0
	case model.TierHigh:
		return 0.70
	case model.TierModerate:
		return 0.45
	default:
		return 0.15
	}
}

// composeRecommendation builds the deterministic recommendation
// string: a leading tag for the final level, the first rule reason if
// any, the model's shap_text if any, then each med warning message
// prefixed by its severity — so identical inputs always yield
// byte-identical output.
func composeRecommendation(level model.Tier, ruleResult model.RuleResult, modelResult *model.ModelResult, medWarnings []model.MedicationWarning) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s]", strings.ToUpper(string(level))))

	if len(ruleResult.Reasons) > 0 {
		parts = append(parts, ruleResult.Reasons[0])
	}

	if modelResult != nil && modelResult.ShapText != "" {
		parts = append(parts, modelResult.ShapText)
	}

	for _, w := range medWarnings {
		parts = append(parts, fmt.Sprintf("(%s) %s", w.SeverityLabel, w.Message))
	}

	return strings.Join(parts, " ")
}
