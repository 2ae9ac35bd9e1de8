// Package handover produces the four-field SBAR summary given to a
// specialist on escalation. Generation never blocks escalation: a
// failing or slow external text service falls back to a deterministic
// template.
package handover

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/pkg/logger"
)

// DefaultTimeout is the ceiling the generator waits on an external
// text service before falling back.
const DefaultTimeout = 5 * time.Second

// TextService is an optional collaborator that can produce richer
// prose for the handover fields. It is never required: Generate
// always returns a usable Handover even if no TextService is
// configured or the call fails.
type TextService interface {
	Summarize(ctx context.Context, c model.Case, a model.RiskAssessment) (situation, background, assessment, recommendation string, err error)
}

// Generator builds SBAR handovers.
type Generator struct {
	textService TextService
	timeout     time.Duration
	log         logger.Logger
}

// New constructs a Generator. textService may be nil, in which case
// every handover is produced from the deterministic template.
func New(textService TextService, log logger.Logger) *Generator {
	return NewWithTimeout(textService, DefaultTimeout, log)
}

// NewWithTimeout is like New but overrides the text-service deadline,
// primarily for tests that need to exercise the timeout path quickly.
func NewWithTimeout(textService TextService, timeout time.Duration, log logger.Logger) *Generator {
	return &Generator{textService: textService, timeout: timeout, log: log}
}

// Generate produces the SBAR summary for an escalated case. It is
// safe to call inside the escalation transaction: on any failure it
// returns the fallback template rather than an error.
func (g *Generator) Generate(ctx context.Context, c model.Case, a model.RiskAssessment) model.Handover {
	if g.textService != nil {
		tctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		type result struct {
			situation, background, assessment, recommendation string
			err                                                error
		}
		done := make(chan result, 1)

		go func() {
			s, b, as, r, err := g.textService.Summarize(tctx, c, a)
			done <- result{s, b, as, r, err}
		}()

		select {
		case r := <-done:
			if r.err == nil {
				return model.Handover{
					Situation:      r.situation,
					Background:     r.background,
					Assessment:     r.assessment,
					Recommendation: r.recommendation,
				}
			}
			g.log.Warn("handover text service failed, using fallback template", logger.Field{Key: "error", Value: r.err.Error()})
		case <-tctx.Done():
			g.log.Warn("handover text service timed out, using fallback template")
		}
	}

	return fallbackTemplate(c, a)
}

// fallbackTemplate builds the SBAR fields deterministically from the
// case and assessment alone, with no external dependency.
func fallbackTemplate(c model.Case, a model.RiskAssessment) model.Handover {
	situation := fmt.Sprintf(
		"%d-year-old %s at %s, chief complaint: %s. Final risk level: %s.",
		c.Patient.Age, c.Patient.Sex, c.Facility, orDefault(c.ChiefComplaint, "not specified"), strings.ToUpper(string(a.FinalRiskLevel)),
	)

	background := backgroundText(c)

	assessment := assessmentText(a)

	recommendation := a.Recommendation
	if recommendation == "" {
		recommendation = "Specialist review requested; see assessment for details."
	}

	return model.Handover{
		Situation:      situation,
		Background:     background,
		Assessment:     assessment,
		Recommendation: recommendation,
		Fallback:       true,
	}
}

func backgroundText(c model.Case) string {
	var flags []string
	for flag, set := range c.Patient.Flags {
		if set {
			flags = append(flags, string(flag))
		}
	}
	sort.Strings(flags)

	var meds []string
	for _, m := range c.Medications {
		meds = append(meds, m.DrugName)
	}

	parts := []string{
		fmt.Sprintf("Vitals: BP %d/%d, HR %d, RR %d, SpO2 %.1f%%, Temp %.1fC.",
			c.Vitals.SystolicBP, c.Vitals.DiastolicBP, c.Vitals.HeartRate,
			c.Vitals.RespiratoryRate, c.Vitals.SpO2, c.Vitals.Temperature),
	}
	if len(flags) > 0 {
		parts = append(parts, "Risk factors: "+strings.Join(flags, ", ")+".")
	}
	if len(meds) > 0 {
		parts = append(parts, "Current medications: "+strings.Join(meds, ", ")+".")
	}

	return strings.Join(parts, " ")
}

func assessmentText(a model.RiskAssessment) string {
	var reasons []string
	reasons = append(reasons, a.RuleResult.Reasons...)
	for _, w := range a.MedWarnings {
		reasons = append(reasons, w.Message)
	}
	if len(reasons) == 0 {
		return fmt.Sprintf("No rule-based or medication findings; final level %s.", a.FinalRiskLevel)
	}
	return strings.Join(reasons, " ")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
