// Package medengine detects dangerous medication patterns: drug-drug
// interactions, drug-condition contraindications, and drug-symptom
// patterns suggesting a current medication is already causing harm.
package medengine

import (
	"context"
	"sort"

	"github.com/mamacare/triagedesk/internal/domain/model"
)

// Engine evaluates the three pattern families against a case's
// medications, vulnerability flags and symptoms. It is read-only:
// construction loads nothing from the database, the reference tables
// are process-local and fixed at compile time.
type Engine struct{}

// NewEngine constructs a medication engine. It carries no state; the
// interaction tables it consults are package-level values.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs all three pattern families and returns the combined,
// deterministically ordered warning list.
func (e *Engine) Evaluate(ctx context.Context, meds []model.Medication, flags map[model.VulnerabilityFlag]bool, symptoms []model.Symptom) ([]model.MedicationWarning, error) {
	var warnings []model.MedicationWarning

	warnings = append(warnings, e.evaluateDrugDrug(meds)...)
	warnings = append(warnings, e.evaluateDrugCondition(meds, flags)...)
	warnings = append(warnings, e.evaluateDrugSymptom(meds, symptoms)...)

	sortWarnings(warnings)

	return warnings, nil
}

func (e *Engine) evaluateDrugDrug(meds []model.Medication) []model.MedicationWarning {
	var out []model.MedicationWarning

	for i := 0; i < len(meds); i++ {
		ni, ok := resolveDrugName(meds[i].DrugName)
		if !ok {
			continue
		}
		for j := i + 1; j < len(meds); j++ {
			nj, ok := resolveDrugName(meds[j].DrugName)
			if !ok {
				continue
			}
			rule, ok := drugDrugTable[pairKey(ni, nj)]
			if !ok {
				continue
			}
			out = append(out, model.MedicationWarning{
				Drug1:             meds[i].DrugName,
				Drug2:             meds[j].DrugName,
				Type:              "drug-drug",
				Severity:          rule.severity,
				SeverityLabel:     rule.severity.String(),
				Message:           rule.message,
				ActionRequired:    actionForSeverity(rule.severity),
				OverrideTriggered: rule.severity >= model.SeveritySevere,
			})
		}
	}

	return out
}

func (e *Engine) evaluateDrugCondition(meds []model.Medication, flags map[model.VulnerabilityFlag]bool) []model.MedicationWarning {
	var out []model.MedicationWarning

	for _, med := range meds {
		resolved, ok := resolveDrugName(med.DrugName)
		if !ok {
			continue
		}
		for _, rule := range drugConditionTable {
			if normalizeDrug(rule.drug) != resolved {
				continue
			}
			if !flags[rule.flag] {
				continue
			}
			out = append(out, model.MedicationWarning{
				Drug1:             med.DrugName,
				Type:              "drug-condition",
				Severity:          rule.severity,
				SeverityLabel:     rule.severity.String(),
				Message:           rule.message,
				ActionRequired:    actionForSeverity(rule.severity),
				OverrideTriggered: rule.severity >= model.SeveritySevere,
			})
		}
	}

	return out
}

func (e *Engine) evaluateDrugSymptom(meds []model.Medication, symptoms []model.Symptom) []model.MedicationWarning {
	var out []model.MedicationWarning

	for _, med := range meds {
		resolved, ok := resolveDrugName(med.DrugName)
		if !ok {
			continue
		}
		for _, rule := range drugSymptomTable {
			if normalizeDrug(rule.drug) != resolved {
				continue
			}
			if !caseHasSymptomLike(symptoms, rule.symptom) {
				continue
			}
			out = append(out, model.MedicationWarning{
				Drug1:             med.DrugName,
				Type:              "drug-symptom",
				Severity:          rule.severity,
				SeverityLabel:     rule.severity.String(),
				Message:           rule.message,
				ActionRequired:    actionForSeverity(rule.severity),
				OverrideTriggered: rule.severity >= model.SeveritySevere || rule.isDanger,
			})
		}
	}

	return out
}

func caseHasSymptomLike(symptoms []model.Symptom, target string) bool {
	for _, s := range symptoms {
		if trigramSimilarity(normalizeDrug(s.Name), normalizeDrug(target)) >= fuzzyMatchThreshold {
			return true
		}
	}
	return false
}

func actionForSeverity(s model.InteractionSeverity) string {
	switch s {
	case model.SeverityContraindicated:
		return "do_not_administer"
	case model.SeveritySevere:
		return "specialist_review_required"
	case model.SeverityModerate:
		return "monitor_closely"
	default:
		return "counsel_patient"
	}
}

// typeRank orders warning categories for the tie-break rule: drug-drug
// before drug-condition before drug-symptom.
func typeRank(t string) int {
	switch t {
	case "drug-drug":
		return 0
	case "drug-condition":
		return 1
	case "drug-symptom":
		return 2
	default:
		return 3
	}
}

// sortWarnings orders warnings per §4.4: contraindicated > severe >
// moderate > mild; within a severity, drug-drug before drug-condition
// before drug-symptom; within a category, alphabetical on drug1 then
// drug2.
func sortWarnings(warnings []model.MedicationWarning) {
	sort.SliceStable(warnings, func(i, j int) bool {
		a, b := warnings[i], warnings[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if typeRank(a.Type) != typeRank(b.Type) {
			return typeRank(a.Type) < typeRank(b.Type)
		}
		if a.Drug1 != b.Drug1 {
			return a.Drug1 < b.Drug1
		}
		return a.Drug2 < b.Drug2
	})
}
