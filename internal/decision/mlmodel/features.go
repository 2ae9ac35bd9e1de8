package mlmodel

import (
	"math"

	"github.com/mamacare/triagedesk/internal/domain/model"
)

// ExtractFeatures derives the deterministic feature vector for a case.
// Every feature is a pure function of the patient snapshot, vitals and
// symptoms already attached to the case; extraction performs no I/O.
func ExtractFeatures(c model.Case) map[string]float64 {
	f := map[string]float64{
		"age":              float64(c.Patient.Age),
		"systolic_bp":      float64(c.Vitals.SystolicBP),
		"diastolic_bp":     float64(c.Vitals.DiastolicBP),
		"heart_rate":       float64(c.Vitals.HeartRate),
		"respiratory_rate": float64(c.Vitals.RespiratoryRate),
		"spo2":             c.Vitals.SpO2,
		"temperature":      c.Vitals.Temperature,
		"shock_index":      float64(c.Vitals.HeartRate) / math.Max(float64(c.Vitals.SystolicBP), 1),
	}

	for flag := range c.Patient.Flags {
		if c.Patient.Flags[flag] {
			f["flag_"+string(flag)] = 1
		}
	}

	for _, s := range c.Symptoms {
		key := "symptom_" + normalizeSymptom(s.Name)
		f[key] = 1
		if s.IsRedFlag {
			f["has_red_flag_symptom"] = 1
		}
	}

	if hasSymptom(c, "chest pain") {
		f["has_chest_pain"] = 1
	}
	if hasSymptom(c, "difficulty breathing") || hasSymptom(c, "shortness of breath") {
		f["has_dyspnea"] = 1
	}

	return f
}

func hasSymptom(c model.Case, name string) bool {
	for _, s := range c.Symptoms {
		if normalizeSymptom(s.Name) == normalizeSymptom(name) {
			return true
		}
	}
	return false
}

func normalizeSymptom(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
