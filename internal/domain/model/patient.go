package model

// Sex is the patient's reported sex.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// VulnerabilityFlag marks a patient characteristic that shifts the
// weight of clinical thresholds (e.g. pregnancy raises the bar for
// hypertension).
type VulnerabilityFlag string

const (
	FlagPregnant         VulnerabilityFlag = "pregnant"
	FlagDiabetic         VulnerabilityFlag = "diabetic"
	FlagElderly          VulnerabilityFlag = "elderly"
	FlagHeartDisease     VulnerabilityFlag = "heart_disease"
	FlagImmunocompromised VulnerabilityFlag = "immunocompromised"
)

// Patient is the immutable demographic snapshot taken at intake time.
// It is never mutated once a Case is opened; a new case is required to
// record a changed snapshot.
type Patient struct {
	ID      string                     `json:"id,omitempty"`
	Age     int                        `json:"age"`
	Sex     Sex                        `json:"sex"`
	GeoTags []string                   `json:"geo_tags,omitempty"`
	Flags   map[VulnerabilityFlag]bool `json:"vulnerability_flags,omitempty"`
}

// HasFlag reports whether the patient carries the given vulnerability
// flag.
func (p Patient) HasFlag(f VulnerabilityFlag) bool {
	return p.Flags[f]
}
