package model

// Vitals is the point-in-time set of patient vital signs recorded at
// intake. A vitals snapshot is immutable once attached to a case;
// optional fields distinguish "not measured" from a zero reading.
type Vitals struct {
	SystolicBP      int      `json:"systolic_bp"`
	DiastolicBP     int      `json:"diastolic_bp"`
	HeartRate       int      `json:"heart_rate"`
	RespiratoryRate int      `json:"respiratory_rate"`
	SpO2            float64  `json:"spo2"`
	Temperature     float64  `json:"temperature"`
	BloodGlucose    *float64 `json:"blood_glucose_mgdl,omitempty"`
	WeightKg        *float64 `json:"weight_kg,omitempty"`
	GCSScore        *int     `json:"gcs_score,omitempty"`
}

// Range bounds the declared valid interval for one vital, per §3.
type Range struct {
	Min, Max float64
}

var (
	RangeSystolicBP      = Range{40, 350}
	RangeDiastolicBP     = Range{20, 250}
	RangeHeartRate       = Range{20, 350}
	RangeRespiratoryRate = Range{4, 80}
	RangeSpO2            = Range{50.0, 100.0}
	RangeTemperature     = Range{30.0, 45.0}
	RangeBloodGlucose    = Range{20, 1000}
	RangeGCS             = Range{3, 15}
	RangeAge             = Range{0, 150}
)

// Within reports whether v is inside the inclusive range [Min, Max].
func (r Range) Within(v float64) bool {
	return v >= r.Min && v <= r.Max
}
