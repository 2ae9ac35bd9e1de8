package validator

import (
	"reflect"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers every custom tag the intake DTOs
// use, including the vitals range checks drawn directly from §3 of
// the data model.
func (v *Validator) RegisterCustomValidators() {
	_ = v.RegisterCustomValidation("phone", isValidPhone)
	_ = v.RegisterCustomValidation("future_date", isFutureDate)
	_ = v.RegisterCustomValidation("latitude", isValidLatitude)
	_ = v.RegisterCustomValidation("longitude", isValidLongitude)
	_ = v.RegisterCustomValidation("time24h", isValidTime24h)
	_ = v.RegisterCustomValidation("uuid", isValidUUID)

	_ = v.RegisterCustomValidation("systolic_bp", rangeValidator(40, 350))
	_ = v.RegisterCustomValidation("diastolic_bp", rangeValidator(20, 250))
	_ = v.RegisterCustomValidation("heart_rate", rangeValidator(20, 350))
	_ = v.RegisterCustomValidation("respiratory_rate", rangeValidator(4, 80))
	_ = v.RegisterCustomValidation("spo2", rangeValidator(50.0, 100.0))
	_ = v.RegisterCustomValidation("temperature", rangeValidator(30.0, 45.0))
	_ = v.RegisterCustomValidation("blood_glucose", rangeValidator(20, 1000))
	_ = v.RegisterCustomValidation("gcs_score", rangeValidator(3, 15))
	_ = v.RegisterCustomValidation("patient_age", rangeValidator(0, 150))
}

// rangeValidator builds a validator.Func that accepts any numeric
// field whose value falls within [min, max] inclusive.
func rangeValidator(min, max float64) validator.Func {
	return func(fl validator.FieldLevel) bool {
		field := fl.Field()
		var v float64
		switch field.Kind() {
		case reflect.Float64, reflect.Float32:
			v = field.Float()
		default:
			v = float64(field.Int())
		}
		return v >= min && v <= max
	}
}

func isValidPhone(fl validator.FieldLevel) bool {
	re := regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	return re.MatchString(fl.Field().String())
}

func isFutureDate(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return date.After(time.Now().AddDate(0, 0, -1))
}

func isValidLatitude(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90 && lat <= 90
}

func isValidLongitude(fl validator.FieldLevel) bool {
	lng := fl.Field().Float()
	return lng >= -180 && lng <= 180
}

func isValidTime24h(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}

func isValidUUID(fl validator.FieldLevel) bool {
	re := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	return re.MatchString(fl.Field().String())
}
