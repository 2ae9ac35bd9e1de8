package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mamacare/triagedesk/pkg/errorx"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// Validator encapsulates validator functionality.
type Validator struct {
	validate *validator.Validate
}

// New creates a new Validator with custom tag name resolution so
// error fields read as the request's JSON field names.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	vv := &Validator{validate: v}
	vv.RegisterCustomValidators()
	return vv
}

// RegisterCustomValidation registers a custom validation function
// under tag.
func (v *Validator) RegisterCustomValidation(tag string, fn validator.Func) error {
	return v.validate.RegisterValidation(tag, fn)
}

// Validate validates a struct, returning an errorx.ValidationFailed
// error enumerating every offending field when validation fails.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errorx.Wrap(err, errorx.ValidationFailed, "invalid input data")
	}

	customErr := errorx.New(errorx.ValidationFailed, "invalid input data")
	for _, fieldErr := range validationErrors {
		customErr.AddDetail(fieldErr.Field(), fieldErr.Tag(), fmt.Sprintf("%v", fieldErr.Value()))
	}

	return customErr
}

// ValidateVar validates a single value against a tag expression.
func (v *Validator) ValidateVar(field interface{}, tag string) error {
	if err := v.validate.Var(field, tag); err != nil {
		return errorx.Newf(errorx.ValidationFailed, "validation failed for field with tag %q", tag)
	}
	return nil
}
