package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"reflect"

	"github.com/mamacare/triagedesk/pkg/errorx"
	"github.com/mamacare/triagedesk/pkg/logger"
	"github.com/mamacare/triagedesk/pkg/validator"
)

type validatedBodyKey struct{}

// ValidatorMiddleware decodes and validates a JSON request body before the
// handler runs, storing the validated struct on the request context.
type ValidatorMiddleware struct {
	validate *validator.Validator
	log      logger.Logger
}

// NewValidatorMiddleware constructs a ValidatorMiddleware.
func NewValidatorMiddleware(log logger.Logger) *ValidatorMiddleware {
	return &ValidatorMiddleware{validate: validator.New(), log: log}
}

// ValidateBody decodes the request body into a new value of dest's type,
// validates it, and stores the result on the request context for the
// handler to retrieve with GetValidatedBody.
func (v *ValidatorMiddleware) ValidateBody(dest interface{}) func(http.Handler) http.Handler {
	t := reflect.TypeOf(dest)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := GetRequestID(r.Context())

			if r.Body == nil {
				v.handleError(w, errorx.New(errorx.InvalidRequest, "missing request body"), reqID)
				return
			}

			body, err := io.ReadAll(r.Body)
			_ = r.Body.Close()
			if err != nil {
				v.handleError(w, errorx.Wrap(err, errorx.InvalidRequest, "failed to read request body"), reqID)
				return
			}

			destValue := reflect.New(t).Interface()
			if err := json.Unmarshal(body, destValue); err != nil {
				v.handleError(w, errorx.Wrap(err, errorx.InvalidRequest, "invalid JSON format"), reqID)
				return
			}

			if err := v.validate.Validate(destValue); err != nil {
				v.handleError(w, err, reqID)
				return
			}

			ctx := context.WithValue(r.Context(), validatedBodyKey{}, destValue)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetValidatedBody retrieves the value stored by ValidateBody.
func GetValidatedBody(r *http.Request) interface{} {
	return r.Context().Value(validatedBodyKey{})
}

func (v *ValidatorMiddleware) handleError(w http.ResponseWriter, err error, reqID string) {
	v.log.Warn("request validation failed",
		logger.Field{Key: "error", Value: err.Error()},
		logger.Field{Key: "request_id", Value: reqID},
	)

	resp := errorx.NewErrorResponse(err, reqID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errorx.HTTPStatusCode(err))
	_ = json.NewEncoder(w).Encode(resp)
}
