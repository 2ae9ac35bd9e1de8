package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/mamacare/triagedesk/pkg/errorx"
	"github.com/mamacare/triagedesk/pkg/logger"
)

// ErrorHandlerMiddleware adapts handlers that return an error into plain
// http.HandlerFuncs, translating the error into the standard JSON envelope.
type ErrorHandlerMiddleware struct {
	log logger.Logger
}

// NewErrorHandlerMiddleware constructs an ErrorHandlerMiddleware.
func NewErrorHandlerMiddleware(log logger.Logger) *ErrorHandlerMiddleware {
	return &ErrorHandlerMiddleware{log: log}
}

// Handler wraps handler, writing its returned error (if any) as a JSON
// error response instead of requiring every handler to do so itself.
func (m *ErrorHandlerMiddleware) Handler(handler func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := GetRequestID(r.Context())

		err := handler(w, r)
		if err == nil {
			return
		}

		if errorx.HTTPStatusCode(err) >= 500 {
			m.log.Error("server error in api request", err,
				logger.Field{Key: "request_id", Value: requestID},
				logger.Field{Key: "method", Value: r.Method},
				logger.Field{Key: "path", Value: r.URL.Path},
			)
		} else {
			m.log.Warn("client error in api request",
				logger.Field{Key: "error", Value: err.Error()},
				logger.Field{Key: "request_id", Value: requestID},
				logger.Field{Key: "method", Value: r.Method},
				logger.Field{Key: "path", Value: r.URL.Path},
			)
		}

		statusCode := errorx.HTTPStatusCode(err)
		response := errorx.NewErrorResponse(err, requestID)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Wrap is a no-op passthrough kept for symmetry with Handler, for routes
// that already implement plain http.Handler.
func (m *ErrorHandlerMiddleware) Wrap(next http.Handler) http.Handler {
	return next
}
