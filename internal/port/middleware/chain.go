package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mamacare/triagedesk/pkg/logger"
)

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Chain composes a series of middleware into a single http.Handler wrapper.
type Chain struct {
	middlewares []Middleware
}

// NewChain builds a Chain from the given middleware, applied in the order
// given (the first middleware listed runs outermost).
func NewChain(middlewares ...Middleware) Chain {
	return Chain{middlewares: append([]Middleware(nil), middlewares...)}
}

// Then applies the chain to h.
func (c Chain) Then(h http.Handler) http.Handler {
	if h == nil {
		h = http.DefaultServeMux
	}
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		h = c.middlewares[i](h)
	}
	return h
}

// Append returns a new Chain with middlewares added to the end.
func (c Chain) Append(middlewares ...Middleware) Chain {
	next := make([]Middleware, len(c.middlewares)+len(middlewares))
	copy(next, c.middlewares)
	copy(next[len(c.middlewares):], middlewares)
	return Chain{middlewares: next}
}

// ResponseWriter wraps http.ResponseWriter to capture the status code and
// byte count written, for logging and metrics middleware.
type ResponseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Status returns the captured status code, defaulting to 200 if the
// handler never called WriteHeader explicitly.
func (rw *ResponseWriter) Status() int {
	if rw.statusCode == 0 {
		return http.StatusOK
	}
	return rw.statusCode
}

// BytesWritten returns the number of response bytes written.
func (rw *ResponseWriter) BytesWritten() int64 {
	return rw.written
}

// RequestIDMiddleware assigns a request ID (reusing an inbound
// X-Request-ID header when present) and stores it on the context.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware logs one line per request, at a level chosen by the
// response status.
func LoggingMiddleware(log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &ResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			fields := []logger.Field{
				{Key: "method", Value: r.Method},
				{Key: "path", Value: r.URL.Path},
				{Key: "status", Value: rw.Status()},
				{Key: "duration_ms", Value: time.Since(start).Milliseconds()},
				{Key: "request_id", Value: GetRequestID(r.Context())},
			}

			switch {
			case rw.Status() >= 500:
				log.Error("server error", nil, fields...)
			case rw.Status() >= 400:
				log.Warn("client error", fields...)
			default:
				log.Info("request processed", fields...)
			}
		})
	}
}

// RecoveryMiddleware turns a panic in a downstream handler into a 500
// response instead of crashing the process.
func RecoveryMiddleware(log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered in http handler", nil,
						logger.Field{Key: "panic", Value: rec},
						logger.Field{Key: "request_id", Value: GetRequestID(r.Context())},
						logger.Field{Key: "path", Value: r.URL.Path},
						logger.Field{Key: "method", Value: r.Method},
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CommonMiddleware returns the chain applied to every route: request ID,
// access logging, panic recovery and CORS.
func CommonMiddleware(log logger.Logger) Chain {
	return NewChain(
		RequestIDMiddleware,
		LoggingMiddleware(log),
		RecoveryMiddleware(log),
		CORS(DefaultCORSConfig(), log),
	)
}
