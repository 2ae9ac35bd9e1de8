package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/internal/infra/firebase"
	"github.com/mamacare/triagedesk/internal/store/escalation"
	"github.com/mamacare/triagedesk/pkg/errorx"
	"github.com/mamacare/triagedesk/pkg/logger"
)

// PHWIdentity is the outreach worker identity carried on a request
// context once a Firebase bearer token has been verified.
type PHWIdentity struct {
	ID    string
	Name  string
	Phone string
}

type phwIdentityKey struct{}

// AuthMiddleware verifies the Firebase ID token PHW-facing clients send
// as a bearer token.
type AuthMiddleware struct {
	firebaseAuth *firebase.FirebaseAuth
	log          logger.Logger
}

// NewAuthMiddleware constructs an AuthMiddleware.
func NewAuthMiddleware(firebaseAuth *firebase.FirebaseAuth, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{firebaseAuth: firebaseAuth, log: log}
}

// Authenticate verifies the bearer token and stores the resulting
// PHWIdentity on the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			respondWithError(w, r, errorx.New(errorx.Unauthorized, "missing or invalid authorization token"))
			return
		}

		decoded, err := m.firebaseAuth.VerifyIDToken(r.Context(), tokenString)
		if err != nil {
			m.log.Warn("failed to verify phw id token",
				logger.Field{Key: "error", Value: err.Error()},
				logger.Field{Key: "request_id", Value: GetRequestID(r.Context())},
			)
			respondWithError(w, r, errorx.Wrap(err, errorx.Unauthorized, "invalid token"))
			return
		}

		identity := PHWIdentity{ID: decoded.UID}
		if name, ok := decoded.Claims["name"].(string); ok {
			identity.Name = name
		}
		if phone, ok := decoded.Claims["phone_number"].(string); ok {
			identity.Phone = phone
		}

		ctx := context.WithValue(r.Context(), phwIdentityKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetPHWIdentity retrieves the identity Authenticate attached to ctx.
func GetPHWIdentity(ctx context.Context) (PHWIdentity, error) {
	identity, ok := ctx.Value(phwIdentityKey{}).(PHWIdentity)
	if !ok {
		return PHWIdentity{}, errorx.New(errorx.Unauthorized, "phw not authenticated")
	}
	return identity, nil
}

type escalationTokenKey struct{}

// SpecialistAuthMiddleware authenticates specialist portal requests
// against an escalation token instead of Firebase identity: the token
// itself, not the bearer of it, is what the specialist portal trusts.
type SpecialistAuthMiddleware struct {
	tokens *escalation.Service
	log    logger.Logger
}

// NewSpecialistAuthMiddleware constructs a SpecialistAuthMiddleware.
func NewSpecialistAuthMiddleware(tokens *escalation.Service, log logger.Logger) *SpecialistAuthMiddleware {
	return &SpecialistAuthMiddleware{tokens: tokens, log: log}
}

// Authenticate validates the escalation token carried by the request
// (bearer header, or a plaintext query parameter for portal links sent
// over SMS) and stores the resolved token on the request context.
func (m *SpecialistAuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		plaintext := bearerToken(r)
		if plaintext == "" {
			plaintext = r.URL.Query().Get("token")
		}
		if plaintext == "" {
			if idx := strings.LastIndex(r.URL.Path, "/portal/"); idx != -1 {
				plaintext = r.URL.Path[idx+len("/portal/"):]
			}
		}
		if plaintext == "" {
			respondWithError(w, r, errorx.New(errorx.Unauthorized, "missing escalation token"))
			return
		}

		token, err := m.tokens.Validate(r.Context(), plaintext)
		if err != nil {
			respondWithError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), escalationTokenKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetEscalationToken retrieves the token SpecialistAuthMiddleware resolved
// for this request.
func GetEscalationToken(ctx context.Context) (*model.EscalationToken, error) {
	token, ok := ctx.Value(escalationTokenKey{}).(*model.EscalationToken)
	if !ok {
		return nil, errorx.New(errorx.Unauthorized, "escalation token not authenticated")
	}
	return token, nil
}

func bearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorx.NewErrorResponse(err, GetRequestID(r.Context()))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errorx.HTTPStatusCode(err))
	_ = json.NewEncoder(w).Encode(resp)
}
