// Package escalation mints and validates escalation tokens: opaque,
// single-case-scoped bearer values that grant a specialist time-boxed
// access to a case's portal and advice endpoints.
package escalation

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/internal/domain/repository"
	"github.com/mamacare/triagedesk/pkg/errorx"
)

// DefaultTTL is the token lifetime applied when the caller does not
// specify one.
const DefaultTTL = 24 * time.Hour

// tokenBytes is the entropy length of a minted token: 128 bits.
const tokenBytes = 16

// Service mints and validates escalation tokens.
type Service struct {
	tokens repository.EscalationTokenRepository
}

// New constructs a token Service.
func New(tokens repository.EscalationTokenRepository) *Service {
	return &Service{tokens: tokens}
}

// Mint builds a new, not-yet-persisted token for caseID with the
// given TTL and returns it alongside the plaintext bearer value. The
// plaintext is returned exactly once, here; only its SHA-256 hash is
// ever stored.
func (s *Service) Mint(caseID uuid.UUID, ttl time.Duration) (plaintext string, token *model.EscalationToken, err error) {
	if ttl == 0 {
		ttl = DefaultTTL
	}

	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, errorx.Wrap(err, errorx.InternalServerError, "failed to generate escalation token")
	}
	plaintext = base64.RawURLEncoding.EncodeToString(raw)

	now := time.Now().UTC()
	token = &model.EscalationToken{
		ID:        uuid.New(),
		CaseID:    caseID,
		TokenHash: sha256.Sum256([]byte(plaintext)),
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	return plaintext, token, nil
}

// Validate looks up the token by the hash of the presented plaintext
// and checks it against expiry and revocation, using a constant-time
// comparison so the lookup path cannot leak timing information about
// hash prefixes.
func (s *Service) Validate(ctx context.Context, plaintext string) (*model.EscalationToken, error) {
	hash := sha256.Sum256([]byte(plaintext))

	token, err := s.tokens.GetByHash(ctx, hash)
	if err != nil {
		return nil, errorx.New(errorx.TokenInvalid, "escalation token unknown")
	}

	if subtle.ConstantTimeCompare(token.TokenHash[:], hash[:]) != 1 {
		return nil, errorx.New(errorx.TokenInvalid, "escalation token unknown")
	}

	if !token.IsValid(time.Now().UTC()) {
		return nil, errorx.New(errorx.TokenInvalid, "escalation token expired or revoked")
	}

	return token, nil
}

// Revoke invalidates a token immediately, e.g. on case close or after
// a single-use advice submission.
func (s *Service) Revoke(ctx context.Context, tokenID uuid.UUID) error {
	return s.tokens.Revoke(ctx, tokenID)
}
