package escalation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/internal/store/escalation"
	"github.com/mamacare/triagedesk/pkg/errorx"
)

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]*model.EscalationToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[uuid.UUID]*model.EscalationToken)}
}

func (f *fakeTokenRepo) Create(ctx context.Context, t *model.EscalationToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.tokens[t.ID] = &cp
	return nil
}

func (f *fakeTokenRepo) GetByHash(ctx context.Context, hash [32]byte) (*model.EscalationToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, errorx.New(errorx.TokenInvalid, "not found")
}

func (f *fakeTokenRepo) GetActiveForCase(ctx context.Context, caseID uuid.UUID) (*model.EscalationToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.EscalationToken
	for _, t := range f.tokens {
		if t.CaseID != caseID || t.RevokedAt != nil {
			continue
		}
		if latest == nil || t.IssuedAt.After(latest.IssuedAt) {
			cp := *t
			latest = &cp
		}
	}
	if latest == nil {
		return nil, errorx.New(errorx.NotFound, "not found")
	}
	return latest, nil
}

func (f *fakeTokenRepo) MarkConsumed(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[id]; ok {
		now := time.Now().UTC()
		t.ConsumedAt = &now
	}
	return nil
}

func (f *fakeTokenRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[id]; ok {
		now := time.Now().UTC()
		t.RevokedAt = &now
	}
	return nil
}

func TestMintAndValidate_Succeeds(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := escalation.New(repo)

	caseID := uuid.New()
	plaintext, token, err := svc.Mint(caseID, time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), token))

	validated, err := svc.Validate(context.Background(), plaintext)
	require.NoError(t, err)
	assert.Equal(t, caseID, validated.CaseID)
}

func TestValidate_FailsAfterExpiry(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := escalation.New(repo)

	plaintext, token, err := svc.Mint(uuid.New(), -time.Second)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), token))

	_, err = svc.Validate(context.Background(), plaintext)
	require.Error(t, err)
	assert.True(t, errorx.Is(err, errorx.TokenInvalid))
}

func TestValidate_FailsAfterRevoke(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := escalation.New(repo)

	plaintext, token, err := svc.Mint(uuid.New(), time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), token))
	require.NoError(t, svc.Revoke(context.Background(), token.ID))

	_, err = svc.Validate(context.Background(), plaintext)
	require.Error(t, err)
	assert.True(t, errorx.Is(err, errorx.TokenInvalid))
}

func TestMint_SecondMintInvalidatesFirst(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := escalation.New(repo)
	caseID := uuid.New()

	firstPlaintext, firstToken, err := svc.Mint(caseID, time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), firstToken))

	_, secondToken, err := svc.Mint(caseID, time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), secondToken))
	// Mint itself revokes nothing; casestore.Service.MintEscalation
	// revokes the case's previous token when it mints a new one. This
	// step performs that revocation by hand.
	require.NoError(t, svc.Revoke(context.Background(), firstToken.ID))

	_, err = svc.Validate(context.Background(), firstPlaintext)
	require.Error(t, err)
	assert.True(t, errorx.Is(err, errorx.TokenInvalid))
	assert.NotEqual(t, firstToken.ID, secondToken.ID)
}
