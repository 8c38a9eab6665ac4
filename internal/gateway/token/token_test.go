package token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profilegate/internal/gateway/store/revocation"
	"profilegate/pkg/sentinel"
)

func newTestService(ttl time.Duration, store RevocationStore) *Service {
	return NewService("test-signing-key", "profilegate", "profilegate-clients", ttl, store)
}

func TestMintAndValidateRoundTrip(t *testing.T) {
	svc := newTestService(time.Hour, nil)

	signed, tokenID, err := svc.Mint("subject-1")
	require.NoError(t, err)
	require.NotEmpty(t, tokenID)

	claims, err := svc.ValidateToken(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, "subject-1", claims.SubjectID)
	assert.Equal(t, tokenID, claims.TokenID)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	svc := newTestService(-time.Minute, nil)

	signed, _, err := svc.Mint("subject-1")
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), signed)
	assert.ErrorIs(t, err, sentinel.ErrExpired)
}

func TestTokenSignedWithDifferentKeyIsRejected(t *testing.T) {
	minter := NewService("key-a", "profilegate", "profilegate-clients", time.Hour, nil)
	validator := NewService("key-b", "profilegate", "profilegate-clients", time.Hour, nil)

	signed, _, err := minter.Mint("subject-1")
	require.NoError(t, err)

	_, err = validator.ValidateToken(context.Background(), signed)
	assert.Error(t, err)
}

func TestGarbageTokenIsRejected(t *testing.T) {
	svc := newTestService(time.Hour, nil)

	_, err := svc.ValidateToken(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	store := revocation.NewInMemoryStore()
	svc := newTestService(time.Hour, store)

	signed, tokenID, err := svc.Mint("subject-1")
	require.NoError(t, err)

	require.NoError(t, store.Revoke(context.Background(), tokenID, time.Hour))

	_, err = svc.ValidateToken(context.Background(), signed)
	assert.ErrorIs(t, err, sentinel.ErrRevoked)
}
