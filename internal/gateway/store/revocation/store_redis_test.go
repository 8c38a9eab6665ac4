//go:build integration

package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profilegate/pkg/testutil/containers"
)

func TestRedisRevocationStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)
	ctx := context.Background()

	t.Run("unknown token is not revoked", func(t *testing.T) {
		revoked, err := store.IsRevoked(ctx, "jti-unknown")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("revoked token is found", func(t *testing.T) {
		require.NoError(t, store.Revoke(ctx, "jti-1", time.Minute))

		revoked, err := store.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("revocation entry expires with the token", func(t *testing.T) {
		require.NoError(t, store.Revoke(ctx, "jti-2", 500*time.Millisecond))
		time.Sleep(time.Second)

		revoked, err := store.IsRevoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("empty token ID is a no-op", func(t *testing.T) {
		require.NoError(t, store.Revoke(ctx, "", time.Minute))

		revoked, err := store.IsRevoked(ctx, "")
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}
