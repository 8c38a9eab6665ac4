package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profilegate/internal/profile"
	"profilegate/pkg/sentinel"
)

func TestUpsertCreatesThenMerges(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	record, created, err := s.Upsert(ctx, "subject-1", profile.Patch{Phone: profile.StringPtr("555-0101")})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, profile.AccountTypeClient, record.AccountType)

	record, created, err = s.Upsert(ctx, "subject-1", profile.Patch{DisplayName: profile.StringPtr("Ana")})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "555-0101", record.Phone)
	assert.Equal(t, "Ana", record.DisplayName)
}

func TestUpsertSamePatchTwiceConverges(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	patch := profile.Patch{Phone: profile.StringPtr("555-0101"), DisplayName: profile.StringPtr("Ana")}

	first, created, err := s.Upsert(ctx, "subject-1", patch)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := s.Upsert(ctx, "subject-1", patch)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, first.Phone, second.Phone)
}

func TestFindByKeyMissing(t *testing.T) {
	s := NewInMemoryStore()

	_, err := s.FindByKey(context.Background(), "nobody")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestSetEmailVerifiedMissing(t *testing.T) {
	s := NewInMemoryStore()

	err := s.SetEmailVerified(context.Background(), "nobody", true)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

// Concurrent disjoint patches to the same subject must both land: the upsert
// is a single read-modify-write at the store, never a read then a write.
func TestConcurrentDisjointPatchesDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	const rounds = 100
	for i := 0; i < rounds; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, err := s.Upsert(ctx, "subject-1", profile.Patch{Phone: profile.StringPtr("555-0101")})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, _, err := s.Upsert(ctx, "subject-1", profile.Patch{DisplayName: profile.StringPtr("Ana")})
			assert.NoError(t, err)
		}()
		wg.Wait()

		record, err := s.FindByKey(ctx, "subject-1")
		require.NoError(t, err)
		assert.Equal(t, "555-0101", record.Phone)
		assert.Equal(t, "Ana", record.DisplayName)
	}
}
