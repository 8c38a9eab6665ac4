//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"profilegate/internal/profile"
	"profilegate/pkg/sentinel"
	"profilegate/pkg/testutil/containers"
)

const profilesDDL = `
CREATE TABLE IF NOT EXISTS profiles (
    subject_id     TEXT PRIMARY KEY,
    display_name   TEXT NOT NULL DEFAULT '',
    email          TEXT NOT NULL DEFAULT '',
    phone          TEXT NOT NULL DEFAULT '',
    account_type   TEXT NOT NULL DEFAULT 'client',
    gender         TEXT NOT NULL DEFAULT '',
    birth_date     TEXT NOT NULL DEFAULT '',
    email_verified BOOLEAN NOT NULL DEFAULT FALSE,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type PostgresProfileStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
}

func TestPostgresProfileStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	suite.Run(t, new(PostgresProfileStoreSuite))
}

func (s *PostgresProfileStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.pg.ApplySchema(s.T(), profilesDDL)
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresProfileStoreSuite) SetupTest() {
	_, err := s.pg.DB.Exec("TRUNCATE profiles")
	s.Require().NoError(err)
}

func (s *PostgresProfileStoreSuite) TestUpsertCreateThenMerge() {
	ctx := context.Background()

	record, created, err := s.store.Upsert(ctx, "subject-1",
		profile.Patch{Phone: profile.StringPtr("555-0101")})
	s.Require().NoError(err)
	s.True(created)
	s.Equal(profile.AccountTypeClient, record.AccountType)

	record, created, err = s.store.Upsert(ctx, "subject-1",
		profile.Patch{DisplayName: profile.StringPtr("Ana")})
	s.Require().NoError(err)
	s.False(created)
	s.Equal("555-0101", record.Phone, "unmentioned column survives the merge")
	s.Equal("Ana", record.DisplayName)
}

func (s *PostgresProfileStoreSuite) TestUpsertReplayKeepsCreatedAt() {
	ctx := context.Background()
	patch := profile.Patch{Phone: profile.StringPtr("555-0101")}

	first, _, err := s.store.Upsert(ctx, "subject-1", patch)
	s.Require().NoError(err)

	second, created, err := s.store.Upsert(ctx, "subject-1", patch)
	s.Require().NoError(err)
	s.False(created)
	s.Equal(first.CreatedAt.UnixNano(), second.CreatedAt.UnixNano())
}

func (s *PostgresProfileStoreSuite) TestFindByKeyMissing() {
	_, err := s.store.FindByKey(context.Background(), "nobody")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresProfileStoreSuite) TestSetEmailVerified() {
	ctx := context.Background()
	_, _, err := s.store.Upsert(ctx, "subject-1", profile.Patch{Phone: profile.StringPtr("555-0101")})
	s.Require().NoError(err)

	s.Require().NoError(s.store.SetEmailVerified(ctx, "subject-1", true))

	record, err := s.store.FindByKey(ctx, "subject-1")
	s.Require().NoError(err)
	s.True(record.EmailVerified)

	s.ErrorIs(s.store.SetEmailVerified(ctx, "nobody", true), sentinel.ErrNotFound)
}

func (s *PostgresProfileStoreSuite) TestConcurrentDisjointPatches() {
	ctx := context.Background()

	done := make(chan error, 2)
	go func() {
		_, _, err := s.store.Upsert(ctx, "subject-1", profile.Patch{Phone: profile.StringPtr("555-0101")})
		done <- err
	}()
	go func() {
		_, _, err := s.store.Upsert(ctx, "subject-1", profile.Patch{DisplayName: profile.StringPtr("Ana")})
		done <- err
	}()
	s.Require().NoError(<-done)
	s.Require().NoError(<-done)

	record, err := s.store.FindByKey(ctx, "subject-1")
	s.Require().NoError(err)
	s.Equal("555-0101", record.Phone)
	s.Equal("Ana", record.DisplayName)
}
