//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"profilegate/pkg/sentinel"
	"profilegate/pkg/testutil/containers"
)

const identitiesDDL = `
CREATE TABLE IF NOT EXISTS identities (
    subject_id     TEXT PRIMARY KEY,
    email          TEXT NOT NULL UNIQUE,
    password_hash  TEXT NOT NULL DEFAULT '',
    provider       TEXT NOT NULL,
    email_verified BOOLEAN NOT NULL DEFAULT FALSE,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type PostgresIdentityStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
}

func TestPostgresIdentityStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	suite.Run(t, new(PostgresIdentityStoreSuite))
}

func (s *PostgresIdentityStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.pg.ApplySchema(s.T(), identitiesDDL)
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresIdentityStoreSuite) SetupTest() {
	_, err := s.pg.DB.Exec("TRUNCATE identities")
	s.Require().NoError(err)
}

func (s *PostgresIdentityStoreSuite) identity(subjectID, email string) Identity {
	return Identity{
		SubjectID:    subjectID,
		Email:        email,
		PasswordHash: "hashed",
		Provider:     ProviderPassword,
		CreatedAt:    time.Now().UTC(),
	}
}

func (s *PostgresIdentityStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.identity("subject-1", "ana@example.com")))

	byEmail, err := s.store.FindByEmail(ctx, "Ana@Example.com")
	s.Require().NoError(err)
	s.Equal("subject-1", byEmail.SubjectID)

	bySubject, err := s.store.FindBySubject(ctx, "subject-1")
	s.Require().NoError(err)
	s.Equal("ana@example.com", bySubject.Email)
}

func (s *PostgresIdentityStoreSuite) TestDuplicateEmailIsConflict() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.identity("subject-1", "ana@example.com")))

	err := s.store.Create(ctx, s.identity("subject-2", "ana@example.com"))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresIdentityStoreSuite) TestFindMissing() {
	ctx := context.Background()

	_, err := s.store.FindByEmail(ctx, "nobody@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindBySubject(ctx, "nobody")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresIdentityStoreSuite) TestSetEmailVerified() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.identity("subject-1", "ana@example.com")))

	s.Require().NoError(s.store.SetEmailVerified(ctx, "subject-1", true))

	identity, err := s.store.FindBySubject(ctx, "subject-1")
	s.Require().NoError(err)
	s.True(identity.EmailVerified)

	s.ErrorIs(s.store.SetEmailVerified(ctx, "nobody", true), sentinel.ErrNotFound)
}
