package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"profilegate/pkg/sentinel"
)

// PostgresStore persists identities in PostgreSQL.
// This store is pure I/O; credential checks belong in the service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, identity Identity) error {
	query := `
		INSERT INTO identities (subject_id, email, password_hash, provider, email_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		identity.SubjectID,
		strings.ToLower(identity.Email),
		identity.PasswordHash,
		identity.Provider,
		identity.EmailVerified,
		identity.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (Identity, error) {
	query := `
		SELECT subject_id, email, password_hash, provider, email_verified, created_at
		FROM identities
		WHERE email = $1
	`
	return s.scanIdentity(s.db.QueryRowContext(ctx, query, strings.ToLower(email)))
}

func (s *PostgresStore) FindBySubject(ctx context.Context, subjectID string) (Identity, error) {
	query := `
		SELECT subject_id, email, password_hash, provider, email_verified, created_at
		FROM identities
		WHERE subject_id = $1
	`
	return s.scanIdentity(s.db.QueryRowContext(ctx, query, subjectID))
}

func (s *PostgresStore) SetEmailVerified(ctx context.Context, subjectID string, verified bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE identities SET email_verified = $2 WHERE subject_id = $1`,
		subjectID, verified,
	)
	if err != nil {
		return fmt.Errorf("set email verified: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set email verified: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) scanIdentity(row *sql.Row) (Identity, error) {
	var identity Identity
	err := row.Scan(
		&identity.SubjectID,
		&identity.Email,
		&identity.PasswordHash,
		&identity.Provider,
		&identity.EmailVerified,
		&identity.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Identity{}, sentinel.ErrNotFound
		}
		return Identity{}, fmt.Errorf("scan identity: %w", err)
	}
	return identity, nil
}
