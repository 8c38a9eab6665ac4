package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"profilegate/internal/profile"
	"profilegate/pkg/sentinel"
)

// PostgresStore persists profile records in PostgreSQL.
// This store is pure I/O; required-field rules belong in the callers.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema for reference; migrations are applied out of band.
//
//	CREATE TABLE profiles (
//	    subject_id     TEXT PRIMARY KEY,
//	    display_name   TEXT NOT NULL DEFAULT '',
//	    email          TEXT NOT NULL DEFAULT '',
//	    phone          TEXT NOT NULL DEFAULT '',
//	    account_type   TEXT NOT NULL DEFAULT 'client',
//	    gender         TEXT NOT NULL DEFAULT '',
//	    birth_date     TEXT NOT NULL DEFAULT '',
//	    email_verified BOOLEAN NOT NULL DEFAULT FALSE,
//	    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
//	);

func (s *PostgresStore) FindByKey(ctx context.Context, subjectID string) (profile.Record, error) {
	query := `
		SELECT subject_id, display_name, email, phone, account_type, gender, birth_date, email_verified, created_at, updated_at
		FROM profiles
		WHERE subject_id = $1
	`
	record, _, err := scanRecord(s.db.QueryRowContext(ctx, query, subjectID), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return profile.Record{}, sentinel.ErrNotFound
		}
		return profile.Record{}, fmt.Errorf("find profile: %w", err)
	}
	return record, nil
}

// Upsert merges the patch in a single INSERT .. ON CONFLICT .. RETURNING
// statement. NULL parameters mean "field absent from the patch"; COALESCE
// keeps the stored value, so concurrent disjoint patches cannot overwrite
// each other. xmax = 0 distinguishes a fresh insert from a conflict update.
func (s *PostgresStore) Upsert(ctx context.Context, subjectID string, patch profile.Patch) (profile.Record, bool, error) {
	query := `
		INSERT INTO profiles (subject_id, display_name, email, phone, account_type, gender, birth_date)
		VALUES (
			$1,
			COALESCE($2, ''),
			COALESCE($3, ''),
			COALESCE($4, ''),
			COALESCE($5, 'client'),
			COALESCE($6, ''),
			COALESCE($7, '')
		)
		ON CONFLICT (subject_id) DO UPDATE SET
			display_name = COALESCE($2, profiles.display_name),
			email        = COALESCE($3, profiles.email),
			phone        = COALESCE($4, profiles.phone),
			account_type = COALESCE($5, profiles.account_type),
			gender       = COALESCE($6, profiles.gender),
			birth_date   = COALESCE($7, profiles.birth_date),
			updated_at   = now()
		RETURNING subject_id, display_name, email, phone, account_type, gender, birth_date, email_verified, created_at, updated_at,
			(xmax = 0) AS created
	`
	record, created, err := scanRecord(s.db.QueryRowContext(ctx, query,
		subjectID,
		patch.DisplayName,
		patch.Email,
		patch.Phone,
		accountTypeArg(patch.AccountType),
		patch.Gender,
		patch.BirthDate,
	), true)
	if err != nil {
		return profile.Record{}, false, fmt.Errorf("upsert profile: %w", err)
	}
	return record, created, nil
}

func (s *PostgresStore) SetEmailVerified(ctx context.Context, subjectID string, verified bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET email_verified = $2, updated_at = now() WHERE subject_id = $1`,
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

func accountTypeArg(t *profile.AccountType) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

func scanRecord(row *sql.Row, withCreated bool) (profile.Record, bool, error) {
	var record profile.Record
	var created bool
	dest := []any{
		&record.SubjectID,
		&record.DisplayName,
		&record.Email,
		&record.Phone,
		&record.AccountType,
		&record.Gender,
		&record.BirthDate,
		&record.EmailVerified,
		&record.CreatedAt,
		&record.UpdatedAt,
	}
	if withCreated {
		dest = append(dest, &created)
	}
	if err := row.Scan(dest...); err != nil {
		return profile.Record{}, false, err
	}
	return record, created, nil
}
