package store

import (
	"context"
	"time"
)

// Identity is the persisted credential record owned by the gateway.
type Identity struct {
	SubjectID     string
	Email         string
	PasswordHash  string
	Provider      string
	EmailVerified bool
	CreatedAt     time.Time
}

// Providers an identity can originate from.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// IdentityStore persists gateway identities. Implementations return
// sentinel.ErrNotFound for missing records and sentinel.ErrConflict when an
// email is already registered.
type IdentityStore interface {
	Create(ctx context.Context, identity Identity) error
	FindByEmail(ctx context.Context, email string) (Identity, error)
	FindBySubject(ctx context.Context, subjectID string) (Identity, error)
	SetEmailVerified(ctx context.Context, subjectID string, verified bool) error
}
