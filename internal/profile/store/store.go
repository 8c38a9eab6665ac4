package store

import (
	"context"

	"profilegate/internal/profile"
)

// Store persists profile records keyed by subject ID. Implementations return
// sentinel.ErrNotFound for missing records.
//
// Upsert must be atomic: a single read-modify-write at the store, never a
// separate read followed by a separate write, so concurrent patches to the
// same subject cannot lose updates.
type Store interface {
	FindByKey(ctx context.Context, subjectID string) (profile.Record, error)

	// Upsert creates the record when absent (defaulting unspecified fields)
	// or merge-patches the supplied fields into the existing one. The created
	// flag reports which happened.
	Upsert(ctx context.Context, subjectID string, patch profile.Patch) (record profile.Record, created bool, err error)

	// SetEmailVerified writes the verification mirror flag.
	SetEmailVerified(ctx context.Context, subjectID string, verified bool) error
}
