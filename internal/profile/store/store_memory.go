package store

import (
	"context"
	"sync"
	"time"

	"profilegate/internal/profile"

	"profilegate/pkg/sentinel"
)

// InMemoryStore keeps profile records in process memory. The mutex makes each
// Upsert a single atomic read-modify-write, matching the contract the
// postgres store meets with a single statement.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]profile.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]profile.Record)}
}

func (s *InMemoryStore) FindByKey(_ context.Context, subjectID string) (profile.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[subjectID]
	if !ok {
		return profile.Record{}, sentinel.ErrNotFound
	}
	return record, nil
}

func (s *InMemoryStore) Upsert(_ context.Context, subjectID string, patch profile.Patch) (profile.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := s.records[subjectID]
	if !ok {
		record := profile.NewRecord(subjectID, patch, now)
		s.records[subjectID] = record
		return record, true, nil
	}

	record := patch.ApplyTo(existing)
	record.UpdatedAt = now
	s.records[subjectID] = record
	return record, false, nil
}

func (s *InMemoryStore) SetEmailVerified(_ context.Context, subjectID string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[subjectID]
	if !ok {
		return sentinel.ErrNotFound
	}
	record.EmailVerified = verified
	record.UpdatedAt = time.Now().UTC()
	s.records[subjectID] = record
	return nil
}
