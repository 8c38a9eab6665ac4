package store

import (
	"context"
	"strings"
	"sync"

	"profilegate/pkg/sentinel"
)

// InMemoryStore keeps identities in process memory. Used by tests and by
// deployments without a configured database.
type InMemoryStore struct {
	mu         sync.RWMutex
	bySubject  map[string]Identity
	subjectFor map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		bySubject:  make(map[string]Identity),
		subjectFor: make(map[string]string),
	}
}

func (s *InMemoryStore) Create(_ context.Context, identity Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(identity.Email)
	if _, exists := s.subjectFor[email]; exists {
		return sentinel.ErrConflict
	}
	s.bySubject[identity.SubjectID] = identity
	s.subjectFor[email] = identity.SubjectID
	return nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subjectID, ok := s.subjectFor[strings.ToLower(email)]
	if !ok {
		return Identity{}, sentinel.ErrNotFound
	}
	return s.bySubject[subjectID], nil
}

func (s *InMemoryStore) FindBySubject(_ context.Context, subjectID string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.bySubject[subjectID]
	if !ok {
		return Identity{}, sentinel.ErrNotFound
	}
	return identity, nil
}

func (s *InMemoryStore) SetEmailVerified(_ context.Context, subjectID string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.bySubject[subjectID]
	if !ok {
		return sentinel.ErrNotFound
	}
	identity.EmailVerified = verified
	s.bySubject[subjectID] = identity
	return nil
}
