package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/mohae/deepcopy"
)

// Store implements ports.TrialStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]map[int]*domain.TrialRecord
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]map[int]*domain.TrialRecord),
	}
}

// Save persists a deep copy of the record, so later mutation by the driver is not visible.
func (s *Store) Save(ctx context.Context, sessionID string, rec *domain.TrialRecord) error {
	copied := deepcopy.Copy(rec).(*domain.TrialRecord)

	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.data[sessionID]
	if !ok {
		session = make(map[int]*domain.TrialRecord)
		s.data[sessionID] = session
	}
	session[rec.TrialNumber] = copied
	return nil
}

// Load retrieves a copy of one record.
func (s *Store) Load(ctx context.Context, sessionID string, trialNumber int) (*domain.TrialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[sessionID][trialNumber]
	if !ok {
		return nil, domain.ErrTrialNotFound
	}
	return deepcopy.Copy(rec).(*domain.TrialRecord), nil
}

// Trials lists the saved trial numbers of a session.
func (s *Store) Trials(ctx context.Context, sessionID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	numbers := make([]int, 0, len(session))
	for n := range session {
		numbers = append(numbers, n)
	}
	slices.Sort(numbers)
	return numbers, nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the stored sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}
