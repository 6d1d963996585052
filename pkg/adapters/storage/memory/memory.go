package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aescanero/lazymint/pkg/domain"
)

// StatusStore implements ports.StatusStore using an in-memory map
type StatusStore struct {
	statuses map[string]*domain.Status
	mu       sync.RWMutex
}

// NewStatusStore creates a new in-memory status store
func NewStatusStore() *StatusStore {
	return &StatusStore{
		statuses: make(map[string]*domain.Status),
	}
}

// Save replaces the session's status cell
func (s *StatusStore) Save(ctx context.Context, status *domain.Status) error {
	if status == nil || status.SessionID == "" {
		return fmt.Errorf("status must carry a session id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy to avoid sharing mutations with the caller
	s.statuses[status.SessionID] = status.Copy()
	return nil
}

// Get returns the session's status cell, idle if nothing was saved
func (s *StatusStore) Get(ctx context.Context, sessionID string) (*domain.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.statuses[sessionID]
	if !ok {
		return domain.NewIdleStatus(sessionID), nil
	}
	return status.Copy(), nil
}

// Delete removes the session's status cell
func (s *StatusStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.statuses, sessionID)
	return nil
}

// List returns all session IDs with a stored status, sorted
func (s *StatusStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionIDs := make([]string, 0, len(s.statuses))
	for id := range s.statuses {
		sessionIDs = append(sessionIDs, id)
	}
	sort.Strings(sessionIDs)

	return sessionIDs, nil
}
