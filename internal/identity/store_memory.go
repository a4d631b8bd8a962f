package identity

import (
	"context"
	"sync"
	"time"

	"pairhub/pkg/domain"
	"pairhub/pkg/platform/sentinel"
)

// InMemoryProfileStore keeps profiles in memory. It backs tests and
// single-process deployments without Postgres.
type InMemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[domain.UserID]Profile
}

// NewInMemoryProfileStore creates an empty profile store.
func NewInMemoryProfileStore() *InMemoryProfileStore {
	return &InMemoryProfileStore{profiles: make(map[domain.UserID]Profile)}
}

// UpsertDisplayName creates or replaces the display name for a user.
func (s *InMemoryProfileStore) UpsertDisplayName(_ context.Context, userID domain.UserID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = Profile{
		UserID:      userID,
		DisplayName: name,
		UpdatedAt:   time.Now().UTC(),
	}
	return nil
}

// FindByID returns the profile for one user.
func (s *InMemoryProfileStore) FindByID(_ context.Context, userID domain.UserID) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if profile, ok := s.profiles[userID]; ok {
		return profile, nil
	}
	return Profile{}, sentinel.ErrNotFound
}

// FindByIDs returns display names for the given users in one lookup.
func (s *InMemoryProfileStore) FindByIDs(_ context.Context, userIDs []domain.UserID) (map[domain.UserID]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make(map[domain.UserID]string, len(userIDs))
	for _, userID := range userIDs {
		if profile, ok := s.profiles[userID]; ok {
			names[userID] = profile.DisplayName
		}
	}
	return names, nil
}

var _ ProfileStore = (*InMemoryProfileStore)(nil)
