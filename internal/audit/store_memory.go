package audit

import (
	"context"
	"sync"

	"pairhub/pkg/domain"
)

// InMemoryStore keeps audit events in memory, append-only.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewInMemoryStore creates an empty audit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append records one event.
func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByRoom returns events for a room in append order.
func (s *InMemoryStore) ListByRoom(_ context.Context, code domain.RoomCode) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, event := range s.events {
		if event.RoomCode == code.String() {
			out = append(out, event)
		}
	}
	return out, nil
}

var _ Store = (*InMemoryStore)(nil)
