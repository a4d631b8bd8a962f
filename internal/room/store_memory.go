package room

import (
	"context"
	"sort"
	"sync"
	"time"

	"pairhub/pkg/domain"
)

// In-memory stores keep single-process deployments and tests lightweight.
// They intentionally favor clarity over performance.
type InMemoryRoomStore struct {
	mu    sync.RWMutex
	rooms map[domain.RoomCode]Room
}

// NewInMemoryRoomStore creates an empty room store.
func NewInMemoryRoomStore() *InMemoryRoomStore {
	return &InMemoryRoomStore{rooms: make(map[domain.RoomCode]Room)}
}

// CreateIfAbsent creates the room if it does not exist.
func (s *InMemoryRoomStore) CreateIfAbsent(_ context.Context, code domain.RoomCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; ok {
		return nil
	}
	s.rooms[code] = Room{Code: code, CreatedAt: time.Now().UTC()}
	return nil
}

// Exists reports whether the room has been created.
func (s *InMemoryRoomStore) Exists(_ context.Context, code domain.RoomCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[code]
	return ok, nil
}

type memberKey struct {
	code   domain.RoomCode
	userID domain.UserID
}

// InMemoryMembershipStore keeps memberships in memory.
type InMemoryMembershipStore struct {
	mu      sync.RWMutex
	members map[memberKey]Membership
}

// NewInMemoryMembershipStore creates an empty membership store.
func NewInMemoryMembershipStore() *InMemoryMembershipStore {
	return &InMemoryMembershipStore{members: make(map[memberKey]Membership)}
}

// Upsert attaches the user to the room, idempotently.
func (s *InMemoryMembershipStore) Upsert(_ context.Context, code domain.RoomCode, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey{code: code, userID: userID}
	if _, ok := s.members[key]; ok {
		return nil
	}
	s.members[key] = Membership{RoomCode: code, UserID: userID, JoinedAt: time.Now().UTC()}
	return nil
}

// IsMember reports whether the user belongs to the room.
func (s *InMemoryMembershipStore) IsMember(_ context.Context, code domain.RoomCode, userID domain.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[memberKey{code: code, userID: userID}]
	return ok, nil
}

// ListMembers returns user IDs attached to the room in join order.
func (s *InMemoryMembershipStore) ListMembers(_ context.Context, code domain.RoomCode) ([]domain.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	memberships := make([]Membership, 0)
	for key, membership := range s.members {
		if key.code == code {
			memberships = append(memberships, membership)
		}
	}
	sort.Slice(memberships, func(i, j int) bool {
		return memberships[i].JoinedAt.Before(memberships[j].JoinedAt)
	})

	userIDs := make([]domain.UserID, 0, len(memberships))
	for _, membership := range memberships {
		userIDs = append(userIDs, membership.UserID)
	}
	return userIDs, nil
}

var (
	_ RoomStore       = (*InMemoryRoomStore)(nil)
	_ MembershipStore = (*InMemoryMembershipStore)(nil)
)
