package room

import (
	"context"
	"time"

	"pairhub/pkg/domain"
)

// Room is a flat namespace key two partners share. Once created it is never
// deleted by this subsystem.
type Room struct {
	Code      domain.RoomCode
	CreatedAt time.Time
}

// Membership records that a user belongs to a room. The (room, user) pair is
// unique; inserting it twice is a no-op, never a duplicate-key error.
type Membership struct {
	RoomCode domain.RoomCode
	UserID   domain.UserID
	JoinedAt time.Time
}

// RoomStore persists rooms.
type RoomStore interface {
	// CreateIfAbsent creates the room if it does not exist. Creating an
	// existing room succeeds without touching it.
	CreateIfAbsent(ctx context.Context, code domain.RoomCode) error
	// Exists reports whether the room has been created.
	Exists(ctx context.Context, code domain.RoomCode) (bool, error)
}

// MembershipStore persists room memberships.
type MembershipStore interface {
	// Upsert attaches the user to the room, idempotently.
	Upsert(ctx context.Context, code domain.RoomCode, userID domain.UserID) error
	// IsMember reports whether the user belongs to the room.
	IsMember(ctx context.Context, code domain.RoomCode, userID domain.UserID) (bool, error)
	// ListMembers returns user IDs attached to the room.
	ListMembers(ctx context.Context, code domain.RoomCode) ([]domain.UserID, error)
}
