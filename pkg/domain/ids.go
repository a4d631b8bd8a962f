// Package domain defines the typed identifiers shared across pairhub.
//
// IDs are uuid-backed named types so the compiler keeps a user id from being
// passed where a record id is expected. Parsing enforces the invariant that
// an ID is a valid, non-empty, non-nil UUID at trust boundaries.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "pairhub/pkg/domain-errors"
)

// UserID identifies an authenticated user.
type UserID uuid.UUID

// RecordID identifies one synced record (watchlist item, feed post, etc).
type RecordID uuid.UUID

// NewUserID returns a fresh random UserID.
func NewUserID() UserID {
	return UserID(uuid.New())
}

// NewRecordID returns a fresh random RecordID.
func NewRecordID() RecordID {
	return RecordID(uuid.New())
}

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	parsed, err := parseUUID(s, "user id")
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

// ParseRecordID validates and returns a RecordID.
func ParseRecordID(s string) (RecordID, error) {
	parsed, err := parseUUID(s, "record id")
	if err != nil {
		return RecordID{}, err
	}
	return RecordID(parsed), nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+": "+s)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be the nil UUID")
	}
	return parsed, nil
}

// String returns the canonical UUID string.
func (id UserID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero value.
func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText encodes the ID as its canonical UUID string, so JSON carries
// IDs as strings rather than byte arrays.
func (id UserID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText decodes a canonical UUID string. The nil UUID is accepted
// here so zero-valued fields round-trip on the wire; trust boundaries go
// through ParseUserID.
func (id *UserID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// String returns the canonical UUID string.
func (id RecordID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero value.
func (id RecordID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText encodes the ID as its canonical UUID string.
func (id RecordID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText decodes a canonical UUID string. The nil UUID is accepted
// here so zero-valued fields round-trip on the wire; trust boundaries go
// through ParseRecordID.
func (id *RecordID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// MaxRoomCodeLength bounds room codes so they stay usable as stream channel
// name segments and storage keys.
const MaxRoomCodeLength = 64

// RoomCode is a validated room code. Rooms are a flat namespace keyed by the
// code two partners agree on; codes are compared case-insensitively.
type RoomCode string

// ParseRoomCode normalizes and validates a room code. Empty (after trimming)
// codes return an error; callers that want "empty means no-op" semantics must
// check for emptiness before parsing.
func ParseRoomCode(s string) (RoomCode, error) {
	code := strings.ToLower(strings.TrimSpace(s))
	if code == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "room code cannot be empty")
	}
	if len(code) > MaxRoomCodeLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "room code is too long")
	}
	return RoomCode(code), nil
}

// String returns the normalized code.
func (c RoomCode) String() string { return string(c) }

// IsNil reports whether the code is empty.
func (c RoomCode) IsNil() bool { return c == "" }
