// Package audit records key domain actions for operational visibility.
//
// Services emit events through a Publisher; the pipeline fans them out to the
// local store (via the channel worker) and, when configured, to Kafka. The
// pipeline is fail-open: an audit failure never fails the emitting operation.
package audit

import (
	"context"
	"time"

	"pairhub/pkg/domain"
)

// Action names a recorded domain action.
type Action string

const (
	ActionSignInRequested Action = "signin_requested"
	ActionSignedOut       Action = "signed_out"
	ActionRoomCreated     Action = "room_created"
	ActionMemberJoined    Action = "member_joined"
	ActionRecordCreated   Action = "record_created"
	ActionRecordDeleted   Action = "record_deleted"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id,omitempty"`
	RoomCode  string    `json:"room_code,omitempty"`
	// Table is the record table for record-level actions, empty otherwise.
	Table string `json:"table,omitempty"`
	// Device is the client device description captured by transport
	// middleware, when available.
	Device string `json:"device,omitempty"`
}

// Publisher is the emit side of the pipeline. Implementations must be
// fire-and-forget from the caller's point of view.
type Publisher interface {
	Emit(ctx context.Context, event Event)
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRoom(ctx context.Context, code domain.RoomCode) ([]Event, error)
}

// Noop discards events. Used when auditing is not wired.
type Noop struct{}

// Emit discards the event.
func (Noop) Emit(context.Context, Event) {}

var _ Publisher = Noop{}
