// Package records defines the room-scoped synced record model shared by all
// collaborative tables, the per-table ordering rules, and the row store that
// persists them.
package records

import (
	"context"
	"time"

	"pairhub/pkg/domain"
)

// Record is one synced row. A single shape covers every table: Body is the
// primary text, Done is the mutable display state (the watchlist's watched
// flag), At is the optional scheduled time used by the calendar.
type Record struct {
	ID        domain.RecordID `json:"id"`
	RoomCode  domain.RoomCode `json:"room_code"`
	AuthorID  domain.UserID   `json:"author_id"`
	CreatedAt time.Time       `json:"created_at"`
	Body      string          `json:"body"`
	Done      bool            `json:"done"`
	At        time.Time       `json:"at,omitzero"`
}

// EventType classifies a change-stream event.
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// ChangeEvent is one row-level change delivered on the stream. Delete events
// carry only the record's ID and room.
type ChangeEvent struct {
	Type   EventType `json:"type"`
	Table  string    `json:"table"`
	Record Record    `json:"record"`
}

// EventPublisher receives row-level changes from the store after each
// mutation. Stream brokers implement it.
type EventPublisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

// Table describes one collaborative table: its canonical order and how the
// synchronizer treats its live-update path.
type Table struct {
	Name string
	// Less reports whether a sorts before b in the canonical list order.
	Less func(a, b Record) bool
	// RefetchOnUpdate makes update events trigger a wholesale snapshot
	// refetch instead of an in-place patch.
	RefetchOnUpdate bool
	// LocalEcho makes submit prepend the new record locally instead of
	// waiting for the stream's insert event.
	LocalEcho bool
}

// The registered tables. Watchlist orders unwatched before watched and
// newest-first within each group; the feed and idea lists are newest-first;
// the calendar runs soonest-first.
var (
	Watchlist = Table{
		Name:            "watchlist",
		Less:            watchlistLess,
		RefetchOnUpdate: true,
	}
	Feed = Table{
		Name:      "feed",
		Less:      newestFirst,
		LocalEcho: true,
	}
	Ideas = Table{
		Name: "ideas",
		Less: newestFirst,
	}
	Calendar = Table{
		Name: "calendar",
		Less: soonestFirst,
	}
)

var tables = map[string]Table{
	Watchlist.Name: Watchlist,
	Feed.Name:      Feed,
	Ideas.Name:     Ideas,
	Calendar.Name:  Calendar,
}

// TableByName returns a registered table.
func TableByName(name string) (Table, bool) {
	table, ok := tables[name]
	return table, ok
}

func newestFirst(a, b Record) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func watchlistLess(a, b Record) bool {
	if a.Done != b.Done {
		return !a.Done
	}
	return newestFirst(a, b)
}

func soonestFirst(a, b Record) bool {
	if !a.At.Equal(b.At) {
		return a.At.Before(b.At)
	}
	return newestFirst(a, b)
}
