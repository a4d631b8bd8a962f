package records

import (
	"context"

	"pairhub/pkg/domain"
)

// Store persists synced records. List returns rows in the table's canonical
// order so the snapshot fetch is ordered at the source. Mutations publish a
// ChangeEvent after the row change lands; publish failures are the broker's
// concern and never roll the row change back.
type Store interface {
	List(ctx context.Context, table Table, code domain.RoomCode) ([]Record, error)
	Insert(ctx context.Context, table Table, record Record) error
	// SetDone updates the record's mutable display state.
	SetDone(ctx context.Context, table Table, code domain.RoomCode, id domain.RecordID, done bool) error
	Delete(ctx context.Context, table Table, code domain.RoomCode, id domain.RecordID) error
}
