package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"pairhub/pkg/domain"
)

// PostgresStore persists audit events in the audit_events table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed audit store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Append records one event.
func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_events (action, occurred_at, user_id, room_code, record_table, device)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		string(event.Action), event.Timestamp, event.UserID, event.RoomCode, event.Table, event.Device,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListByRoom returns events for a room in append order.
func (s *PostgresStore) ListByRoom(ctx context.Context, code domain.RoomCode) ([]Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT action, occurred_at, user_id, room_code, record_table, device
		 FROM audit_events WHERE room_code = $1 ORDER BY occurred_at ASC`,
		code.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event  Event
			action string
		)
		if err := rows.Scan(&action, &event.Timestamp, &event.UserID, &event.RoomCode, &event.Table, &event.Device); err != nil {
			return nil, fmt.Errorf("list audit events: %w", err)
		}
		event.Action = Action(action)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}

var _ Store = (*PostgresStore)(nil)
