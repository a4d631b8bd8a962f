package room

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pairhub/pkg/domain"
)

// PostgresRoomStore persists rooms in the rooms table.
type PostgresRoomStore struct {
	pool *pgxpool.Pool
}

// NewPostgresRoomStore constructs a Postgres-backed room store.
func NewPostgresRoomStore(pool *pgxpool.Pool) *PostgresRoomStore {
	return &PostgresRoomStore{pool: pool}
}

// CreateIfAbsent creates the room if it does not exist. ON CONFLICT DO
// NOTHING keeps re-creation a no-op rather than a constraint violation.
func (s *PostgresRoomStore) CreateIfAbsent(ctx context.Context, code domain.RoomCode) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO rooms (code, created_at) VALUES ($1, $2)
		 ON CONFLICT (code) DO NOTHING`,
		code.String(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// Exists reports whether the room has been created.
func (s *PostgresRoomStore) Exists(ctx context.Context, code domain.RoomCode) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM rooms WHERE code = $1)`,
		code.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("room exists: %w", err)
	}
	return exists, nil
}

// PostgresMembershipStore persists memberships in the room_members table.
type PostgresMembershipStore struct {
	pool *pgxpool.Pool
}

// NewPostgresMembershipStore constructs a Postgres-backed membership store.
func NewPostgresMembershipStore(pool *pgxpool.Pool) *PostgresMembershipStore {
	return &PostgresMembershipStore{pool: pool}
}

// Upsert attaches the user to the room, idempotently.
func (s *PostgresMembershipStore) Upsert(ctx context.Context, code domain.RoomCode, userID domain.UserID) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO room_members (room_code, user_id, joined_at) VALUES ($1, $2, $3)
		 ON CONFLICT (room_code, user_id) DO NOTHING`,
		code.String(), userID.String(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert membership: %w", err)
	}
	return nil
}

// IsMember reports whether the user belongs to the room.
func (s *PostgresMembershipStore) IsMember(ctx context.Context, code domain.RoomCode, userID domain.UserID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM room_members WHERE room_code = $1 AND user_id = $2)`,
		code.String(), userID.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("is member: %w", err)
	}
	return exists, nil
}

// ListMembers returns user IDs attached to the room in join order.
func (s *PostgresMembershipStore) ListMembers(ctx context.Context, code domain.RoomCode) ([]domain.UserID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM room_members WHERE room_code = $1 ORDER BY joined_at ASC`,
		code.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var userIDs []domain.UserID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		parsed, err := domain.ParseUserID(raw)
		if err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		userIDs = append(userIDs, parsed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return userIDs, nil
}

var (
	_ RoomStore       = (*PostgresRoomStore)(nil)
	_ MembershipStore = (*PostgresMembershipStore)(nil)
)
