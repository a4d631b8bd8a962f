package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pairhub/pkg/domain"
	"pairhub/pkg/platform/sentinel"
)

// PostgresProfileStore persists profiles in the profiles table.
type PostgresProfileStore struct {
	pool *pgxpool.Pool
}

// NewPostgresProfileStore constructs a Postgres-backed profile store.
func NewPostgresProfileStore(pool *pgxpool.Pool) *PostgresProfileStore {
	return &PostgresProfileStore{pool: pool}
}

// UpsertDisplayName creates or replaces the display name for a user.
func (s *PostgresProfileStore) UpsertDisplayName(ctx context.Context, userID domain.UserID, name string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, display_name, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET
		   display_name = excluded.display_name,
		   updated_at = excluded.updated_at`,
		userID.String(), name, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// FindByID returns the profile for one user.
func (s *PostgresProfileStore) FindByID(ctx context.Context, userID domain.UserID) (Profile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT user_id, display_name, updated_at FROM profiles WHERE user_id = $1`,
		userID.String(),
	)

	var (
		rawID     string
		profile   Profile
		updatedAt time.Time
	)
	if err := row.Scan(&rawID, &profile.DisplayName, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, sentinel.ErrNotFound
		}
		return Profile{}, fmt.Errorf("find profile: %w", err)
	}

	parsed, err := domain.ParseUserID(rawID)
	if err != nil {
		return Profile{}, fmt.Errorf("find profile: %w", err)
	}
	profile.UserID = parsed
	profile.UpdatedAt = updatedAt
	return profile, nil
}

// FindByIDs returns display names for the given users in one lookup.
func (s *PostgresProfileStore) FindByIDs(ctx context.Context, userIDs []domain.UserID) (map[domain.UserID]string, error) {
	names := make(map[domain.UserID]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}

	raw := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		raw = append(raw, userID.String())
	}

	rows, err := s.pool.Query(ctx,
		`SELECT user_id, display_name FROM profiles WHERE user_id = ANY($1::uuid[])`,
		raw,
	)
	if err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rawID string
			name  string
		)
		if err := rows.Scan(&rawID, &name); err != nil {
			return nil, fmt.Errorf("find profiles: %w", err)
		}
		parsed, err := domain.ParseUserID(rawID)
		if err != nil {
			return nil, fmt.Errorf("find profiles: %w", err)
		}
		names[parsed] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}
	return names, nil
}

var _ ProfileStore = (*PostgresProfileStore)(nil)
