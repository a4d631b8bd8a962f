package identity

import (
	"context"

	"pairhub/pkg/domain"
)

// ProfileStore persists display profiles. Implementations return
// sentinel.ErrNotFound for missing rows from FindByID; the batched FindByIDs
// simply omits missing users, so absence is never an error on the read path
// used for enrichment.
type ProfileStore interface {
	// UpsertDisplayName creates or replaces the display name for a user.
	// Repeated calls with the same name have no additional effect.
	UpsertDisplayName(ctx context.Context, userID domain.UserID, name string) error
	// FindByID returns the profile for one user.
	FindByID(ctx context.Context, userID domain.UserID) (Profile, error)
	// FindByIDs returns display names for the given users in one lookup.
	// Users without a profile are absent from the result map.
	FindByIDs(ctx context.Context, userIDs []domain.UserID) (map[domain.UserID]string, error)
}
