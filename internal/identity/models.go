package identity

import (
	"time"

	"pairhub/pkg/domain"
)

// Identity is the resolved current-user identity. Absent identity is modeled
// by the (Identity{}, false) pair from Resolver.Current, not by zero fields.
type Identity struct {
	UserID      domain.UserID
	Email       string
	DisplayName string
}

// Profile is the persisted per-user display profile. It is keyed by the user
// identifier from the session provider; a user without a profile row simply
// has no display name yet.
type Profile struct {
	UserID      domain.UserID
	DisplayName string
	UpdatedAt   time.Time
}
