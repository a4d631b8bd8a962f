package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairhub/internal/session"
	"pairhub/pkg/domain"
	dErrors "pairhub/pkg/domain-errors"
)

func newResolver(t *testing.T, sessions session.Provider, profiles ProfileStore) *Resolver {
	t.Helper()
	resolver, err := NewResolver(sessions, profiles)
	require.NoError(t, err)
	resolver.Start(context.Background())
	t.Cleanup(resolver.Close)
	return resolver
}

func TestResolver_AbsentWithoutASession(t *testing.T) {
	resolver := newResolver(t, session.NewMemory(), NewInMemoryProfileStore())

	_, present := resolver.Current(context.Background())
	assert.False(t, present)
}

func TestResolver_UsesTheProfileDisplayName(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemory()
	profiles := NewInMemoryProfileStore()
	userID := domain.NewUserID()
	require.NoError(t, profiles.UpsertDisplayName(ctx, userID, "Patricia"))

	resolver := newResolver(t, sessions, profiles)
	sessions.Establish(session.Session{UserID: userID, Email: "pat@example.com"})

	current, present := resolver.Current(ctx)
	require.True(t, present)
	assert.Equal(t, userID, current.UserID)
	assert.Equal(t, "pat@example.com", current.Email)
	assert.Equal(t, "Patricia", current.DisplayName)
}

func TestResolver_FallsBackToANameDerivedFromTheEmail(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemory()
	resolver := newResolver(t, sessions, NewInMemoryProfileStore())

	sessions.Establish(session.Session{UserID: domain.NewUserID(), Email: "jane.doe@example.com"})

	current, present := resolver.Current(ctx)
	require.True(t, present)
	assert.Equal(t, "Jane Doe", current.DisplayName)
}

func TestResolver_SignOutClearsTheIdentity(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemory()
	resolver := newResolver(t, sessions, NewInMemoryProfileStore())

	sessions.Establish(session.Session{UserID: domain.NewUserID(), Email: "pat@example.com"})
	_, present := resolver.Current(ctx)
	require.True(t, present)

	require.NoError(t, resolver.SignOut(ctx))
	_, present = resolver.Current(ctx)
	assert.False(t, present)
}

func TestResolver_ClosedResolverStopsFollowingChanges(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemory()
	resolver := newResolver(t, sessions, NewInMemoryProfileStore())

	resolver.Close()
	resolver.Close()

	sessions.Establish(session.Session{UserID: domain.NewUserID(), Email: "pat@example.com"})
	_, present := resolver.Current(ctx)
	assert.False(t, present)
}

func TestResolver_UpdateDisplayName(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and takes effect immediately", func(t *testing.T) {
		sessions := session.NewMemory()
		profiles := NewInMemoryProfileStore()
		resolver := newResolver(t, sessions, profiles)
		userID := domain.NewUserID()
		sessions.Establish(session.Session{UserID: userID, Email: "pat@example.com"})

		require.NoError(t, resolver.UpdateDisplayName(ctx, "  Patricia  "))

		current, _ := resolver.Current(ctx)
		assert.Equal(t, "Patricia", current.DisplayName)

		profile, err := profiles.FindByID(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "Patricia", profile.DisplayName)
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		sessions := session.NewMemory()
		resolver := newResolver(t, sessions, NewInMemoryProfileStore())
		sessions.Establish(session.Session{UserID: domain.NewUserID(), Email: "pat@example.com"})

		err := resolver.UpdateDisplayName(ctx, "   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("declines without an identity", func(t *testing.T) {
		resolver := newResolver(t, session.NewMemory(), NewInMemoryProfileStore())

		err := resolver.UpdateDisplayName(ctx, "Patricia")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})
}
