package names

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairhub/internal/identity"
	"pairhub/pkg/domain"
)

// countingProfiles wraps a profile store and counts batched lookups.
type countingProfiles struct {
	identity.ProfileStore
	mu      sync.Mutex
	batches int
	queried [][]domain.UserID
	fail    bool
}

func (s *countingProfiles) FindByIDs(ctx context.Context, userIDs []domain.UserID) (map[domain.UserID]string, error) {
	s.mu.Lock()
	s.batches++
	s.queried = append(s.queried, append([]domain.UserID(nil), userIDs...))
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return nil, errors.New("profiles unavailable")
	}
	return s.ProfileStore.FindByIDs(ctx, userIDs)
}

func (s *countingProfiles) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches
}

type fakeMemo struct {
	mu     sync.Mutex
	names  map[domain.UserID]string
	sets   int
	hits   int
	forget int
}

func newFakeMemo() *fakeMemo {
	return &fakeMemo{names: make(map[domain.UserID]string)}
}

func (m *fakeMemo) GetMany(_ context.Context, userIDs []domain.UserID) map[domain.UserID]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[domain.UserID]string)
	for _, id := range userIDs {
		if name, ok := m.names[id]; ok {
			out[id] = name
			m.hits++
		}
	}
	return out
}

func (m *fakeMemo) SetMany(_ context.Context, names map[domain.UserID]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	for id, name := range names {
		m.names[id] = name
	}
}

func (m *fakeMemo) Forget(_ context.Context, userID domain.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forget++
	delete(m.names, userID)
}

func newTestCache(t *testing.T, opts ...Option) (*Cache, *countingProfiles) {
	t.Helper()
	profiles := &countingProfiles{ProfileStore: identity.NewInMemoryProfileStore()}
	cache, err := NewCache(profiles, opts...)
	require.NoError(t, err)
	return cache, profiles
}

func TestCache_ResolveBatchesAndMemoizes(t *testing.T) {
	ctx := context.Background()
	cache, profiles := newTestCache(t)

	alice := domain.NewUserID()
	bob := domain.NewUserID()
	require.NoError(t, profiles.UpsertDisplayName(ctx, alice, "Alice"))
	require.NoError(t, profiles.UpsertDisplayName(ctx, bob, "Bob"))

	resolved := cache.Resolve(ctx, []domain.UserID{alice, bob, alice})
	assert.Equal(t, map[domain.UserID]string{alice: "Alice", bob: "Bob"}, resolved)
	assert.Equal(t, 1, profiles.batchCount(), "repeated authors share one batch")

	// Second resolve is fully served from the local map.
	resolved = cache.Resolve(ctx, []domain.UserID{alice, bob})
	assert.Equal(t, "Alice", resolved[alice])
	assert.Equal(t, 1, profiles.batchCount())
}

func TestCache_UnknownUserResolvesEmptyAndDoesNotRequery(t *testing.T) {
	ctx := context.Background()
	cache, profiles := newTestCache(t)

	ghost := domain.NewUserID()
	resolved := cache.Resolve(ctx, []domain.UserID{ghost})
	assert.Equal(t, "", resolved[ghost])
	assert.Equal(t, 1, profiles.batchCount())

	// The miss memoizes as empty, so the second resolve costs nothing.
	resolved = cache.Resolve(ctx, []domain.UserID{ghost})
	assert.Equal(t, "", resolved[ghost])
	assert.Equal(t, 1, profiles.batchCount())
}

func TestCache_LookupFailureDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	cache, profiles := newTestCache(t)

	alice := domain.NewUserID()
	require.NoError(t, profiles.UpsertDisplayName(ctx, alice, "Alice"))
	profiles.fail = true

	resolved := cache.Resolve(ctx, []domain.UserID{alice})
	assert.Equal(t, "", resolved[alice])

	// Failure is not memoized: the next resolve retries the store.
	profiles.fail = false
	resolved = cache.Resolve(ctx, []domain.UserID{alice})
	assert.Equal(t, "Alice", resolved[alice])
}

func TestCache_MemoLayerServesBeforeTheStore(t *testing.T) {
	ctx := context.Background()
	memo := newFakeMemo()
	cache, profiles := newTestCache(t, WithMemo(memo))

	alice := domain.NewUserID()
	memo.names[alice] = "Alice"

	resolved := cache.Resolve(ctx, []domain.UserID{alice})
	assert.Equal(t, "Alice", resolved[alice])
	assert.Equal(t, 0, profiles.batchCount(), "memo hit must not reach the store")
}

func TestCache_ResolvedNamesAreWrittenToTheMemo(t *testing.T) {
	ctx := context.Background()
	memo := newFakeMemo()
	cache, profiles := newTestCache(t, WithMemo(memo))

	alice := domain.NewUserID()
	require.NoError(t, profiles.UpsertDisplayName(ctx, alice, "Alice"))

	cache.Resolve(ctx, []domain.UserID{alice})
	assert.Equal(t, "Alice", memo.names[alice])
}

func TestCache_InvalidateForgetsEverywhere(t *testing.T) {
	ctx := context.Background()
	memo := newFakeMemo()
	cache, profiles := newTestCache(t, WithMemo(memo))

	alice := domain.NewUserID()
	require.NoError(t, profiles.UpsertDisplayName(ctx, alice, "Alice"))
	cache.Resolve(ctx, []domain.UserID{alice})

	require.NoError(t, profiles.UpsertDisplayName(ctx, alice, "Alicia"))
	cache.Invalidate(ctx, alice)
	assert.NotContains(t, memo.names, alice)

	resolved := cache.Resolve(ctx, []domain.UserID{alice})
	assert.Equal(t, "Alicia", resolved[alice])
}

func TestCache_EmptyRequestCostsNothing(t *testing.T) {
	cache, profiles := newTestCache(t)
	resolved := cache.Resolve(context.Background(), nil)
	assert.Empty(t, resolved)
	assert.Equal(t, 0, profiles.batchCount())
}
