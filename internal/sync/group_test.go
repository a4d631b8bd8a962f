package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairhub/internal/identity"
	"pairhub/internal/names"
	"pairhub/internal/records"
	"pairhub/internal/stream"
	"pairhub/pkg/domain"
)

func newGroup(t *testing.T) (*Group, *fakeIdentity, *records.InMemoryStore) {
	t.Helper()

	broker := stream.NewMemoryBroker()
	store := records.NewInMemoryStore(records.WithEventPublisher(broker))
	nameCache, err := names.NewCache(identity.NewInMemoryProfileStore())
	require.NoError(t, err)
	who := &fakeIdentity{}

	tables := []records.Table{records.Watchlist, records.Feed, records.Ideas, records.Calendar}
	engines := make([]*Synchronizer, len(tables))
	for i, table := range tables {
		engine, err := New(table, store, broker, who, nameCache)
		require.NoError(t, err)
		engines[i] = engine
	}

	group, err := NewGroup(engines...)
	require.NoError(t, err)
	t.Cleanup(group.Close)
	return group, who, store
}

func TestGroup_SetRoomBootstrapsEveryTable(t *testing.T) {
	ctx := context.Background()
	group, _, store := newGroup(t)
	code := domain.RoomCode("sunny")

	require.NoError(t, store.Insert(ctx, records.Watchlist, records.Record{
		ID: domain.NewRecordID(), RoomCode: code, AuthorID: domain.NewUserID(),
		CreatedAt: time.Now().UTC(), Body: "a movie",
	}))
	require.NoError(t, store.Insert(ctx, records.Ideas, records.Record{
		ID: domain.NewRecordID(), RoomCode: code, AuthorID: domain.NewUserID(),
		CreatedAt: time.Now().UTC(), Body: "an idea",
	}))

	require.NoError(t, group.SetRoom(ctx, code))

	for _, table := range []records.Table{records.Watchlist, records.Feed, records.Ideas, records.Calendar} {
		engine, ok := group.Engine(table)
		require.True(t, ok, table.Name)
		assert.Equal(t, StateLive, engine.State(), table.Name)
		assert.Equal(t, code, engine.Room(), table.Name)
	}

	watchlist, _ := group.Engine(records.Watchlist)
	assert.Len(t, watchlist.Records(), 1)
	ideas, _ := group.Engine(records.Ideas)
	assert.Len(t, ideas.Records(), 1)
	feed, _ := group.Engine(records.Feed)
	assert.Empty(t, feed.Records())
}

func TestGroup_SubmitRoutesToTheTablesEngine(t *testing.T) {
	ctx := context.Background()
	group, who, store := newGroup(t)
	who.set(identity.Identity{UserID: domain.NewUserID(), DisplayName: "Alice"})
	require.NoError(t, group.SetRoom(ctx, domain.RoomCode("sunny")))

	require.NoError(t, group.Submit(ctx, records.Ideas, "picnic", time.Time{}))

	rows, err := store.List(ctx, records.Ideas, domain.RoomCode("sunny"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "picnic", rows[0].Body)

	err = group.Submit(ctx, records.Table{Name: "journal"}, "nope", time.Time{})
	assert.Error(t, err)
}

func TestGroup_CloseIdlesEveryEngine(t *testing.T) {
	ctx := context.Background()
	group, _, _ := newGroup(t)
	require.NoError(t, group.SetRoom(ctx, domain.RoomCode("sunny")))

	group.Close()
	for _, table := range []records.Table{records.Watchlist, records.Feed, records.Ideas, records.Calendar} {
		engine, _ := group.Engine(table)
		assert.Equal(t, StateIdle, engine.State(), table.Name)
	}
}

func TestNewGroup_Validation(t *testing.T) {
	_, err := NewGroup()
	assert.Error(t, err)

	broker := stream.NewMemoryBroker()
	store := records.NewInMemoryStore()
	nameCache, err := names.NewCache(identity.NewInMemoryProfileStore())
	require.NoError(t, err)

	first, err := New(records.Feed, store, broker, &fakeIdentity{}, nameCache)
	require.NoError(t, err)
	second, err := New(records.Feed, store, broker, &fakeIdentity{}, nameCache)
	require.NoError(t, err)

	_, err = NewGroup(first, second)
	assert.Error(t, err, "two engines for one table is a wiring bug")
}
