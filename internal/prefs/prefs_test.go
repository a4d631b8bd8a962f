package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomCodeRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	assert.Empty(t, LoadRoomCode(store), "missing value reads as empty")

	require.NoError(t, SaveRoomCode(store, "sunny-side"))
	assert.Equal(t, "sunny-side", LoadRoomCode(store))

	require.NoError(t, SaveRoomCode(store, "other"))
	assert.Equal(t, "other", LoadRoomCode(store), "later saves overwrite")
}

func TestLoadRoomCode_UndecodableValueReadsAsEmpty(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(RoomCodeKey, json.RawMessage(`{"not":"a string"}`)))
	assert.Empty(t, LoadRoomCode(store))
}

func TestFileStore(t *testing.T) {
	t.Run("round-trips across reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prefs.json")

		store, err := NewFileStore(path)
		require.NoError(t, err)
		require.NoError(t, SaveRoomCode(store, "sunny-side"))

		reopened, err := NewFileStore(path)
		require.NoError(t, err)
		assert.Equal(t, "sunny-side", LoadRoomCode(reopened))
	})

	t.Run("missing file starts empty", func(t *testing.T) {
		store, err := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
		require.NoError(t, err)
		assert.Empty(t, LoadRoomCode(store))
	})

	t.Run("malformed file starts empty and heals on the next write", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prefs.json")
		require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o600))

		store, err := NewFileStore(path)
		require.NoError(t, err)
		assert.Empty(t, LoadRoomCode(store))

		require.NoError(t, SaveRoomCode(store, "sunny-side"))
		reopened, err := NewFileStore(path)
		require.NoError(t, err)
		assert.Equal(t, "sunny-side", LoadRoomCode(reopened))
	})

	t.Run("requires a path", func(t *testing.T) {
		_, err := NewFileStore("")
		assert.Error(t, err)
	})

	t.Run("keeps unrelated keys when one key changes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prefs.json")
		store, err := NewFileStore(path)
		require.NoError(t, err)

		require.NoError(t, store.Set("pairhub.theme", json.RawMessage(`"dark"`)))
		require.NoError(t, SaveRoomCode(store, "sunny-side"))

		reopened, err := NewFileStore(path)
		require.NoError(t, err)
		theme, ok := reopened.Get("pairhub.theme")
		require.True(t, ok)
		assert.JSONEq(t, `"dark"`, string(theme))
		assert.Equal(t, "sunny-side", LoadRoomCode(reopened))
	})
}
