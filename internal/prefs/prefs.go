// Package prefs is the client-local durable key/value cache.
//
// It holds the small amount of state that must survive a restart without a
// round-trip to the row store: today that is the last joined room code. Values
// are raw JSON so callers own their own shapes. A value that cannot be read or
// decoded behaves as absent, never as an error; the cache is a convenience, not
// a source of truth.
package prefs

import (
	"encoding/json"
	"sync"
)

// RoomCodeKey is the fixed key the room membership manager persists the last
// joined room code under.
const RoomCodeKey = "pairhub.room"

// Store is a durable key -> JSON value cache scoped to one client profile.
type Store interface {
	// Get returns the raw value for key and whether it was present.
	Get(key string) (json.RawMessage, bool)
	// Set durably records the value for key.
	Set(key string, value json.RawMessage) error
}

// SaveRoomCode persists a room code under RoomCodeKey.
func SaveRoomCode(store Store, code string) error {
	raw, err := json.Marshal(code)
	if err != nil {
		return err
	}
	return store.Set(RoomCodeKey, raw)
}

// LoadRoomCode reads the persisted room code. A missing or undecodable value
// yields the empty string.
func LoadRoomCode(store Store) string {
	raw, ok := store.Get(RoomCodeKey)
	if !ok {
		return ""
	}
	var code string
	if err := json.Unmarshal(raw, &code); err != nil {
		return ""
	}
	return code
}

// MemoryStore keeps preferences in memory. Used in tests and when no prefs
// path is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]json.RawMessage
}

// NewMemoryStore creates an empty in-memory preference store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]json.RawMessage)}
}

// Get returns the stored value for key.
func (s *MemoryStore) Get(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

// Set records the value for key.
func (s *MemoryStore) Set(key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

var _ Store = (*MemoryStore)(nil)
