package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists preferences as one JSON document on disk. Writes go
// through a temp file and rename so a crash mid-write never corrupts the
// previous state.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]json.RawMessage
}

// NewFileStore opens or creates a file-backed preference store. An unreadable
// or malformed file is treated as empty rather than an error; the next Set
// rewrites it whole.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("prefs path is required")
	}
	store := &FileStore{
		path:   filepath.Clean(path),
		values: make(map[string]json.RawMessage),
	}

	raw, err := os.ReadFile(store.path)
	if err == nil {
		var values map[string]json.RawMessage
		if json.Unmarshal(raw, &values) == nil && values != nil {
			store.values = values
		}
	}
	return store, nil
}

// Get returns the stored value for key.
func (s *FileStore) Get(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok
}

// Set records the value for key and rewrites the backing file.
func (s *FileStore) Set(key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value

	raw, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
