package records

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"pairhub/pkg/domain"
	"pairhub/pkg/platform/sentinel"
)

type tableKey struct {
	table string
	code  domain.RoomCode
}

// InMemoryStore keeps records in memory, publishing change events after each
// mutation like its Postgres counterpart.
type InMemoryStore struct {
	mu     sync.RWMutex
	rows   map[tableKey]map[domain.RecordID]Record
	events EventPublisher
	logger *slog.Logger
}

// InMemoryStoreOption configures an InMemoryStore.
type InMemoryStoreOption func(*InMemoryStore)

// WithEventPublisher publishes a ChangeEvent after each mutation.
func WithEventPublisher(events EventPublisher) InMemoryStoreOption {
	return func(s *InMemoryStore) {
		s.events = events
	}
}

// WithStoreLogger sets the logger for publish failures.
func WithStoreLogger(logger *slog.Logger) InMemoryStoreOption {
	return func(s *InMemoryStore) {
		s.logger = logger
	}
}

// NewInMemoryStore creates an empty record store.
func NewInMemoryStore(opts ...InMemoryStoreOption) *InMemoryStore {
	s := &InMemoryStore{rows: make(map[tableKey]map[domain.RecordID]Record)}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// List returns the room's records in the table's canonical order.
func (s *InMemoryStore) List(_ context.Context, table Table, code domain.RoomCode) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := s.rows[tableKey{table: table.Name, code: code}]
	out := make([]Record, 0, len(byID))
	for _, record := range byID {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return table.Less(out[i], out[j]) })
	return out, nil
}

// Insert adds a record and publishes an insert event.
func (s *InMemoryStore) Insert(ctx context.Context, table Table, record Record) error {
	s.mu.Lock()
	key := tableKey{table: table.Name, code: record.RoomCode}
	if s.rows[key] == nil {
		s.rows[key] = make(map[domain.RecordID]Record)
	}
	s.rows[key][record.ID] = record
	s.mu.Unlock()

	s.publish(ctx, ChangeEvent{Type: EventInsert, Table: table.Name, Record: record})
	return nil
}

// SetDone updates the record's mutable display state and publishes an update
// event.
func (s *InMemoryStore) SetDone(ctx context.Context, table Table, code domain.RoomCode, id domain.RecordID, done bool) error {
	s.mu.Lock()
	key := tableKey{table: table.Name, code: code}
	record, ok := s.rows[key][id]
	if !ok {
		s.mu.Unlock()
		return sentinel.ErrNotFound
	}
	record.Done = done
	s.rows[key][id] = record
	s.mu.Unlock()

	s.publish(ctx, ChangeEvent{Type: EventUpdate, Table: table.Name, Record: record})
	return nil
}

// Delete removes a record and publishes a delete event. Deleting a missing
// record is a no-op.
func (s *InMemoryStore) Delete(ctx context.Context, table Table, code domain.RoomCode, id domain.RecordID) error {
	s.mu.Lock()
	key := tableKey{table: table.Name, code: code}
	record, ok := s.rows[key][id]
	if ok {
		delete(s.rows[key], id)
	}
	s.mu.Unlock()

	if ok {
		s.publish(ctx, ChangeEvent{Type: EventDelete, Table: table.Name, Record: Record{ID: record.ID, RoomCode: record.RoomCode}})
	}
	return nil
}

func (s *InMemoryStore) publish(ctx context.Context, event ChangeEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "change event publish failed",
			"table", event.Table, "type", string(event.Type), "error", err)
	}
}

var _ Store = (*InMemoryStore)(nil)
