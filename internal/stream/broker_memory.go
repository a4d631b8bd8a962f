package stream

import (
	"context"
	"log/slog"
	"sync"

	"pairhub/internal/records"
	"pairhub/pkg/domain"
)

type streamKey struct {
	table string
	code  domain.RoomCode
}

// MemoryBroker is an in-process hub. Publish delivers synchronously to every
// subscriber of the event's table and room; a full subscriber buffer drops
// the event for that subscriber only.
type MemoryBroker struct {
	mu     sync.Mutex
	subs   map[streamKey]map[int]*memorySubscription
	nextID int
	logger *slog.Logger
}

// MemoryBrokerOption configures a MemoryBroker.
type MemoryBrokerOption func(*MemoryBroker)

// WithMemoryLogger sets the logger used for dropped-event warnings.
func WithMemoryLogger(logger *slog.Logger) MemoryBrokerOption {
	return func(b *MemoryBroker) {
		b.logger = logger
	}
}

// NewMemoryBroker creates a hub with no subscribers.
func NewMemoryBroker(opts ...MemoryBrokerOption) *MemoryBroker {
	b := &MemoryBroker{subs: make(map[streamKey]map[int]*memorySubscription)}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Publish fans the event out to the table and room's subscribers.
func (b *MemoryBroker) Publish(ctx context.Context, event records.ChangeEvent) error {
	key := streamKey{table: event.Table, code: event.Record.RoomCode}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs[key] {
		select {
		case sub.events <- event:
		default:
			b.logger.WarnContext(ctx, "subscriber buffer full, event dropped",
				"table", event.Table, "room", event.Record.RoomCode.String())
		}
	}
	return nil
}

// Subscribe registers a listener for one table within one room.
func (b *MemoryBroker) Subscribe(_ context.Context, table string, code domain.RoomCode) (Subscription, error) {
	key := streamKey{table: table, code: code}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &memorySubscription{
		events: make(chan records.ChangeEvent, subscriberBuffer),
		broker: b,
		key:    key,
		id:     b.nextID,
	}
	if b.subs[key] == nil {
		b.subs[key] = make(map[int]*memorySubscription)
	}
	b.subs[key][sub.id] = sub
	return sub, nil
}

func (b *MemoryBroker) remove(key streamKey, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs[key], id)
	if len(b.subs[key]) == 0 {
		delete(b.subs, key)
	}
}

type memorySubscription struct {
	events chan records.ChangeEvent
	broker *MemoryBroker
	key    streamKey
	id     int
	once   sync.Once
}

func (s *memorySubscription) Events() <-chan records.ChangeEvent {
	return s.events
}

// Close detaches from the hub and closes Events. Publish fan-out holds the
// hub lock, so once remove returns no further send can race the close.
func (s *memorySubscription) Close() {
	s.once.Do(func() {
		s.broker.remove(s.key, s.id)
		close(s.events)
	})
}

var _ Broker = (*MemoryBroker)(nil)
