package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"pairhub/internal/records"
	"pairhub/pkg/domain"
)

// RedisBroker publishes change events over Redis Pub/Sub, one channel per
// table and room, so subscribers only receive traffic for the room they are
// in.
type RedisBroker struct {
	client *redis.Client
	logger *slog.Logger
}

// RedisBrokerOption configures a RedisBroker.
type RedisBrokerOption func(*RedisBroker)

// WithRedisBrokerLogger sets the broker's logger.
func WithRedisBrokerLogger(logger *slog.Logger) RedisBrokerOption {
	return func(b *RedisBroker) {
		b.logger = logger
	}
}

// NewRedisBroker creates a broker over an established Redis client.
func NewRedisBroker(client *redis.Client, opts ...RedisBrokerOption) (*RedisBroker, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	b := &RedisBroker{client: client}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b, nil
}

func channelFor(table string, code domain.RoomCode) string {
	return fmt.Sprintf("pairhub:changes:%s:%s", table, code.String())
}

// Publish sends the event to the table and room's channel.
func (b *RedisBroker) Publish(ctx context.Context, event records.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	if err := b.client.Publish(ctx, channelFor(event.Table, event.Record.RoomCode), payload).Err(); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

// Subscribe opens a Pub/Sub subscription on the table and room's channel and
// decodes messages onto the returned subscription's events channel.
func (b *RedisBroker) Subscribe(ctx context.Context, table string, code domain.RoomCode) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channelFor(table, code))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s/%s: %w", table, code.String(), err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		events: make(chan records.ChangeEvent, subscriberBuffer),
	}
	go sub.pump(b.logger)
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan records.ChangeEvent
	once   sync.Once
}

// pump decodes Pub/Sub messages until the subscription closes, then closes
// the events channel.
func (s *redisSubscription) pump(logger *slog.Logger) {
	defer close(s.events)
	for msg := range s.pubsub.Channel() {
		var event records.ChangeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			logger.Warn("malformed change message dropped", "channel", msg.Channel, "error", err)
			continue
		}
		select {
		case s.events <- event:
		default:
			logger.Warn("subscriber buffer full, event dropped", "channel", msg.Channel)
		}
	}
}

func (s *redisSubscription) Events() <-chan records.ChangeEvent {
	return s.events
}

// Close ends the Pub/Sub subscription. The pump drains and closes Events.
func (s *redisSubscription) Close() {
	s.once.Do(func() {
		if err := s.pubsub.Close(); err != nil {
			slog.Default().Warn("pubsub close failed", "error", err)
		}
	})
}

var _ Broker = (*RedisBroker)(nil)
