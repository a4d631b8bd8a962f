package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pairhub/internal/records"
	"pairhub/pkg/domain"
)

// notifyChannel carries every change event. Filtering by table and room
// happens in-process, fed through the local hub.
const notifyChannel = "pairhub_changes"

// PostgresBroker publishes change events through NOTIFY and feeds a local hub
// from a dedicated LISTEN connection, so events published by any server
// process sharing the database reach this process's subscribers.
type PostgresBroker struct {
	pool   *pgxpool.Pool
	hub    *MemoryBroker
	logger *slog.Logger

	stopOnce sync.Once
	stop     context.CancelFunc
	done     chan struct{}
}

// PostgresBrokerOption configures a PostgresBroker.
type PostgresBrokerOption func(*PostgresBroker)

// WithPostgresBrokerLogger sets the broker's logger.
func WithPostgresBrokerLogger(logger *slog.Logger) PostgresBrokerOption {
	return func(b *PostgresBroker) {
		b.logger = logger
	}
}

// NewPostgresBroker creates the broker without starting its listener.
func NewPostgresBroker(pool *pgxpool.Pool, opts ...PostgresBrokerOption) (*PostgresBroker, error) {
	if pool == nil {
		return nil, errors.New("postgres pool is required")
	}
	b := &PostgresBroker{
		pool: pool,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.hub = NewMemoryBroker(WithMemoryLogger(b.logger))
	return b, nil
}

// Publish notifies every listening process, this one included.
func (b *PostgresBroker) Publish(ctx context.Context, event records.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	if _, err := b.pool.Exec(ctx, "SELECT pg_notify($1, $2)", notifyChannel, string(payload)); err != nil {
		return fmt.Errorf("notify change event: %w", err)
	}
	return nil
}

// Subscribe registers a listener for one table within one room. Events arrive
// once Start's listener is running.
func (b *PostgresBroker) Subscribe(ctx context.Context, table string, code domain.RoomCode) (Subscription, error) {
	return b.hub.Subscribe(ctx, table, code)
}

// Start runs the LISTEN loop until ctx is cancelled or Close is called. The
// dedicated connection is re-acquired with backoff after failures.
func (b *PostgresBroker) Start(ctx context.Context) {
	ctx, b.stop = context.WithCancel(ctx)
	go func() {
		defer close(b.done)
		for {
			if err := b.listen(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				b.logger.ErrorContext(ctx, "change listener failed, reconnecting", "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}()
}

func (b *PostgresBroker) listen(ctx context.Context) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return fmt.Errorf("listen %s: %w", notifyChannel, err)
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		var event records.ChangeEvent
		if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
			b.logger.WarnContext(ctx, "malformed change notification dropped", "error", err)
			continue
		}
		if err := b.hub.Publish(ctx, event); err != nil {
			b.logger.WarnContext(ctx, "local dispatch failed", "error", err)
		}
	}
}

// Close stops the listener and waits for it to exit.
func (b *PostgresBroker) Close() {
	b.stopOnce.Do(func() {
		if b.stop != nil {
			b.stop()
			<-b.done
		}
	})
}

var _ Broker = (*PostgresBroker)(nil)
