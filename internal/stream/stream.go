// Package stream fans row-level change events out to room subscribers. A
// broker is both the publish side wired into the record store and the
// subscribe side the synchronizer listens on. Three backends exist: an
// in-process hub, Postgres LISTEN/NOTIFY, and Redis Pub/Sub.
package stream

import (
	"context"

	"pairhub/internal/records"
	"pairhub/pkg/domain"
)

// Subscription is one live listener on a table within a room. Events is
// closed when the subscription ends. Close is idempotent and safe to call
// concurrently with event delivery.
type Subscription interface {
	Events() <-chan records.ChangeEvent
	Close()
}

// Broker delivers change events published after store mutations to the
// subscribers of the matching table and room. Delivery is best effort: a
// subscriber that stops draining loses events rather than blocking the
// publisher.
type Broker interface {
	records.EventPublisher
	Subscribe(ctx context.Context, table string, code domain.RoomCode) (Subscription, error)
}

// subscriberBuffer is the per-subscription channel capacity. A synchronizer
// drains promptly; the buffer only absorbs the window between snapshot fetch
// and the first drain.
const subscriberBuffer = 64
