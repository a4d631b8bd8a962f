package names

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"pairhub/pkg/domain"
)

// DefaultMemoTTL bounds how stale a shared display name can get.
const DefaultMemoTTL = 10 * time.Minute

// RedisMemo shares resolved display names across server processes. It sits in
// front of the profile store: hits skip the database entirely.
type RedisMemo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMemo creates a memo with the given TTL; zero means DefaultMemoTTL.
func NewRedisMemo(client *redis.Client, ttl time.Duration) *RedisMemo {
	if ttl <= 0 {
		ttl = DefaultMemoTTL
	}
	return &RedisMemo{client: client, ttl: ttl}
}

func memoKey(id domain.UserID) string {
	return "pairhub:name:" + id.String()
}

// GetMany returns memoized names. Users without an entry are absent from the
// result; errors degrade to an empty result since the store remains the
// source of truth.
func (m *RedisMemo) GetMany(ctx context.Context, userIDs []domain.UserID) map[domain.UserID]string {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = memoKey(id)
	}
	values, err := m.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil
	}

	out := make(map[domain.UserID]string, len(userIDs))
	for i, v := range values {
		if name, ok := v.(string); ok {
			out[userIDs[i]] = name
		}
	}
	return out
}

// SetMany memoizes names with the configured TTL.
func (m *RedisMemo) SetMany(ctx context.Context, names map[domain.UserID]string) {
	if len(names) == 0 {
		return
	}
	pipe := m.client.Pipeline()
	for id, name := range names {
		pipe.Set(ctx, memoKey(id), name, m.ttl)
	}
	_, _ = pipe.Exec(ctx)
}

var _ Memo = (*RedisMemo)(nil)

// Forget drops one user's memoized name.
func (m *RedisMemo) Forget(ctx context.Context, userID domain.UserID) {
	_ = m.client.Del(ctx, memoKey(userID)).Err()
}
