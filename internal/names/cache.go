// Package names resolves author IDs to display names for record enrichment.
// Lookups are batched per call and memoized, so rendering a list of records
// costs at most one profile query no matter how many rows repeat an author.
package names

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"pairhub/internal/identity"
	"pairhub/internal/platform/metrics"
	"pairhub/pkg/domain"
)

// Memo is an optional shared name layer consulted between the in-process map
// and the profile store. Lookup degradation is silent; the store remains the
// source of truth.
type Memo interface {
	GetMany(ctx context.Context, userIDs []domain.UserID) map[domain.UserID]string
	SetMany(ctx context.Context, names map[domain.UserID]string)
	Forget(ctx context.Context, userID domain.UserID)
}

// Cache memoizes display-name lookups. A user with no profile memoizes as the
// empty string, so repeated misses never re-query. Invalidate drops the memo
// after a profile change.
type Cache struct {
	profiles identity.ProfileStore
	memo     Memo
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu    sync.RWMutex
	known map[domain.UserID]string
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the cache's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithMemo adds a shared memo layer in front of the profile store.
func WithMemo(memo Memo) Option {
	return func(c *Cache) {
		c.memo = memo
	}
}

// WithMetrics records batch lookups.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// NewCache creates an empty cache over a profile store.
func NewCache(profiles identity.ProfileStore, opts ...Option) (*Cache, error) {
	if profiles == nil {
		return nil, errors.New("profile store is required")
	}
	c := &Cache{
		profiles: profiles,
		known:    make(map[domain.UserID]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Resolve returns a display name for every requested user. Unknown users
// resolve to the empty string, including when the backing lookup fails, so
// enrichment is total.
func (c *Cache) Resolve(ctx context.Context, userIDs []domain.UserID) map[domain.UserID]string {
	out := make(map[domain.UserID]string, len(userIDs))

	c.mu.RLock()
	var missing []domain.UserID
	queued := make(map[domain.UserID]struct{})
	for _, id := range userIDs {
		if _, ok := out[id]; ok {
			continue
		}
		if _, ok := queued[id]; ok {
			continue
		}
		if name, ok := c.known[id]; ok {
			out[id] = name
		} else {
			queued[id] = struct{}{}
			missing = append(missing, id)
		}
	}
	c.mu.RUnlock()

	if len(missing) == 0 {
		return out
	}

	if c.memo != nil {
		memoized := c.memo.GetMany(ctx, missing)
		if len(memoized) > 0 {
			c.mu.Lock()
			remaining := missing[:0]
			for _, id := range missing {
				if name, ok := memoized[id]; ok {
					c.known[id] = name
					out[id] = name
				} else {
					remaining = append(remaining, id)
				}
			}
			missing = remaining
			c.mu.Unlock()
		}
		if len(missing) == 0 {
			return out
		}
	}

	if c.metrics != nil {
		c.metrics.NameLookupBatches.Inc()
	}
	found, err := c.profiles.FindByIDs(ctx, missing)
	if err != nil {
		c.logger.WarnContext(ctx, "display name lookup failed", "error", err)
		for _, id := range missing {
			out[id] = ""
		}
		return out
	}

	resolved := make(map[domain.UserID]string, len(missing))
	c.mu.Lock()
	for _, id := range missing {
		name := found[id]
		c.known[id] = name
		out[id] = name
		resolved[id] = name
	}
	c.mu.Unlock()

	if c.memo != nil {
		c.memo.SetMany(ctx, resolved)
	}
	return out
}

// Invalidate forgets one user's memoized name everywhere.
func (c *Cache) Invalidate(ctx context.Context, userID domain.UserID) {
	c.mu.Lock()
	delete(c.known, userID)
	c.mu.Unlock()
	if c.memo != nil {
		c.memo.Forget(ctx, userID)
	}
}
