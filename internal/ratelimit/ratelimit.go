// Package ratelimit throttles the unauthenticated sign-in endpoints. The
// passwordless flow delivers codes by email; an unthrottled endpoint lets one
// caller spam arbitrary inboxes or brute-force challenge codes.
package ratelimit

import (
	"context"
	"strings"
	"time"
)

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	// RetryAfter in seconds, only set when not allowed.
	RetryAfter int `json:"retry_after,omitempty"`
}

// Store counts requests per key within a sliding window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// SanitizeKeySegment escapes the key delimiter in user-controlled segments so
// an identifier containing ':' cannot collide with an adjacent bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}
