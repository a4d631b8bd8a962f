package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"pairhub/pkg/requestcontext"
)

// Limiter applies a per-IP limit to a route group.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	logger *slog.Logger
}

// NewLimiter creates a limiter allowing limit requests per window per client
// IP.
func NewLimiter(store Store, limit int, window time.Duration, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{store: store, limit: limit, window: window, logger: logger}
}

// Middleware rejects callers over the limit with 429. Store failures fail
// open: losing the limiter is better than losing sign-in.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := "ip:" + SanitizeKeySegment(requestcontext.ClientIP(ctx)) + ":" + r.URL.Path

		result, err := l.store.Allow(ctx, key, l.limit, l.window)
		if err != nil {
			l.logger.WarnContext(ctx, "rate limit check failed, allowing request", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limited","error_description":"too many requests"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
