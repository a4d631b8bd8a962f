package testutil

import (
	"net/http"
	"time"

	"pairhub/pkg/domain"
	"pairhub/pkg/requestcontext"
)

// WithUser stamps an authenticated user onto the request context, simulating
// the auth middleware. Invalid IDs are silently ignored.
func WithUser(req *http.Request, userID, email string) *http.Request {
	ctx := req.Context()
	if parsed, err := domain.ParseUserID(userID); err == nil {
		ctx = requestcontext.WithUserID(ctx, parsed)
	}
	if email != "" {
		ctx = requestcontext.WithEmail(ctx, email)
	}
	return req.WithContext(ctx)
}

// WithDevice stamps a device description onto the request context.
func WithDevice(req *http.Request, device string) *http.Request {
	return req.WithContext(requestcontext.WithDevice(req.Context(), device))
}

// WithTime pins the request-scoped clock.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
