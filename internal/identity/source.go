package identity

import "context"

// Source yields the acting identity. The Resolver implements it for a
// process-local session; transports implement it per request.
type Source interface {
	Current(ctx context.Context) (Identity, bool)
}

var _ Source = (*Resolver)(nil)
