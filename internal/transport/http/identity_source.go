package httptransport

import (
	"context"

	"pairhub/internal/identity"
	"pairhub/pkg/requestcontext"
)

// RequestIdentities resolves the acting identity from the authenticated
// request context, so services that take an identity source work per request
// instead of per process.
func RequestIdentities() identity.Source {
	return contextIdentities{}
}

type contextIdentities struct{}

func (contextIdentities) Current(ctx context.Context) (identity.Identity, bool) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return identity.Identity{}, false
	}
	return identity.Identity{
		UserID: userID,
		Email:  requestcontext.Email(ctx),
	}, true
}
