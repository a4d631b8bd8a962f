// Package identity resolves an opaque session into a stable
// (userId, displayName) pair and keeps it current across session changes.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	dErrors "pairhub/pkg/domain-errors"
	"pairhub/internal/session"
	"pairhub/pkg/email"
	"pairhub/pkg/platform/sentinel"
)

// Resolver derives the current identity from the session provider and the
// profile store. It re-derives on every session change notification; callers
// read the latest value through Current.
type Resolver struct {
	sessions session.Provider
	profiles ProfileStore
	logger   *slog.Logger

	mu      sync.RWMutex
	current Identity
	present bool

	cancelOnce sync.Once
	cancel     func()
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets a logger for background derivation failures.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver constructs a Resolver. Call Start to perform the initial
// derivation and subscribe to session changes.
func NewResolver(sessions session.Provider, profiles ProfileStore, opts ...ResolverOption) (*Resolver, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session provider is required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}

	r := &Resolver{
		sessions: sessions,
		profiles: profiles,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r, nil
}

// Start derives the identity from the current session and subscribes to
// session change notifications.
func (r *Resolver) Start(ctx context.Context) {
	r.derive(ctx)
	r.cancel = r.sessions.OnChange(func(s session.Session, present bool) {
		r.apply(ctx, s, present)
	})
}

// Close unsubscribes from session changes. Safe to call more than once.
func (r *Resolver) Close() {
	r.cancelOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
	})
}

// Current returns the resolved identity, if any.
func (r *Resolver) Current(_ context.Context) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, r.present
}

// RequestSignIn triggers the external passwordless challenge. Completion
// arrives later via the session-change notification; success here only means
// the challenge was dispatched.
func (r *Resolver) RequestSignIn(ctx context.Context, contact string) error {
	return r.sessions.SignInWithChallenge(ctx, contact)
}

// SignOut invalidates the session. Identity becomes absent through the change
// notification; already-synced read data elsewhere stays visible.
func (r *Resolver) SignOut(ctx context.Context) error {
	return r.sessions.SignOut(ctx)
}

// UpdateDisplayName upserts the profile display name for the current user.
// With no identity present it declines with a caller-visible precondition
// failure. Repeated calls with the same name have no additional effect.
func (r *Resolver) UpdateDisplayName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "display name cannot be empty")
	}

	r.mu.RLock()
	current, present := r.current, r.present
	r.mu.RUnlock()
	if !present {
		return dErrors.New(dErrors.CodePreconditionFailed, "sign in before setting a display name")
	}
	if current.DisplayName == name {
		return nil
	}

	if err := r.profiles.UpsertDisplayName(ctx, current.UserID, name); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save display name")
	}

	r.mu.Lock()
	if r.present && r.current.UserID == current.UserID {
		r.current.DisplayName = name
	}
	r.mu.Unlock()
	return nil
}

// derive re-reads the session and profile to rebuild the identity.
func (r *Resolver) derive(ctx context.Context) {
	s, present := r.sessions.Current(ctx)
	r.apply(ctx, s, present)
}

func (r *Resolver) apply(ctx context.Context, s session.Session, present bool) {
	if !present {
		r.mu.Lock()
		r.current = Identity{}
		r.present = false
		r.mu.Unlock()
		return
	}

	resolved := Identity{UserID: s.UserID, Email: s.Email}
	profile, err := r.profiles.FindByID(ctx, s.UserID)
	switch {
	case err == nil:
		resolved.DisplayName = profile.DisplayName
	case errors.Is(err, sentinel.ErrNotFound):
		// No profile row yet: display name falls back to one derived from
		// the email for presentation; nothing is persisted.
		resolved.DisplayName = email.DeriveDisplayName(s.Email)
	default:
		r.logger.WarnContext(ctx, "profile lookup failed; display name left empty",
			"user_id", s.UserID.String(), "error", err)
	}

	r.mu.Lock()
	r.current = resolved
	r.present = true
	r.mu.Unlock()
}
