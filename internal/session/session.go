// Package session models the external session provider as an injected
// dependency with an explicit subscribe/unsubscribe lifecycle, so identity
// resolvers and synchronizers in tests can be driven with controlled fake
// sessions instead of a process-global singleton.
package session

import (
	"context"
	"sync"

	"pairhub/pkg/domain"
)

// Session is an established authenticated session.
type Session struct {
	UserID domain.UserID
	Email  string
	// Token is the bearer token minted when the session was established.
	Token string
}

// ChangeFunc receives the new session state. present is false when the
// session ended.
type ChangeFunc func(s Session, present bool)

// Provider yields the current session and notifies on changes. Completion of
// a sign-in has no synchronous success path: SignInWithChallenge only
// dispatches a challenge, and the session change arrives later through
// OnChange once the challenge is redeemed.
type Provider interface {
	// Current returns the established session, if any.
	Current(ctx context.Context) (Session, bool)
	// OnChange registers a callback for session changes. The returned cancel
	// removes the registration; calling it more than once is harmless.
	OnChange(fn ChangeFunc) (cancel func())
	// SignInWithChallenge dispatches a passwordless challenge to the contact.
	SignInWithChallenge(ctx context.Context, email string) error
	// SignOut invalidates the current session.
	SignOut(ctx context.Context) error
}

// broadcaster manages change subscriptions for provider implementations.
type broadcaster struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]ChangeFunc
}

func newBroadcaster() *broadcaster {
	return &broadcaster{listeners: make(map[int]ChangeFunc)}
}

func (b *broadcaster) subscribe(fn ChangeFunc) (cancel func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

func (b *broadcaster) notify(s Session, present bool) {
	b.mu.Lock()
	listeners := make([]ChangeFunc, 0, len(b.listeners))
	for _, fn := range b.listeners {
		listeners = append(listeners, fn)
	}
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(s, present)
	}
}
