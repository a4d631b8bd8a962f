package session

import (
	"context"
	"sync"

	"pairhub/pkg/domain"
)

// Memory is a controllable in-memory Provider. Tests drive it directly with
// Establish and Clear; SignInWithChallenge establishes a session immediately.
type Memory struct {
	mu      sync.Mutex
	current Session
	present bool

	changes *broadcaster
}

// NewMemory creates an empty in-memory session provider.
func NewMemory() *Memory {
	return &Memory{changes: newBroadcaster()}
}

// Current returns the established session, if any.
func (m *Memory) Current(_ context.Context) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.present
}

// OnChange registers a session change callback.
func (m *Memory) OnChange(fn ChangeFunc) (cancel func()) {
	return m.changes.subscribe(fn)
}

// SignInWithChallenge immediately establishes a session for the contact.
func (m *Memory) SignInWithChallenge(_ context.Context, email string) error {
	m.Establish(Session{UserID: domain.NewUserID(), Email: normalizeEmail(email)})
	return nil
}

// SignOut clears the session.
func (m *Memory) SignOut(_ context.Context) error {
	m.Clear()
	return nil
}

// Establish sets the current session and notifies subscribers.
func (m *Memory) Establish(s Session) {
	m.mu.Lock()
	m.current = s
	m.present = true
	m.mu.Unlock()
	m.changes.notify(s, true)
}

// Clear removes the current session and notifies subscribers.
func (m *Memory) Clear() {
	m.mu.Lock()
	wasPresent := m.present
	m.current = Session{}
	m.present = false
	m.mu.Unlock()
	if wasPresent {
		m.changes.notify(Session{}, false)
	}
}

var _ Provider = (*Memory)(nil)
