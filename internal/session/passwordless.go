package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	dErrors "pairhub/pkg/domain-errors"
	"pairhub/pkg/domain"
	"pairhub/pkg/platform/sentinel"
)

// emailNamespace maps an email address to a stable user identifier, so the
// same contact always resolves to the same UserID across sign-ins.
var emailNamespace = uuid.MustParse("8f7f54d4-3f0f-4f3b-9a1c-2b1f6a0c5e77")

// Deliverer sends a challenge code to a contact. The real transport (email,
// SMS) lives outside this subsystem.
type Deliverer func(ctx context.Context, email, code string) error

type challenge struct {
	hash      []byte
	expiresAt time.Time
}

// Passwordless implements Provider with a magic-code flow: SignInWithChallenge
// dispatches a one-time code, Redeem exchanges a correct code for a session
// token and flips the current session. Challenge codes are stored bcrypt-hashed
// and expire after the configured TTL.
type Passwordless struct {
	tokens       *TokenService
	deliver      Deliverer
	logger       *slog.Logger
	challengeTTL time.Duration
	sessionTTL   time.Duration

	mu         sync.Mutex
	challenges map[string]challenge
	current    Session
	present    bool

	changes *broadcaster
}

// PasswordlessOption configures a Passwordless provider.
type PasswordlessOption func(*Passwordless)

// WithLogger sets a logger for challenge delivery fallbacks and errors.
func WithLogger(logger *slog.Logger) PasswordlessOption {
	return func(p *Passwordless) {
		p.logger = logger
	}
}

// WithDeliverer sets the challenge delivery transport.
func WithDeliverer(deliver Deliverer) PasswordlessOption {
	return func(p *Passwordless) {
		p.deliver = deliver
	}
}

// WithChallengeTTL overrides how long a code stays redeemable.
func WithChallengeTTL(ttl time.Duration) PasswordlessOption {
	return func(p *Passwordless) {
		p.challengeTTL = ttl
	}
}

// WithSessionTTL overrides the lifetime of minted access tokens.
func WithSessionTTL(ttl time.Duration) PasswordlessOption {
	return func(p *Passwordless) {
		p.sessionTTL = ttl
	}
}

// NewPasswordless constructs a passwordless session provider.
func NewPasswordless(tokens *TokenService, opts ...PasswordlessOption) (*Passwordless, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}

	p := &Passwordless{
		tokens:       tokens,
		challengeTTL: 15 * time.Minute,
		sessionTTL:   24 * time.Hour,
		challenges:   make(map[string]challenge),
		changes:      newBroadcaster(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.deliver == nil {
		// Development fallback: surface the code in the log.
		p.deliver = func(ctx context.Context, email, code string) error {
			p.logger.InfoContext(ctx, "sign-in challenge dispatched", "email", email, "code", code)
			return nil
		}
	}
	return p, nil
}

// Current returns the established session, if any.
func (p *Passwordless) Current(_ context.Context) (Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.present
}

// OnChange registers a session change callback.
func (p *Passwordless) OnChange(fn ChangeFunc) (cancel func()) {
	return p.changes.subscribe(fn)
}

// SignInWithChallenge dispatches a one-time code to the contact. There is no
// synchronous success: the session is established only when the code is
// redeemed.
func (p *Passwordless) SignInWithChallenge(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}

	code, err := newChallengeCode()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "generate challenge code")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "hash challenge code")
	}

	p.mu.Lock()
	p.challenges[email] = challenge{hash: hash, expiresAt: time.Now().Add(p.challengeTTL)}
	p.mu.Unlock()

	if err := p.deliver(ctx, email, code); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "deliver challenge")
	}
	return nil
}

// Redeem exchanges a previously dispatched code for an established session.
// The redeemed challenge is consumed regardless of which client presented it.
func (p *Passwordless) Redeem(ctx context.Context, email, code string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(code) == "" {
		return Session{}, dErrors.New(dErrors.CodeInvalidInput, "email and code are required")
	}

	p.mu.Lock()
	pending, ok := p.challenges[email]
	p.mu.Unlock()
	if !ok {
		return Session{}, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "no outstanding challenge")
	}
	if time.Now().After(pending.expiresAt) {
		return Session{}, dErrors.Wrap(sentinel.ErrExpired, dErrors.CodeUnauthenticated, "challenge expired")
	}
	if bcrypt.CompareHashAndPassword(pending.hash, []byte(strings.TrimSpace(code))) != nil {
		return Session{}, dErrors.New(dErrors.CodeUnauthenticated, "incorrect code")
	}

	userID := uuid.NewSHA1(emailNamespace, []byte(email))
	token, err := p.tokens.Generate(userID, email, p.sessionTTL)
	if err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "mint session token")
	}

	established := Session{
		UserID: domain.UserID(userID),
		Email:  email,
		Token:  token,
	}

	p.mu.Lock()
	delete(p.challenges, email)
	p.current = established
	p.present = true
	p.mu.Unlock()

	p.changes.notify(established, true)
	return established, nil
}

// SignOut invalidates the current session and notifies subscribers.
func (p *Passwordless) SignOut(_ context.Context) error {
	p.mu.Lock()
	wasPresent := p.present
	p.current = Session{}
	p.present = false
	p.mu.Unlock()

	if wasPresent {
		p.changes.notify(Session{}, false)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newChallengeCode() (string, error) {
	// Six digits, uniform, no modulo bias worth worrying about at this range.
	var raw [4]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	n := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
	return fmt.Sprintf("%06d", n%1000000), nil
}

var _ Provider = (*Passwordless)(nil)
