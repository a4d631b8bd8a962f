// Package room manages shared room creation and membership.
package room

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"pairhub/internal/audit"
	"pairhub/internal/identity"
	"pairhub/internal/platform/metrics"
	"pairhub/internal/prefs"
	dErrors "pairhub/pkg/domain-errors"
	"pairhub/pkg/domain"
)

// IdentitySource yields the identity at call time. Join resolves it per call
// rather than caching, so a sign-out between calls is never acted on stale.
type IdentitySource interface {
	Current(ctx context.Context) (identity.Identity, bool)
}

// Manager implements the idempotent create-or-join flow.
type Manager struct {
	identities  IdentitySource
	rooms       RoomStore
	memberships MembershipStore
	prefs       prefs.Store
	auditor     audit.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithAudit sets the audit publisher.
func WithAudit(publisher audit.Publisher) ManagerOption {
	return func(m *Manager) {
		m.auditor = publisher
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector *metrics.Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = collector
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager constructs a Manager.
func NewManager(identities IdentitySource, rooms RoomStore, memberships MembershipStore, prefStore prefs.Store, opts ...ManagerOption) (*Manager, error) {
	if identities == nil {
		return nil, fmt.Errorf("identity source is required")
	}
	if rooms == nil {
		return nil, fmt.Errorf("room store is required")
	}
	if memberships == nil {
		return nil, fmt.Errorf("membership store is required")
	}
	if prefStore == nil {
		return nil, fmt.Errorf("pref store is required")
	}

	m := &Manager{
		identities:  identities,
		rooms:       rooms,
		memberships: memberships,
		prefs:       prefStore,
		auditor:     audit.Noop{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m, nil
}

// JoinOrCreate creates the room if needed and attaches the current user as a
// member, both idempotently. An empty code (after trimming) is a silent
// no-op. A room-create success followed by a membership failure is surfaced
// and not rolled back; retrying the same code converges to the joined state.
func (m *Manager) JoinOrCreate(ctx context.Context, rawCode string) error {
	current, present := m.identities.Current(ctx)
	if !present {
		return dErrors.New(dErrors.CodePreconditionFailed, "sign in before joining a room")
	}

	if strings.TrimSpace(rawCode) == "" {
		return nil
	}
	code, err := domain.ParseRoomCode(rawCode)
	if err != nil {
		return err
	}

	existed, err := m.rooms.Exists(ctx, code)
	if err != nil {
		// Existence is only consulted for the room_created audit event;
		// treat a failed check as "unknown, assume existed".
		existed = true
	}

	if err := m.rooms.CreateIfAbsent(ctx, code); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "create room")
	}
	if !existed {
		m.auditor.Emit(ctx, audit.Event{
			Action:   audit.ActionRoomCreated,
			UserID:   current.UserID.String(),
			RoomCode: code.String(),
		})
	}

	if err := m.memberships.Upsert(ctx, code, current.UserID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "join room")
	}

	if err := prefs.SaveRoomCode(m.prefs, code.String()); err != nil {
		// The local cache is a convenience; a failed save only costs the
		// user a re-entry of the code after reload.
		m.logger.WarnContext(ctx, "failed to persist room code", "room", code.String(), "error", err)
	}

	m.auditor.Emit(ctx, audit.Event{
		Action:   audit.ActionMemberJoined,
		UserID:   current.UserID.String(),
		RoomCode: code.String(),
	})
	if m.metrics != nil {
		m.metrics.RoomsJoined.Inc()
	}
	return nil
}

// RememberedRoom returns the room code persisted by the last successful join,
// if any.
func (m *Manager) RememberedRoom() string {
	return prefs.LoadRoomCode(m.prefs)
}
