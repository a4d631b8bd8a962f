// Package sync implements the live list synchronizer. One engine instance
// owns the in-memory list for a single table, scoped to the room it is set
// to: it bootstraps from an ordered snapshot, subscribes to the change
// stream, reconciles events into the list, and enriches rows with resolved
// author names.
package sync

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pairhub/internal/identity"
	"pairhub/internal/names"
	"pairhub/internal/platform/metrics"
	"pairhub/internal/records"
	"pairhub/internal/stream"
	"pairhub/pkg/domain"
	dErrors "pairhub/pkg/domain-errors"
)

var tracer = otel.Tracer("pairhub/sync")

// State is the engine's lifecycle phase for the current room.
type State string

const (
	// StateIdle means no room is set and the list is empty.
	StateIdle State = "idle"
	// StateBootstrapping means the snapshot fetch is in flight. Stream
	// events already apply; the snapshot merges around them by ID.
	StateBootstrapping State = "bootstrapping"
	// StateLive means the snapshot is loaded and events apply
	// incrementally.
	StateLive State = "live"
)

// IdentitySource supplies the identity stamped onto submitted records.
type IdentitySource interface {
	Current(ctx context.Context) (identity.Identity, bool)
}

// Synchronizer keeps one table's room-scoped record list converged with the
// store and the change stream. A room+table pairing has exactly one active
// engine; SetRoom supersedes the previous room's subscription before the new
// one starts.
type Synchronizer struct {
	table      records.Table
	store      records.Store
	broker     stream.Broker
	identities IdentitySource
	names      *names.Cache
	logger     *slog.Logger
	metrics    *metrics.Metrics

	mu    sync.Mutex
	state State
	room  domain.RoomCode
	// epoch increments on every SetRoom and Close. Goroutines capture it
	// and re-check under the lock, so late snapshots, refetches, and
	// events for a superseded room never touch the list.
	epoch  int
	byID   map[domain.RecordID]records.Record
	list   []EnrichedRecord
	sub    stream.Subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = logger
	}
}

// WithMetrics records snapshot latency, stream events, and submissions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Synchronizer) {
		s.metrics = m
	}
}

// New creates an idle engine for one table.
func New(
	table records.Table,
	store records.Store,
	broker stream.Broker,
	identities IdentitySource,
	nameCache *names.Cache,
	opts ...Option,
) (*Synchronizer, error) {
	if store == nil {
		return nil, errors.New("record store is required")
	}
	if broker == nil {
		return nil, errors.New("stream broker is required")
	}
	if identities == nil {
		return nil, errors.New("identity source is required")
	}
	if nameCache == nil {
		return nil, errors.New("name cache is required")
	}
	s := &Synchronizer{
		table:      table,
		store:      store,
		broker:     broker,
		identities: identities,
		names:      nameCache,
		state:      StateIdle,
		byID:       make(map[domain.RecordID]records.Record),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("table", table.Name)
	return s, nil
}

// SetRoom scopes the engine to a room. The previous room's subscription is
// torn down first; an empty code returns the engine to idle. The stream
// subscription opens before the snapshot fetch so no event falls between
// them, and events arriving before the snapshot resolves are merged by ID.
func (s *Synchronizer) SetRoom(ctx context.Context, code domain.RoomCode) error {
	ctx, span := tracer.Start(ctx, "sync.SetRoom", trace.WithAttributes(
		attribute.String("table", s.table.Name),
	))
	defer span.End()

	s.teardown()

	if code == "" {
		return nil
	}

	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.room = code
	s.state = StateBootstrapping
	s.byID = make(map[domain.RecordID]records.Record)
	s.list = nil
	s.mu.Unlock()

	sub, err := s.broker.Subscribe(ctx, s.table.Name, code)
	if err != nil {
		s.mu.Lock()
		if s.epoch == epoch {
			s.state = StateIdle
			s.room = ""
		}
		s.mu.Unlock()
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "subscribe to change stream")
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		cancel()
		sub.Close()
		return nil
	}
	s.sub = sub
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(loopCtx, epoch, sub)

	start := time.Now()
	rows, err := s.store.List(ctx, s.table, code)
	if s.metrics != nil {
		s.metrics.SnapshotDuration.Observe(float64(time.Since(start).Milliseconds()))
	}
	if err != nil {
		// The stream keeps running; whatever events have applied stay.
		s.logger.ErrorContext(ctx, "snapshot fetch failed", "room", code.String(), "error", err)
		s.mu.Lock()
		if s.epoch == epoch {
			s.state = StateLive
		}
		s.mu.Unlock()
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "fetch room snapshot")
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return nil
	}
	for _, row := range rows {
		if _, ok := s.byID[row.ID]; !ok {
			s.byID[row.ID] = row
		}
	}
	s.state = StateLive
	s.mu.Unlock()

	s.rebuild(ctx, epoch, nil)
	return nil
}

// Room returns the engine's active room code, empty when idle.
func (s *Synchronizer) Room() domain.RoomCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// State returns the engine's lifecycle phase.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Records returns the current enriched list in canonical order.
func (s *Synchronizer) Records() []EnrichedRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EnrichedRecord, len(s.list))
	copy(out, s.list)
	return out
}

// Submit inserts a record authored by the current identity. A whitespace-only
// body is a silent no-op. Missing identity or room fail with a precondition
// error naming what is missing.
func (s *Synchronizer) Submit(ctx context.Context, body string, at time.Time) error {
	ctx, span := tracer.Start(ctx, "sync.Submit", trace.WithAttributes(
		attribute.String("table", s.table.Name),
	))
	defer span.End()

	current, present := s.identities.Current(ctx)
	if !present {
		return dErrors.New(dErrors.CodePreconditionFailed, "sign in before submitting")
	}

	s.mu.Lock()
	code := s.room
	epoch := s.epoch
	s.mu.Unlock()
	if code == "" {
		return dErrors.New(dErrors.CodePreconditionFailed, "join a room before submitting")
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}

	record := records.Record{
		ID:        domain.NewRecordID(),
		RoomCode:  code,
		AuthorID:  current.UserID,
		CreatedAt: time.Now().UTC(),
		Body:      body,
		At:        at,
	}
	if err := s.store.Insert(ctx, s.table, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "submit record")
	}
	if s.metrics != nil {
		s.metrics.RecordsSubmitted.WithLabelValues(s.table.Name).Inc()
	}

	if s.table.LocalEcho {
		// The feed's live path only reacts to stream inserts from other
		// clients; the author's own row lands immediately with the name
		// already known locally.
		s.mu.Lock()
		if s.epoch == epoch {
			s.byID[record.ID] = record
		}
		s.mu.Unlock()
		s.rebuild(ctx, epoch, map[domain.UserID]string{current.UserID: current.DisplayName})
	}
	return nil
}

// Toggle flips a record's done state. Fire and forget: the local list is not
// rolled back on failure, convergence comes from the stream.
func (s *Synchronizer) Toggle(ctx context.Context, id domain.RecordID, done bool) error {
	s.mu.Lock()
	code := s.room
	s.mu.Unlock()
	if code == "" {
		return dErrors.New(dErrors.CodePreconditionFailed, "join a room before toggling")
	}
	if err := s.store.SetDone(ctx, s.table, code, id, done); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "toggle record")
	}
	return nil
}

// Remove deletes a record by ID. Fire and forget like Toggle.
func (s *Synchronizer) Remove(ctx context.Context, id domain.RecordID) error {
	s.mu.Lock()
	code := s.room
	s.mu.Unlock()
	if code == "" {
		return dErrors.New(dErrors.CodePreconditionFailed, "join a room before removing")
	}
	if err := s.store.Delete(ctx, s.table, code, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "remove record")
	}
	return nil
}

// Close tears the active subscription down and returns the engine to idle.
func (s *Synchronizer) Close() {
	s.teardown()
}

func (s *Synchronizer) teardown() {
	s.mu.Lock()
	s.epoch++
	sub := s.sub
	cancel := s.cancel
	s.sub = nil
	s.cancel = nil
	s.room = ""
	s.state = StateIdle
	s.byID = make(map[domain.RecordID]records.Record)
	s.list = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sub != nil {
		sub.Close()
	}
	s.wg.Wait()
}

// run applies stream events until the subscription closes or the context is
// cancelled.
func (s *Synchronizer) run(ctx context.Context, epoch int, sub stream.Subscription) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			s.apply(ctx, epoch, event)
		}
	}
}

func (s *Synchronizer) apply(ctx context.Context, epoch int, event records.ChangeEvent) {
	s.mu.Lock()
	if s.epoch != epoch || (event.Record.RoomCode != "" && event.Record.RoomCode != s.room) {
		s.mu.Unlock()
		return
	}

	if s.metrics != nil {
		s.metrics.StreamEvents.WithLabelValues(s.table.Name, string(event.Type)).Inc()
	}

	switch event.Type {
	case records.EventInsert:
		// The snapshot may have landed this row already.
		if _, ok := s.byID[event.Record.ID]; ok {
			s.mu.Unlock()
			return
		}
		s.byID[event.Record.ID] = event.Record
		s.mu.Unlock()
		s.rebuild(ctx, epoch, nil)

	case records.EventUpdate:
		if s.table.RefetchOnUpdate {
			s.mu.Unlock()
			s.refetch(ctx, epoch)
			return
		}
		s.byID[event.Record.ID] = event.Record
		s.mu.Unlock()
		s.rebuild(ctx, epoch, nil)

	case records.EventDelete:
		delete(s.byID, event.Record.ID)
		s.mu.Unlock()
		s.rebuild(ctx, epoch, nil)

	default:
		s.mu.Unlock()
	}
}

// refetch replaces the list wholesale from the store. A failed fetch keeps
// the last known good list.
func (s *Synchronizer) refetch(ctx context.Context, epoch int) {
	s.mu.Lock()
	code := s.room
	s.mu.Unlock()

	rows, err := s.store.List(ctx, s.table, code)
	if err != nil {
		s.logger.WarnContext(ctx, "refetch failed, keeping current list", "room", code.String(), "error", err)
		return
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.byID = make(map[domain.RecordID]records.Record, len(rows))
	for _, row := range rows {
		s.byID[row.ID] = row
	}
	s.mu.Unlock()

	s.rebuild(ctx, epoch, nil)
}

// rebuild re-derives the enriched list from the row set. Name resolution runs
// outside the lock; hints override resolved names for the authors they name.
// A stale epoch when re-entering the lock discards the result.
func (s *Synchronizer) rebuild(ctx context.Context, epoch int, hints map[domain.UserID]string) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	rows := make([]records.Record, 0, len(s.byID))
	for _, row := range s.byID {
		rows = append(rows, row)
	}
	s.mu.Unlock()

	resolved := s.names.Resolve(ctx, authorsOf(rows))
	for id, name := range hints {
		if name != "" {
			resolved[id] = name
		}
	}
	list := enrich(s.table, rows, resolved)

	s.mu.Lock()
	if s.epoch == epoch {
		s.list = list
	}
	s.mu.Unlock()
}
