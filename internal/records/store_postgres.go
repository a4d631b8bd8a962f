package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pairhub/pkg/domain"
	"pairhub/pkg/platform/sentinel"
)

var tracer = otel.Tracer("pairhub/records")

// PostgresStore persists all tables' records in the synced_records table,
// discriminated by the record_table column.
type PostgresStore struct {
	pool   *pgxpool.Pool
	events EventPublisher
	logger *slog.Logger
}

// PostgresStoreOption configures a PostgresStore.
type PostgresStoreOption func(*PostgresStore)

// WithPostgresEventPublisher publishes a ChangeEvent after each mutation.
func WithPostgresEventPublisher(events EventPublisher) PostgresStoreOption {
	return func(s *PostgresStore) {
		s.events = events
	}
}

// WithPostgresLogger sets the logger for publish failures.
func WithPostgresLogger(logger *slog.Logger) PostgresStoreOption {
	return func(s *PostgresStore) {
		s.logger = logger
	}
}

// NewPostgresStore constructs a Postgres-backed record store.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresStoreOption) *PostgresStore {
	s := &PostgresStore{pool: pool}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// orderClause returns the SQL order matching the table's canonical order.
// Table order definitions are fixed at compile time, never caller input.
func orderClause(table Table) string {
	switch table.Name {
	case Watchlist.Name:
		return "done ASC, created_at DESC, id ASC"
	case Calendar.Name:
		return "at ASC, created_at DESC, id ASC"
	default:
		return "created_at DESC, id ASC"
	}
}

// List returns the room's records in the table's canonical order.
func (s *PostgresStore) List(ctx context.Context, table Table, code domain.RoomCode) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "records.List", trace.WithAttributes(
		attribute.String("table", table.Name),
	))
	defer span.End()

	rows, err := s.pool.Query(ctx,
		`SELECT id, room_code, author_id, created_at, body, done, at
		 FROM synced_records
		 WHERE record_table = $1 AND room_code = $2
		 ORDER BY `+orderClause(table),
		table.Name, code.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

// Insert adds a record and publishes an insert event.
func (s *PostgresStore) Insert(ctx context.Context, table Table, record Record) error {
	ctx, span := tracer.Start(ctx, "records.Insert", trace.WithAttributes(
		attribute.String("table", table.Name),
	))
	defer span.End()

	var at *time.Time
	if !record.At.IsZero() {
		at = &record.At
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO synced_records (id, record_table, room_code, author_id, created_at, body, done, at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID.String(), table.Name, record.RoomCode.String(), record.AuthorID.String(),
		record.CreatedAt, record.Body, record.Done, at,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	s.publish(ctx, ChangeEvent{Type: EventInsert, Table: table.Name, Record: record})
	return nil
}

// SetDone updates the record's mutable display state and publishes an update
// event.
func (s *PostgresStore) SetDone(ctx context.Context, table Table, code domain.RoomCode, id domain.RecordID, done bool) error {
	ctx, span := tracer.Start(ctx, "records.SetDone", trace.WithAttributes(
		attribute.String("table", table.Name),
	))
	defer span.End()

	row := s.pool.QueryRow(ctx,
		`UPDATE synced_records SET done = $1
		 WHERE record_table = $2 AND room_code = $3 AND id = $4
		 RETURNING id, room_code, author_id, created_at, body, done, at`,
		done, table.Name, code.String(), id.String(),
	)
	record, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("set done: %w", err)
	}

	s.publish(ctx, ChangeEvent{Type: EventUpdate, Table: table.Name, Record: record})
	return nil
}

// Delete removes a record and publishes a delete event. Deleting a missing
// record is a no-op.
func (s *PostgresStore) Delete(ctx context.Context, table Table, code domain.RoomCode, id domain.RecordID) error {
	ctx, span := tracer.Start(ctx, "records.Delete", trace.WithAttributes(
		attribute.String("table", table.Name),
	))
	defer span.End()

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM synced_records WHERE record_table = $1 AND room_code = $2 AND id = $3`,
		table.Name, code.String(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	if tag.RowsAffected() > 0 {
		s.publish(ctx, ChangeEvent{Type: EventDelete, Table: table.Name, Record: Record{ID: id, RoomCode: code}})
	}
	return nil
}

func (s *PostgresStore) publish(ctx context.Context, event ChangeEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "change event publish failed",
			"table", event.Table, "type", string(event.Type), "error", err)
	}
}

var _ Store = (*PostgresStore)(nil)

func scanRecord(scan func(dest ...any) error) (Record, error) {
	var (
		record      Record
		rawID       string
		rawRoomCode string
		rawAuthor   string
		at          *time.Time
	)
	if err := scan(&rawID, &rawRoomCode, &rawAuthor, &record.CreatedAt, &record.Body, &record.Done, &at); err != nil {
		return Record{}, err
	}

	id, err := domain.ParseRecordID(rawID)
	if err != nil {
		return Record{}, err
	}
	author, err := domain.ParseUserID(rawAuthor)
	if err != nil {
		return Record{}, err
	}
	code, err := domain.ParseRoomCode(rawRoomCode)
	if err != nil {
		return Record{}, err
	}

	record.ID = id
	record.AuthorID = author
	record.RoomCode = code
	if at != nil {
		record.At = *at
	}
	return record, nil
}
