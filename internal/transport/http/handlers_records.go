package httptransport

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pairhub/internal/audit"
	"pairhub/internal/names"
	"pairhub/internal/platform/metrics"
	"pairhub/internal/records"
	"pairhub/internal/room"
	"pairhub/pkg/domain"
	dErrors "pairhub/pkg/domain-errors"
	"pairhub/pkg/requestcontext"
)

// RecordsHandler serves the room-scoped record tables. Every route requires
// the caller to be a member of the room in the path.
type RecordsHandler struct {
	store       records.Store
	names       *names.Cache
	memberships room.MembershipStore
	auditor     audit.Publisher
	metrics     *metrics.Metrics
}

// NewRecordsHandler wires the record routes.
func NewRecordsHandler(
	store records.Store,
	nameCache *names.Cache,
	memberships room.MembershipStore,
	auditor audit.Publisher,
	m *metrics.Metrics,
) *RecordsHandler {
	if auditor == nil {
		auditor = audit.Noop{}
	}
	return &RecordsHandler{
		store:       store,
		names:       nameCache,
		memberships: memberships,
		auditor:     auditor,
		metrics:     m,
	}
}

type recordView struct {
	records.Record
	AuthorName string `json:"author_name"`
}

type submitRequest struct {
	Body string     `json:"body"`
	At   *time.Time `json:"at,omitempty"`
}

type toggleRequest struct {
	Done bool `json:"done"`
}

// scope resolves and authorizes the table and room named in the URL.
func (h *RecordsHandler) scope(r *http.Request) (records.Table, domain.RoomCode, error) {
	table, ok := records.TableByName(chi.URLParam(r, "table"))
	if !ok {
		return records.Table{}, "", dErrors.Newf(dErrors.CodeNotFound, "unknown table %q", chi.URLParam(r, "table"))
	}

	code, err := domain.ParseRoomCode(chi.URLParam(r, "code"))
	if err != nil {
		return records.Table{}, "", err
	}

	ctx := r.Context()
	member, err := h.memberships.IsMember(ctx, code, requestcontext.UserID(ctx))
	if err != nil {
		return records.Table{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "check membership")
	}
	if !member {
		return records.Table{}, "", dErrors.New(dErrors.CodePreconditionFailed, "join the room before accessing its records")
	}
	return table, code, nil
}

func (h *RecordsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	table, code, err := h.scope(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	rows, err := h.store.List(ctx, table, code)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "fetch records"))
		return
	}

	authors := make([]domain.UserID, 0, len(rows))
	for _, row := range rows {
		authors = append(authors, row.AuthorID)
	}
	resolved := h.names.Resolve(ctx, authors)

	views := make([]recordView, len(rows))
	for i, row := range rows {
		views[i] = recordView{Record: row, AuthorName: resolved[row.AuthorID]}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": views})
}

func (h *RecordsHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	table, code, err := h.scope(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req submitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "body must not be empty"))
		return
	}

	ctx := r.Context()
	record := records.Record{
		ID:        domain.NewRecordID(),
		RoomCode:  code,
		AuthorID:  requestcontext.UserID(ctx),
		CreatedAt: requestcontext.Now(ctx),
		Body:      body,
	}
	if req.At != nil {
		record.At = req.At.UTC()
	}

	if err := h.store.Insert(ctx, table, record); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "submit record"))
		return
	}
	if h.metrics != nil {
		h.metrics.RecordsSubmitted.WithLabelValues(table.Name).Inc()
	}
	h.auditor.Emit(ctx, audit.Event{
		Action:   audit.ActionRecordCreated,
		UserID:   record.AuthorID.String(),
		RoomCode: code.String(),
		Table:    table.Name,
		Device:   requestcontext.Device(ctx),
	})
	writeJSON(w, http.StatusCreated, recordView{Record: record})
}

func (h *RecordsHandler) handleToggle(w http.ResponseWriter, r *http.Request) {
	table, code, err := h.scope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := domain.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req toggleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.store.SetDone(r.Context(), table, code, id, req.Done); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordsHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	table, code, err := h.scope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := domain.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	if err := h.store.Delete(ctx, table, code, id); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "remove record"))
		return
	}
	h.auditor.Emit(ctx, audit.Event{
		Action:   audit.ActionRecordDeleted,
		UserID:   requestcontext.UserID(ctx).String(),
		RoomCode: code.String(),
		Table:    table.Name,
		Device:   requestcontext.Device(ctx),
	})
	w.WriteHeader(http.StatusNoContent)
}
