package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pairhub/internal/audit"
	"pairhub/internal/room"
	"pairhub/pkg/domain"
	dErrors "pairhub/pkg/domain-errors"
)

// RoomsHandler serves room membership and the operator audit listing.
type RoomsHandler struct {
	manager *room.Manager
	events  audit.Store
}

// NewRoomsHandler wires the room routes. The audit store may be nil when no
// operator surface is exposed.
func NewRoomsHandler(manager *room.Manager, events audit.Store) *RoomsHandler {
	return &RoomsHandler{manager: manager, events: events}
}

type joinRequest struct {
	Code string `json:"code"`
}

// handleJoin idempotently creates the room and attaches the caller as a
// member. A blank code succeeds without doing anything, matching the
// manager's silent no-op.
func (h *RoomsHandler) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.manager.JoinOrCreate(r.Context(), req.Code); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RoomsHandler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	code, err := domain.ParseRoomCode(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}

	events, err := h.events.ListByRoom(r.Context(), code)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list audit events"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
