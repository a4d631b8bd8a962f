package httptransport

import (
	"net/http"
	"strings"

	"pairhub/internal/identity"
	"pairhub/internal/names"
	dErrors "pairhub/pkg/domain-errors"
	"pairhub/pkg/requestcontext"
)

// ProfileHandler serves the authenticated user's profile.
type ProfileHandler struct {
	profiles identity.ProfileStore
	names    *names.Cache
}

// NewProfileHandler wires the profile routes.
func NewProfileHandler(profiles identity.ProfileStore, nameCache *names.Cache) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, names: nameCache}
}

type displayNameRequest struct {
	DisplayName string `json:"display_name"`
}

// handleUpdateDisplayName upserts the caller's display name and drops the
// stale memoized name.
func (h *ProfileHandler) handleUpdateDisplayName(w http.ResponseWriter, r *http.Request) {
	var req displayNameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "display name must not be empty"))
		return
	}

	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if err := h.profiles.UpsertDisplayName(ctx, userID, name); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "update display name"))
		return
	}
	if h.names != nil {
		h.names.Invalidate(ctx, userID)
	}
	w.WriteHeader(http.StatusNoContent)
}
