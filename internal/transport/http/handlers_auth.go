package httptransport

import (
	"context"
	"net/http"
	"strings"

	"pairhub/internal/audit"
	"pairhub/internal/session"
	dErrors "pairhub/pkg/domain-errors"
	"pairhub/pkg/requestcontext"
)

// Authenticator covers the session operations the auth routes need.
type Authenticator interface {
	SignInWithChallenge(ctx context.Context, email string) error
	Redeem(ctx context.Context, email, code string) (session.Session, error)
	SignOut(ctx context.Context) error
}

// AuthHandler serves the passwordless sign-in flow.
type AuthHandler struct {
	sessions Authenticator
	auditor  audit.Publisher
}

// NewAuthHandler wires the auth routes.
func NewAuthHandler(sessions Authenticator, auditor audit.Publisher) *AuthHandler {
	if auditor == nil {
		auditor = audit.Noop{}
	}
	return &AuthHandler{sessions: sessions, auditor: auditor}
}

type signInRequest struct {
	Email string `json:"email"`
}

// handleSignIn dispatches a sign-in challenge. Completion arrives through
// redeem, never synchronously.
func (h *AuthHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid email"))
		return
	}

	ctx := r.Context()
	if err := h.sessions.SignInWithChallenge(ctx, email); err != nil {
		writeError(w, err)
		return
	}

	h.auditor.Emit(ctx, audit.Event{
		Action: audit.ActionSignInRequested,
		Device: requestcontext.Device(ctx),
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "challenge_sent"})
}

type redeemRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type redeemResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (h *AuthHandler) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Code) == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "email and code are required"))
		return
	}

	s, err := h.sessions.Redeem(r.Context(), req.Email, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, redeemResponse{
		Token:  s.Token,
		UserID: s.UserID.String(),
		Email:  s.Email,
	})
}

func (h *AuthHandler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.sessions.SignOut(ctx); err != nil {
		writeError(w, err)
		return
	}

	h.auditor.Emit(ctx, audit.Event{
		Action: audit.ActionSignedOut,
		UserID: requestcontext.UserID(ctx).String(),
		Device: requestcontext.Device(ctx),
	})
	w.WriteHeader(http.StatusNoContent)
}
