// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services; transport concerns (decoding, status mapping, auth) stay here.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pairhub/internal/ratelimit"
	"pairhub/pkg/platform/middleware/admin"
	"pairhub/pkg/platform/middleware/auth"
	"pairhub/pkg/platform/middleware/device"
	"pairhub/pkg/platform/middleware/metadata"
	"pairhub/pkg/platform/middleware/requestid"
	"pairhub/pkg/platform/middleware/requesttime"
)

// Healther reports one dependency's health.
type Healther interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router wires together.
type Deps struct {
	Logger  *slog.Logger
	Tokens  auth.TokenValidator
	Auth    *AuthHandler
	Profile *ProfileHandler
	Rooms   *RoomsHandler
	Records *RecordsHandler
	// SignInLimiter throttles the unauthenticated auth routes; nil disables
	// throttling.
	SignInLimiter *ratelimit.Limiter
	// AdminToken guards the audit listing; empty disables the route.
	AdminToken string
	// Health maps a dependency name to its checker.
	Health map[string]Healther
}

// NewRouter wires all public endpoints.
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(device.Middleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", handleHealth(deps.Health))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(ur chi.Router) {
		if deps.SignInLimiter != nil {
			ur.Use(deps.SignInLimiter.Middleware)
		}
		ur.Post("/auth/signin", deps.Auth.handleSignIn)
		ur.Post("/auth/redeem", deps.Auth.handleRedeem)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireAuth(deps.Tokens, deps.Logger))

		pr.Post("/auth/signout", deps.Auth.handleSignOut)
		pr.Put("/me/display-name", deps.Profile.handleUpdateDisplayName)
		pr.Post("/rooms/join", deps.Rooms.handleJoin)

		pr.Route("/rooms/{code}/{table}/records", func(rr chi.Router) {
			rr.Get("/", deps.Records.handleList)
			rr.Post("/", deps.Records.handleSubmit)
			rr.Patch("/{id}", deps.Records.handleToggle)
			rr.Delete("/{id}", deps.Records.handleRemove)
		})
	})

	if deps.AdminToken != "" && deps.Rooms.events != nil {
		r.Group(func(ar chi.Router) {
			ar.Use(admin.RequireAdminToken(deps.AdminToken, deps.Logger))
			ar.Get("/rooms/{code}/audit", deps.Rooms.handleListAudit)
		})
	}

	return r
}

func handleHealth(checks map[string]Healther) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := make(map[string]string, len(checks)+1)
		body["status"] = "ok"
		for name, check := range checks {
			if err := check.Health(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body[name] = err.Error()
				body["status"] = "degraded"
				continue
			}
			body[name] = "ok"
		}
		writeJSON(w, status, body)
	}
}
