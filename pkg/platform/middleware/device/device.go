// Package device derives a human-readable device description from the
// User-Agent for audit events.
package device

import (
	"fmt"
	"net/http"

	"github.com/mssola/useragent"

	"pairhub/pkg/requestcontext"
)

// Describe renders a User-Agent as "Browser on Platform", falling back to the
// raw string when the parser recognizes neither part.
func Describe(rawUserAgent string) string {
	if rawUserAgent == "" {
		return ""
	}
	ua := useragent.New(rawUserAgent)
	name, _ := ua.Browser()
	os := ua.OSInfo().Name
	if name == "" && os == "" {
		return rawUserAgent
	}
	if os == "" {
		return name
	}
	if name == "" {
		return os
	}
	return fmt.Sprintf("%s on %s", name, os)
}

// Middleware stores the device description in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithDevice(r.Context(), Describe(r.Header.Get("User-Agent")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
