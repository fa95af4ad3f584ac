// Package api implements the campaign journal HTTP API using chi.
package api

import (
	"net/http"
	"strings"

	"github.com/starford/campaignjournal/internal/auth"
	"github.com/starford/campaignjournal/internal/requestctx"
)

// SessionCookie is the name of the login cookie.
const SessionCookie = "campaignjournal_session"

// sessionToken returns the token from "Authorization: Bearer <token>" or,
// failing that, the session cookie.
func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// Authenticate resolves the session token, if any, to the current user and
// stores it in the request context. Requests without a valid session pass
// through anonymously.
func Authenticate(authn *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := sessionToken(r); token != "" {
				if u, err := authn.Authenticate(r.Context(), token); err == nil {
					r = r.WithContext(requestctx.WithUser(r.Context(), u))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser rejects anonymous requests with 401 when enabled.
func RequireUser(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if enabled && requestctx.UserFrom(r.Context()) == nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
