package api

import (
	"net/http"

	"github.com/starford/campaignjournal/internal/auth"
	"github.com/starford/campaignjournal/internal/requestctx"
)

// AuthHandler serves the /auth routes.
type AuthHandler struct {
	svc *auth.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := h.svc.Register(r.Context(), auth.Registration(req))
	if err != nil {
		writeError(w, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Login handles POST /auth/login. The token is returned in the body and set
// as an HttpOnly cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, u, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, "login", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, LoginResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: u})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := h.svc.Logout(r.Context(), token); err != nil {
			writeError(w, "logout", err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u := requestctx.UserFrom(r.Context())
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
		return
	}
	writeJSON(w, http.StatusOK, u)
}
