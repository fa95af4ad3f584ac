package api

import (
	"time"

	"github.com/starford/campaignjournal/internal/journal"
	"github.com/starford/campaignjournal/internal/models"
	"github.com/starford/campaignjournal/internal/store"
)

// DocumentRequest is the body of create and update requests.
type DocumentRequest = journal.Input

// DocumentDetail is the full document response (aliased from the domain layer).
type DocumentDetail = journal.Detail

// ListResponse wraps a category listing.
type ListResponse struct {
	Documents []journal.Item `json:"documents"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []store.SearchResult `json:"results"`
}

// RenderRequest is the body of a render preview.
type RenderRequest struct {
	Text string `json:"text"`
}

// RenderResponse carries rendered HTML.
type RenderResponse struct {
	HTML string `json:"html"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse returns the session token and its owner.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}
