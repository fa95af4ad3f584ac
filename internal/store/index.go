package store

import (
	"context"
	"time"

	"github.com/starford/campaignjournal/internal/models"
)

// DocumentStore is the persistence contract the journal service relies on.
// Consumers should depend on this interface rather than *DB.
type DocumentStore interface {
	Save(ctx context.Context, d *models.Document, links []models.Link) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.Document, error)
	FindBySlug(ctx context.Context, category models.Category, slug string) (*models.Document, error)
	Exists(ctx context.Context, category models.Category, slug string) (bool, error)
	List(ctx context.Context, category models.Category, order Order) ([]models.Document, error)
	Children(ctx context.Context, parentID string) ([]models.Document, error)
	CharactersAt(ctx context.Context, locationID string) ([]models.Document, error)
	Backlinks(ctx context.Context, category models.Category, slug string) ([]models.Summary, error)
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// UserStore persists accounts and login sessions.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateSession(ctx context.Context, s *models.Session) error
	SessionUser(ctx context.Context, token string, now time.Time) (*models.User, error)
	DeleteSession(ctx context.Context, token string) error
	PurgeSessions(ctx context.Context, now time.Time) (int64, error)
}

// Verify *DB satisfies both interfaces at compile time.
var (
	_ DocumentStore = (*DB)(nil)
	_ UserStore     = (*DB)(nil)
)

// SearchResult is a single full-text search hit.
type SearchResult struct {
	Category models.Category `json:"category"`
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	Snippet  string          `json:"snippet"`
}

func scanSearchResults(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]SearchResult, error) {
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var c string
		if err := rows.Scan(&c, &r.Name, &r.Slug, &r.Snippet); err != nil {
			return nil, err
		}
		r.Category = models.Category(c)
		out = append(out, r)
	}
	return out, rows.Err()
}
