//go:build !sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/campaignjournal/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the documents table.
	return nil
}

func ftsUpsert(_ context.Context, _ *sql.Tx, _ *models.Document) error {
	return nil
}

func ftsDelete(_ context.Context, _ *sql.Tx, _ string) {}

// Search performs a LIKE-based search over names and notes (fallback when
// FTS5 is not compiled in).
func (db *DB) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT category, name, slug, substr(notes, 1, 200)
		FROM documents
		WHERE name LIKE ? OR notes LIKE ?
		ORDER BY name COLLATE NOCASE
		LIMIT ?
	`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()
	return scanSearchResults(rows)
}
