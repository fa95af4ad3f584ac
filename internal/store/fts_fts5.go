//go:build sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/campaignjournal/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			id UNINDEXED,
			category UNINDEXED,
			slug UNINDEXED,
			name,
			notes,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(ctx context.Context, tx *sql.Tx, d *models.Document) error {
	_, _ = tx.ExecContext(ctx, `DELETE FROM documents_fts WHERE id = ?`, d.ID)
	_, err := tx.ExecContext(ctx, `INSERT INTO documents_fts (id, category, slug, name, notes) VALUES (?, ?, ?, ?, ?)`,
		d.ID, string(d.Category), d.Slug, d.Name, d.Notes)
	if err != nil {
		return fmt.Errorf("store: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(ctx context.Context, tx *sql.Tx, id string) {
	_, _ = tx.ExecContext(ctx, `DELETE FROM documents_fts WHERE id = ?`, id)
}

// Search performs an FTS5 full-text search and returns matching documents
// with snippets.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	match := matchQuery(query)
	if match == "" {
		return nil, nil
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT category, name, slug,
		       snippet(documents_fts, 4, '<b>', '</b>', '...', 64)
		FROM documents_fts
		WHERE documents_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()
	return scanSearchResults(rows)
}

// matchQuery turns free text into an FTS5 query of quoted terms, so
// quotes and operators typed by users are searched for literally.
func matchQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}
