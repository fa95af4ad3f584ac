package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/campaignjournal/internal/apperr"
	"github.com/starford/campaignjournal/internal/docfile"
	"github.com/starford/campaignjournal/internal/models"
)

// Order selects the ordering of List results.
type Order int

const (
	// ByName orders alphabetically.
	ByName Order = iota
	// ByUpdated orders most recently updated first.
	ByUpdated
)

const selectDocumentSQL = `
SELECT d.id, d.category, d.name, d.slug, d.notes, d.checksum,
       COALESCE(d.parent_id, ''), COALESCE(p.slug, ''),
       COALESCE(d.location_id, ''), COALESCE(l.slug, ''),
       d.status, d.class, d.race, d.note_type, d.created_at, d.updated_at
FROM documents d
LEFT JOIN documents p ON p.id = d.parent_id
LEFT JOIN documents l ON l.id = d.location_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(s rowScanner) (*models.Document, error) {
	var d models.Document
	var category, status string
	err := s.Scan(&d.ID, &category, &d.Name, &d.Slug, &d.Notes, &d.Checksum,
		&d.ParentID, &d.ParentSlug, &d.LocationID, &d.LocationSlug,
		&status, &d.Class, &d.Race, &d.NoteType, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Category = models.Category(category)
	d.Status = models.Status(status)
	return &d, nil
}

func (db *DB) queryDocuments(ctx context.Context, query string, args ...any) ([]models.Document, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (db *DB) queryDocument(ctx context.Context, query string, args ...any) (*models.Document, error) {
	d, err := scanDocument(db.conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: find document: %w", err)
	}
	return d, nil
}

// Save inserts d when it has no ID and updates it otherwise. The slug is
// assigned from the name only if empty, timestamps are maintained, reference
// slugs and the checksum are recomputed, and the outgoing links of d are
// replaced with links. A name or slug collision within the category yields
// apperr.ErrAlreadyExists; updating a missing document yields apperr.ErrNotFound.
func (db *DB) Save(ctx context.Context, d *models.Document, links []models.Link) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	d.EnsureSlug()
	if d.ParentSlug, err = refSlug(ctx, tx, d.ParentID); err != nil {
		return err
	}
	if d.LocationSlug, err = refSlug(ctx, tx, d.LocationID); err != nil {
		return err
	}
	if d.Checksum, err = docfile.Checksum(d); err != nil {
		return err
	}

	now := time.Now().UTC()
	if d.ID == "" {
		d.ID = uuid.NewString()
		d.CreatedAt = now
		d.UpdatedAt = now
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (id, category, name, slug, notes, checksum, parent_id, location_id,
				status, class, race, note_type, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?, ?, ?, ?)
		`, d.ID, string(d.Category), d.Name, d.Slug, d.Notes, d.Checksum, d.ParentID, d.LocationID,
			string(d.Status), d.Class, d.Race, d.NoteType, d.CreatedAt, d.UpdatedAt)
	} else {
		d.UpdatedAt = now
		var res sql.Result
		res, err = tx.ExecContext(ctx, `
			UPDATE documents SET
				name        = ?,
				slug        = ?,
				notes       = ?,
				checksum    = ?,
				parent_id   = NULLIF(?, ''),
				location_id = NULLIF(?, ''),
				status      = ?,
				class       = ?,
				race        = ?,
				note_type   = ?,
				updated_at  = ?
			WHERE id = ?
		`, d.Name, d.Slug, d.Notes, d.Checksum, d.ParentID, d.LocationID,
			string(d.Status), d.Class, d.Race, d.NoteType, d.UpdatedAt, d.ID)
		if err == nil {
			if n, _ := res.RowsAffected(); n == 0 {
				return apperr.ErrNotFound
			}
		}
	}
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("store: %s %q: %w", d.Category, d.Name, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("store: save document: %w", err)
	}

	if err := ftsUpsert(ctx, tx, d); err != nil {
		return err
	}
	if err := replaceLinks(ctx, tx, d.ID, links); err != nil {
		return err
	}
	return tx.Commit()
}

// refSlug returns the slug of the referenced document, or "" for no reference.
func refSlug(ctx context.Context, tx *sql.Tx, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	var s string
	err := tx.QueryRowContext(ctx, `SELECT slug FROM documents WHERE id = ?`, id).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("store: referenced document %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("store: resolve reference: %w", err)
	}
	return s, nil
}

func replaceLinks(ctx context.Context, tx *sql.Tx, sourceID string, links []models.Link) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM links WHERE source_id = ?`, sourceID); err != nil {
		return fmt.Errorf("store: clear links: %w", err)
	}
	if len(links) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO links (source_id, target_category, target_slug) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare link insert: %w", err)
	}
	defer stmt.Close()
	for _, l := range links {
		if _, err := stmt.ExecContext(ctx, sourceID, string(l.TargetCategory), l.TargetSlug); err != nil {
			return fmt.Errorf("store: insert link: %w", err)
		}
	}
	return nil
}

// Delete removes a document, its search entry and its outgoing links.
// Documents that referenced it as parent or location are detached.
func (db *DB) Delete(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(ctx, tx, id)
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return tx.Commit()
}

// FindByID returns the document with the given ID.
func (db *DB) FindByID(ctx context.Context, id string) (*models.Document, error) {
	return db.queryDocument(ctx, selectDocumentSQL+`WHERE d.id = ?`, id)
}

// FindBySlug returns the document of category whose slug matches
// case-insensitively.
func (db *DB) FindBySlug(ctx context.Context, category models.Category, slug string) (*models.Document, error) {
	return db.queryDocument(ctx, selectDocumentSQL+`WHERE d.category = ? AND d.slug = ?`, string(category), slug)
}

// Exists reports whether a document of category has slug.
func (db *DB) Exists(ctx context.Context, category models.Category, slug string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM documents WHERE category = ? AND slug = ?`, string(category), slug).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: exists: %w", err)
	}
	return n > 0, nil
}

// List returns every document of category.
func (db *DB) List(ctx context.Context, category models.Category, order Order) ([]models.Document, error) {
	orderBy := `ORDER BY d.name COLLATE NOCASE`
	if order == ByUpdated {
		orderBy = `ORDER BY d.updated_at DESC, d.name COLLATE NOCASE`
	}
	docs, err := db.queryDocuments(ctx, selectDocumentSQL+`WHERE d.category = ? `+orderBy, string(category))
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	return docs, nil
}

// Children returns the locations whose parent is parentID.
func (db *DB) Children(ctx context.Context, parentID string) ([]models.Document, error) {
	docs, err := db.queryDocuments(ctx, selectDocumentSQL+`WHERE d.parent_id = ? ORDER BY d.name COLLATE NOCASE`, parentID)
	if err != nil {
		return nil, fmt.Errorf("store: children: %w", err)
	}
	return docs, nil
}

// CharactersAt returns the characters whose location is locationID.
func (db *DB) CharactersAt(ctx context.Context, locationID string) ([]models.Document, error) {
	docs, err := db.queryDocuments(ctx, selectDocumentSQL+`WHERE d.location_id = ? AND d.category = ? ORDER BY d.name COLLATE NOCASE`,
		locationID, string(models.CategoryCharacter))
	if err != nil {
		return nil, fmt.Errorf("store: characters at: %w", err)
	}
	return docs, nil
}

// Backlinks returns the documents whose notes reference (category, slug).
func (db *DB) Backlinks(ctx context.Context, category models.Category, slug string) ([]models.Summary, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT d.category, d.name, d.slug
		FROM links k
		JOIN documents d ON d.id = k.source_id
		WHERE k.target_category = ? AND k.target_slug = ?
		ORDER BY d.name COLLATE NOCASE
	`, string(category), slug)
	if err != nil {
		return nil, fmt.Errorf("store: backlinks: %w", err)
	}
	defer rows.Close()

	var out []models.Summary
	for rows.Next() {
		var s models.Summary
		var c string
		if err := rows.Scan(&c, &s.Name, &s.Slug); err != nil {
			return nil, err
		}
		s.Category = models.Category(c)
		out = append(out, s)
	}
	return out, rows.Err()
}
