// Package vault mirrors the journal to a directory of Markdown files and
// imports edits made to those files.
package vault

import (
	"context"

	"github.com/starford/campaignjournal/internal/docfile"
	"github.com/starford/campaignjournal/internal/journal"
	"github.com/starford/campaignjournal/internal/models"
	"github.com/starford/campaignjournal/internal/storage"
)

// Journal is the document side of the mirror.
type Journal interface {
	Import(ctx context.Context, d *models.Document, dropMissing bool) error
	RemoveImported(ctx context.Context, c models.Category, slug string) error
	Checksum(ctx context.Context, c models.Category, slug string) (string, error)
	List(ctx context.Context, c models.Category) ([]journal.Item, error)
}

var (
	_ Journal          = (*journal.Service)(nil)
	_ journal.Exporter = (*Mirror)(nil)
)

// Mirror writes documents to the vault as <plural>/<slug>.md.
type Mirror struct {
	files storage.Provider
}

// NewMirror creates a mirror over files.
func NewMirror(files storage.Provider) *Mirror {
	return &Mirror{files: files}
}

// Export writes d unless its file already holds the same bytes.
func (m *Mirror) Export(d *models.Document) error {
	data, err := docfile.Encode(d)
	if err != nil {
		return err
	}
	_, err = m.files.Write(docfile.Path(d.Category, d.Slug), data)
	return err
}

// Remove deletes the file of d.
func (m *Mirror) Remove(d *models.Document) error {
	return m.files.Delete(docfile.Path(d.Category, d.Slug))
}
