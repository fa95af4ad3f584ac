package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/campaignjournal/internal/docfile"
	"github.com/starford/campaignjournal/internal/journal"
	"github.com/starford/campaignjournal/internal/models"
	"github.com/starford/campaignjournal/internal/storage"
)

// Sync brings the journal and the vault in line at startup:
//   - new or changed files are imported
//   - documents without a file are exported
//
// Documents are never deleted by Sync; a file removed while the server was
// down is recreated from the journal.
func Sync(ctx context.Context, j Journal, files storage.Provider, mirror *Mirror, logger *slog.Logger) error {
	onDisk, err := importAll(ctx, j, files, logger)
	if err != nil {
		return err
	}

	for _, c := range models.Categories {
		items, err := j.List(ctx, c)
		if err != nil {
			return err
		}
		for i := range items {
			d := &items[i].Document
			p := docfile.Path(c, d.Slug)
			if _, ok := onDisk[p]; ok {
				continue
			}
			if err := mirror.Export(d); err != nil {
				logger.Warn("sync: export failed", slog.String("path", p), slog.String("error", err.Error()))
				continue
			}
			logger.Debug("sync: exported", slog.String("path", p))
		}
	}
	return nil
}

// importAll imports every document file that differs from the journal and
// returns the set of document paths found. Files whose references point at
// documents not imported yet are retried until no progress is made; the
// remaining ones are imported with those references cleared.
func importAll(ctx context.Context, j Journal, files storage.Provider, logger *slog.Logger) (map[string]struct{}, error) {
	onDisk := make(map[string]struct{})
	var pending []string
	for _, c := range models.Categories {
		infos, err := files.List(c.Plural())
		if err != nil {
			return nil, err
		}
		for _, fi := range infos {
			onDisk[fi.Path] = struct{}{}
			pending = append(pending, fi.Path)
		}
	}

	dropMissing := false
	for len(pending) > 0 {
		var retry []string
		for _, p := range pending {
			changed, err := importFile(ctx, j, files, p, dropMissing)
			switch {
			case errors.Is(err, journal.ErrMissingReference):
				retry = append(retry, p)
			case err != nil:
				logger.Warn("sync: import failed", slog.String("path", p), slog.String("error", err.Error()))
			case changed:
				logger.Debug("sync: imported", slog.String("path", p))
			}
		}
		if len(retry) == len(pending) {
			dropMissing = true
		}
		pending = retry
	}
	return onDisk, nil
}

// importFile imports the document file at rel when its content differs from
// the stored document.
func importFile(ctx context.Context, j Journal, files storage.Provider, rel string, dropMissing bool) (bool, error) {
	c, s, ok := docfile.ParsePath(rel)
	if !ok {
		return false, nil
	}
	data, err := files.Read(rel)
	if err != nil {
		return false, err
	}
	d, err := docfile.Decode(data, c)
	if err != nil {
		return false, err
	}
	if d.Category != c {
		return false, fmt.Errorf("vault: %s holds a %s", rel, d.Category)
	}
	// The file name is authoritative for the slug.
	d.Slug = s
	d.ApplyDefaults()

	sum, err := docfile.Checksum(d)
	if err != nil {
		return false, err
	}
	current, err := j.Checksum(ctx, c, s)
	if err != nil {
		return false, err
	}
	if current == sum {
		return false, nil
	}
	if err := j.Import(ctx, d, dropMissing); err != nil {
		return false, err
	}
	return true, nil
}
