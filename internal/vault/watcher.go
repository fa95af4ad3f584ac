package vault

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/campaignjournal/internal/apperr"
	"github.com/starford/campaignjournal/internal/docfile"
	"github.com/starford/campaignjournal/internal/storage"
)

const reconcileDelay = 200 * time.Millisecond

// Watch imports vault edits until ctx is cancelled. Written files are
// imported; removed files delete their document. New directories are added
// to the watch list, and renames trigger a debounced reconciliation pass.
func Watch(ctx context.Context, j Journal, files storage.Provider, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := files.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	remove := func(rel string) {
		c, s, ok := docfile.ParsePath(rel)
		if !ok {
			return
		}
		err := j.RemoveImported(ctx, c, s)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
		case err != nil:
			logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		default:
			logger.Debug("watcher: deleted", slog.String("path", rel))
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if _, err := importAll(ctx, j, files, logger); err != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// Files may land before the directory is watched.
					scheduleReconcile()
					continue
				}
			}

			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				changed, err := importFile(ctx, j, files, rel, false)
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				if err != nil {
					logger.Warn("watcher: import failed", slog.String("path", rel), slog.String("error", err.Error()))
					scheduleReconcile()
					continue
				}
				if changed {
					logger.Debug("watcher: imported", slog.String("path", rel))
				}

			case ev.Op&fsnotify.Remove != 0:
				remove(rel)

			case ev.Op&fsnotify.Rename != 0:
				// Rename fires on the old path; the new path arrives as a
				// Create when it stays inside a watched directory.
				remove(rel)
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its non-hidden subdirectories.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
