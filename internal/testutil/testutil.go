// Package testutil provides shared test helpers for setting up vaults, databases
// and journal services.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/campaignjournal/internal/journal"
	"github.com/starford/campaignjournal/internal/render"
	"github.com/starford/campaignjournal/internal/storage"
	"github.com/starford/campaignjournal/internal/store"
	"github.com/starford/campaignjournal/internal/wikilink"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "campaignjournal-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory backed by a filesystem provider.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	files, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, files
}

// TestJournal builds a journal service over db with the default link registry
// and render options.
func TestJournal(t *testing.T, db *store.DB, opts ...journal.Option) *journal.Service {
	t.Helper()
	resolver := wikilink.NewResolver(wikilink.DefaultRegistry())
	return journal.NewService(db, resolver, render.New(resolver, render.DefaultOptions()), opts...)
}
