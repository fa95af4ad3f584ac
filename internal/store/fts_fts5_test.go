//go:build sqlite_fts5

package store

import (
	"context"
	"strings"
	"testing"

	"github.com/starford/campaignjournal/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents_fts`).Scan(&count); err != nil {
		t.Fatalf("documents_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	save(t, db, &models.Document{Category: models.CategoryNote, Name: "Session 1", Notes: "The party fought a powerful lich in the crypt."})
	save(t, db, &models.Document{Category: models.CategoryFaction, Name: "Gilded Hand", Notes: "Merchants."})

	results, err := db.Search(context.Background(), "powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Slug != "session-1" || results[0].Category != models.CategoryNote {
		t.Errorf("result = %+v", results[0])
	}
	if !strings.Contains(results[0].Snippet, "<b>powerful</b>") {
		t.Errorf("snippet = %q", results[0].Snippet)
	}
}

func TestFTS5_DeleteRemovesFromIndex(t *testing.T) {
	db := testDB(t)
	d := save(t, db, &models.Document{Category: models.CategoryLocation, Name: "Sunken Temple", Notes: "Flooded halls."})
	if err := db.Delete(context.Background(), d.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	results, err := db.Search(context.Background(), "flooded", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results after delete, got %d", len(results))
	}
}

func TestFTS5_QuerySyntaxIsLiteral(t *testing.T) {
	db := testDB(t)
	save(t, db, &models.Document{Category: models.CategoryCharacter, Name: "Old Man", Notes: "Lives in the Old Man's cave."})

	for _, q := range []string{"Man's", `"unterminated`, "cave AND", "NOT", "a*b ( ) :"} {
		if _, err := db.Search(context.Background(), q, 10); err != nil {
			t.Errorf("Search(%q): %v", q, err)
		}
	}

	results, err := db.Search(context.Background(), "Man's", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Slug != "old-man" {
		t.Errorf("results = %+v", results)
	}
}

func TestMatchQuery(t *testing.T) {
	if got := matchQuery(`  old  "man `); got != `"old" """man"` {
		t.Errorf("matchQuery = %q", got)
	}
	if got := matchQuery("   "); got != "" {
		t.Errorf("blank matchQuery = %q", got)
	}
}
