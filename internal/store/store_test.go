package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/campaignjournal/internal/apperr"
	"github.com/starford/campaignjournal/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "campaignjournal-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func save(t *testing.T, db *DB, d *models.Document, links ...models.Link) *models.Document {
	t.Helper()
	d.ApplyDefaults()
	if err := db.Save(context.Background(), d, links); err != nil {
		t.Fatalf("Save %q: %v", d.Name, err)
	}
	return d
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"documents", "links", "users", "sessions"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestSaveAssignsIDSlugAndChecksum(t *testing.T) {
	db := testDB(t)
	d := save(t, db, &models.Document{Category: models.CategoryLocation, Name: "Old Man's Cave"})

	if d.ID == "" {
		t.Error("expected ID to be assigned")
	}
	if d.Slug != "old-man%27s-cave" {
		t.Errorf("slug = %q", d.Slug)
	}
	if d.Checksum == "" {
		t.Error("expected checksum")
	}
	if d.CreatedAt.IsZero() || !d.CreatedAt.Equal(d.UpdatedAt) {
		t.Errorf("timestamps = %v / %v", d.CreatedAt, d.UpdatedAt)
	}

	got, err := db.FindBySlug(context.Background(), models.CategoryLocation, "OLD-MAN%27S-CAVE")
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if got.ID != d.ID || got.Name != d.Name {
		t.Errorf("got %+v", got)
	}
}

func TestSaveKeepsSlugOnRename(t *testing.T) {
	db := testDB(t)
	d := save(t, db, &models.Document{Category: models.CategoryFaction, Name: "Red Hand"})
	created := d.UpdatedAt

	time.Sleep(2 * time.Millisecond)
	d.Name = "Crimson Hand"
	save(t, db, d)

	if d.Slug != "red-hand" {
		t.Errorf("slug changed to %q", d.Slug)
	}
	if !d.UpdatedAt.After(created) {
		t.Errorf("updated_at not bumped: %v <= %v", d.UpdatedAt, created)
	}
}

func TestSaveDuplicateName(t *testing.T) {
	db := testDB(t)
	save(t, db, &models.Document{Category: models.CategoryFaction, Name: "Guild"})

	err := db.Save(context.Background(), &models.Document{Category: models.CategoryFaction, Name: "Guild"}, nil)
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}

	// Same name in another category is fine.
	save(t, db, &models.Document{Category: models.CategoryNote, Name: "Guild"})
}

func TestSaveUpdateMissing(t *testing.T) {
	db := testDB(t)
	err := db.Save(context.Background(), &models.Document{ID: "nope", Category: models.CategoryNote, Name: "x"}, nil)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReferencesResolveSlugs(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	world := save(t, db, &models.Document{Category: models.CategoryLocation, Name: "World"})
	town := save(t, db, &models.Document{Category: models.CategoryLocation, Name: "Town", ParentID: world.ID})
	hero := save(t, db, &models.Document{Category: models.CategoryCharacter, Name: "Hero", LocationID: town.ID})

	if town.ParentSlug != "world" || hero.LocationSlug != "town" {
		t.Errorf("reference slugs = %q, %q", town.ParentSlug, hero.LocationSlug)
	}

	children, err := db.Children(ctx, world.ID)
	if err != nil || len(children) != 1 || children[0].ID != town.ID {
		t.Fatalf("Children = %v, %v", children, err)
	}
	chars, err := db.CharactersAt(ctx, town.ID)
	if err != nil || len(chars) != 1 || chars[0].Name != "Hero" {
		t.Fatalf("CharactersAt = %v, %v", chars, err)
	}

	if err := db.Delete(ctx, town.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := db.FindByID(ctx, hero.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.LocationID != "" || got.LocationSlug != "" {
		t.Errorf("character still located: %+v", got)
	}
}

func TestSaveUnknownReference(t *testing.T) {
	db := testDB(t)
	err := db.Save(context.Background(), &models.Document{Category: models.CategoryLocation, Name: "Lost", ParentID: "missing"}, nil)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListOrdering(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	save(t, db, &models.Document{Category: models.CategoryNote, Name: "beta"})
	time.Sleep(2 * time.Millisecond)
	save(t, db, &models.Document{Category: models.CategoryNote, Name: "Alpha"})

	byName, err := db.List(ctx, models.CategoryNote, ByName)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(byName) != 2 || byName[0].Name != "Alpha" {
		t.Errorf("by name = %v", byName)
	}

	byUpdated, err := db.List(ctx, models.CategoryNote, ByUpdated)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if byUpdated[0].Name != "Alpha" || byUpdated[1].Name != "beta" {
		t.Errorf("by updated = %v", byUpdated)
	}
}

func TestExists(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	save(t, db, &models.Document{Category: models.CategoryCharacter, Name: "Ana"})

	ok, err := db.Exists(ctx, models.CategoryCharacter, "ana")
	if err != nil || !ok {
		t.Errorf("Exists(ana) = %v, %v", ok, err)
	}
	ok, _ = db.Exists(ctx, models.CategoryLocation, "ana")
	if ok {
		t.Error("Exists must be scoped to category")
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	target := models.Link{TargetCategory: models.CategoryLocation, TargetSlug: "keep"}
	save(t, db, &models.Document{Category: models.CategoryNote, Name: "Session 1"}, target)
	a := save(t, db, &models.Document{Category: models.CategoryCharacter, Name: "Ana"}, target, target)

	bl, err := db.Backlinks(ctx, models.CategoryLocation, "keep")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 {
		t.Fatalf("expected 2 backlinks, got %d", len(bl))
	}

	save(t, db, a)
	bl, _ = db.Backlinks(ctx, models.CategoryLocation, "keep")
	if len(bl) != 1 || bl[0].Name != "Session 1" {
		t.Errorf("links not replaced on save: %v", bl)
	}
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	d := save(t, db, &models.Document{Category: models.CategoryNote, Name: "gone"},
		models.Link{TargetCategory: models.CategoryCharacter, TargetSlug: "x"})

	if err := db.Delete(ctx, d.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.FindByID(ctx, d.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("FindByID after delete: %v", err)
	}
	bl, _ := db.Backlinks(ctx, models.CategoryCharacter, "x")
	if len(bl) != 0 {
		t.Errorf("links survived delete: %v", bl)
	}
	if err := db.Delete(ctx, d.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	save(t, db, &models.Document{Category: models.CategoryNote, Name: "Dragons", Notes: "The wyrm sleeps beneath the hill."})
	save(t, db, &models.Document{Category: models.CategoryFaction, Name: "Miners"})

	res, err := db.Search(context.Background(), "wyrm", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 1 || res[0].Slug != "dragons" || res[0].Category != models.CategoryNote {
		t.Errorf("Search = %v", res)
	}
}

func TestUsersAndSessions(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	u := &models.User{ID: "u1", Username: "Gandalf", PasswordHash: "h", CreatedAt: now}
	if err := db.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	dup := &models.User{ID: "u2", Username: "gandalf", PasswordHash: "h", CreatedAt: now}
	if err := db.CreateUser(ctx, dup); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("duplicate user: %v", err)
	}

	got, err := db.UserByUsername(ctx, "GANDALF")
	if err != nil || got.ID != "u1" {
		t.Fatalf("UserByUsername = %v, %v", got, err)
	}

	live := &models.Session{Token: "live", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	dead := &models.Session{Token: "dead", UserID: "u1", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	for _, s := range []*models.Session{live, dead} {
		if err := db.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	if u, err := db.SessionUser(ctx, "live", now); err != nil || u.Username != "Gandalf" {
		t.Errorf("SessionUser(live) = %v, %v", u, err)
	}
	if _, err := db.SessionUser(ctx, "dead", now); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("SessionUser(dead) err = %v", err)
	}

	n, err := db.PurgeSessions(ctx, now)
	if err != nil || n != 1 {
		t.Errorf("PurgeSessions = %d, %v", n, err)
	}
	if err := db.DeleteSession(ctx, "live"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := db.SessionUser(ctx, "live", now); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("SessionUser after logout err = %v", err)
	}
}
