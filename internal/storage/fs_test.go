package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(filepath.Join(t.TempDir(), "vault"))
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestNewFSCreatesRoot(t *testing.T) {
	s := tempVault(t)
	info, err := os.Stat(s.Root())
	if err != nil || !info.IsDir() {
		t.Fatalf("root not created: %v", err)
	}
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("---\nname: Bard\n---\nSings.\n")
	wrote, err := s.Write("characters/bard.md", content)
	if err != nil || !wrote {
		t.Fatalf("Write = %v, %v", wrote, err)
	}
	got, err := s.Read("characters/bard.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}

	wrote, err = s.Write("characters/bard.md", content)
	if err != nil || wrote {
		t.Errorf("rewrite of identical content = %v, %v", wrote, err)
	}

	leftovers, _ := filepath.Glob(filepath.Join(s.Root(), "characters", tempPattern))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := tempVault(t)
	_, _ = s.Write("notes/del.md", []byte("bye"))
	if err := s.Delete("notes/del.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("notes/del.md"); err == nil {
		t.Error("expected error reading deleted file")
	}
	if err := s.Delete("notes/del.md"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestList(t *testing.T) {
	s := tempVault(t)
	_, _ = s.Write("notes/b.md", []byte("b"))
	_, _ = s.Write("notes/a.md", []byte("a"))
	_, _ = s.Write("notes/readme.txt", []byte("not md"))
	_, _ = s.Write("notes/.draft.md", []byte("hidden"))
	_, _ = s.Write("notes/nested/c.md", []byte("nested"))

	items, err := s.List("notes")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 || items[0].Path != "notes/a.md" || items[1].Path != "notes/b.md" {
		t.Fatalf("List(notes) = %+v", items)
	}
	if items[0].Size != 1 || items[0].ModTime.IsZero() {
		t.Errorf("incomplete info %+v", items[0])
	}
}

func TestListMissingDir(t *testing.T) {
	s := tempVault(t)
	items, err := s.List("factions")
	if err != nil || len(items) != 0 {
		t.Errorf("List(missing) = %v, %v", items, err)
	}
}

func TestPathEscape(t *testing.T) {
	s := tempVault(t)
	for _, p := range []string{"../outside.md", "notes/../../x.md", "/etc/passwd"} {
		if _, err := s.Read(p); !errors.Is(err, ErrUnsafePath) {
			t.Errorf("Read(%q) err = %v, want ErrUnsafePath", p, err)
		}
		if _, err := s.Write(p, []byte("x")); !errors.Is(err, ErrUnsafePath) {
			t.Errorf("Write(%q) err = %v, want ErrUnsafePath", p, err)
		}
	}
}
