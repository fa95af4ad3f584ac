package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	tempPattern = ".campaignjournal-tmp-*"
	fileMode    = 0o644
	dirMode     = 0o755
)

// ErrUnsafePath is returned for paths that would leave the vault root.
var ErrUnsafePath = errors.New("storage: path escapes vault root")

// FS implements Provider backed by the local file system.
type FS struct {
	root string
}

// NewFS creates an FS rooted at root, creating the directory if needed.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, dirMode); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute vault directory.
func (f *FS) Root() string {
	return f.root
}

// abs maps a vault-relative path to the file system.
func (f *FS) abs(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, rel)
	}
	return filepath.Join(f.root, local), nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// List returns the visible .md files directly inside dir.
func (f *FS) List(dir string) ([]FileInfo, error) {
	base, err := f.abs(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(base)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}

	var out []FileInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || hidden(name) || !strings.HasSuffix(name, ".md") {
			continue
		}
		info, err := e.Info()
		if errors.Is(err, fs.ErrNotExist) {
			// Removed between ReadDir and Info.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("storage: stat %s: %w", name, err)
		}
		rel := name
		if dir != "" {
			rel = strings.TrimSuffix(dir, "/") + "/" + name
		}
		out = append(out, FileInfo{Path: rel, Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Read returns the raw bytes of a vault file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write replaces path with content through a temp file in the same
// directory, so watchers and readers never see a partial document.
func (f *FS) Write(path string, content []byte) (bool, error) {
	abs, err := f.abs(path)
	if err != nil {
		return false, err
	}
	if existing, err := os.ReadFile(abs); err == nil && bytes.Equal(existing, content) {
		return false, nil
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return false, fmt.Errorf("storage: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return false, fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return false, fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		return false, fmt.Errorf("storage: chmod temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return false, fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return false, fmt.Errorf("storage: rename: %w", err)
	}
	committed = true
	return true, nil
}

// Delete removes a file from the vault.
func (f *FS) Delete(path string) error {
	abs, err := f.abs(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}
