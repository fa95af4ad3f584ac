// Package storage is the file-system abstraction behind the vault mirror.
package storage

import "time"

// FileInfo describes a Markdown file in the vault.
type FileInfo struct {
	Path    string // slash-separated, relative to the vault root
	Size    int64
	ModTime time.Time
}

// Provider is the interface for vault file operations. Paths are relative
// to the vault root and use forward slashes.
type Provider interface {
	// Root returns the absolute vault directory.
	Root() string
	// List returns the visible .md files directly inside dir, sorted by name.
	// A missing dir yields no files.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path unless it already holds
	// content, and reports whether it wrote.
	Write(path string, content []byte) (bool, error)
	// Delete removes the file at path. A missing file is not an error.
	Delete(path string) error
}
