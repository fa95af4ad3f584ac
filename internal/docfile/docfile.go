// Package docfile encodes journal documents as Markdown files with YAML
// frontmatter. The encoding is canonical: equal documents always produce
// identical bytes, so its checksum identifies a document revision.
package docfile

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/campaignjournal/internal/checksum"
	"github.com/starford/campaignjournal/internal/models"
)

const (
	openDelim  = "---\n"
	closeDelim = "\n---\n"
	ext        = ".md"
)

// ErrNoFrontmatter is returned when a file does not start with a YAML block.
var ErrNoFrontmatter = errors.New("docfile: missing frontmatter")

// frontmatter lists the persisted fields in output order. References to
// other documents are written by slug.
type frontmatter struct {
	Category models.Category `yaml:"category"`
	Name     string          `yaml:"name"`
	Slug     string          `yaml:"slug,omitempty"`
	Parent   string          `yaml:"parent,omitempty"`
	Location string          `yaml:"location,omitempty"`
	Status   models.Status   `yaml:"status,omitempty"`
	Class    string          `yaml:"class,omitempty"`
	Race     string          `yaml:"race,omitempty"`
	NoteType string          `yaml:"note_type,omitempty"`
}

// Encode renders d as frontmatter followed by its notes verbatim.
// Timestamps and IDs are store-local and are not written.
func Encode(d *models.Document) ([]byte, error) {
	fm := frontmatter{
		Category: d.Category,
		Name:     d.Name,
		Slug:     d.Slug,
	}
	switch d.Category {
	case models.CategoryLocation:
		fm.Parent = d.ParentSlug
	case models.CategoryCharacter:
		fm.Location = d.LocationSlug
		fm.Status = d.Status
		fm.Class = d.Class
		fm.Race = d.Race
	case models.CategoryNote:
		fm.NoteType = d.NoteType
	}

	y, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("docfile: encode frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(openDelim) + len(y) + len(openDelim) + len(d.Notes))
	buf.WriteString(openDelim)
	buf.Write(y)
	buf.WriteString(openDelim)
	buf.WriteString(d.Notes)
	return buf.Bytes(), nil
}

// Checksum returns the checksum of d's canonical encoding.
func Checksum(d *models.Document) (string, error) {
	data, err := Encode(d)
	if err != nil {
		return "", err
	}
	return checksum.Sum(data), nil
}

// Decode parses a document file. fallback supplies the category when the
// frontmatter omits it. The returned document carries reference slugs but
// no IDs.
func Decode(data []byte, fallback models.Category) (*models.Document, error) {
	y, body, err := split(data)
	if err != nil {
		return nil, err
	}

	var fm frontmatter
	if err := yaml.Unmarshal(y, &fm); err != nil {
		return nil, fmt.Errorf("docfile: decode frontmatter: %w", err)
	}

	category := fallback
	if fm.Category != "" {
		c, ok := models.ParseCategory(string(fm.Category))
		if !ok {
			return nil, fmt.Errorf("docfile: unknown category %q", fm.Category)
		}
		category = c
	}
	if category == "" {
		return nil, errors.New("docfile: category is required")
	}
	if strings.TrimSpace(fm.Name) == "" {
		return nil, errors.New("docfile: name is required")
	}

	d := &models.Document{
		Category: category,
		Name:     fm.Name,
		Slug:     fm.Slug,
		Notes:    string(body),
	}
	switch category {
	case models.CategoryLocation:
		d.ParentSlug = fm.Parent
	case models.CategoryCharacter:
		d.LocationSlug = fm.Location
		d.Status = fm.Status
		d.Class = fm.Class
		d.Race = fm.Race
	case models.CategoryNote:
		d.NoteType = fm.NoteType
	}
	return d, nil
}

// split separates the YAML block from the body. The body is returned
// byte-for-byte.
func split(data []byte) ([]byte, []byte, error) {
	rest, ok := bytes.CutPrefix(data, []byte(openDelim))
	if !ok {
		return nil, nil, ErrNoFrontmatter
	}
	if after, ok := bytes.CutPrefix(rest, []byte(openDelim)); ok {
		return nil, after, nil
	}
	idx := bytes.Index(rest, []byte(closeDelim))
	if idx < 0 {
		if bytes.HasSuffix(rest, []byte("\n---")) {
			return rest[:len(rest)-3], nil, nil
		}
		return nil, nil, ErrNoFrontmatter
	}
	return rest[:idx+1], rest[idx+len(closeDelim):], nil
}

// Path returns the vault-relative file path of a document.
func Path(category models.Category, s string) string {
	return category.Plural() + "/" + s + ext
}

// ParsePath extracts category and slug from a vault-relative path produced
// by Path. Separators may be OS-specific.
func ParsePath(rel string) (models.Category, string, bool) {
	rel = strings.ReplaceAll(rel, "\\", "/")
	dir, file := path.Split(rel)
	if !strings.HasSuffix(file, ext) || file == ext {
		return "", "", false
	}
	dir = strings.TrimSuffix(dir, "/")
	for _, c := range models.Categories {
		if dir == c.Plural() {
			return c, strings.TrimSuffix(file, ext), true
		}
	}
	return "", "", false
}
