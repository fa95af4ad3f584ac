// Package models defines the domain types for the campaign journal.
package models

import (
	"strings"
	"time"

	"github.com/starford/campaignjournal/internal/slug"
)

// Category discriminates the kinds of document kept in the journal.
type Category string

const (
	CategoryCharacter Category = "character"
	CategoryLocation  Category = "location"
	CategoryFaction   Category = "faction"
	CategoryNote      Category = "note"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryCharacter, CategoryLocation, CategoryFaction, CategoryNote}

// ParseCategory returns the category named by s (case-insensitive).
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategoryCharacter, CategoryLocation, CategoryFaction, CategoryNote:
		return c, true
	}
	return "", false
}

// Plural returns the collection name used in routes and vault directories.
func (c Category) Plural() string {
	return string(c) + "s"
}

// Status is a character's liveness.
type Status string

const (
	StatusAlive Status = "alive"
	StatusDead  Status = "dead"
)

// NoteTypeGeneral is the only note type currently defined.
const NoteTypeGeneral = "General"

// MaxNameLength bounds document names.
const MaxNameLength = 64

// Document is a single journal entry. Fields below the common block only
// apply to the category named in their comment.
type Document struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Notes     string    `json:"notes"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// location
	ParentID   string `json:"parent_id,omitempty"`
	ParentSlug string `json:"parent,omitempty"`

	// character
	LocationID   string `json:"location_id,omitempty"`
	LocationSlug string `json:"location,omitempty"`
	Status       Status `json:"status,omitempty"`
	Class        string `json:"class,omitempty"`
	Race         string `json:"race,omitempty"`

	// note
	NoteType string `json:"note_type,omitempty"`
}

// EnsureSlug assigns the slug derived from Name when none is set yet.
// An existing slug is never overwritten.
func (d *Document) EnsureSlug() {
	if d.Slug == "" {
		d.Slug = slug.Make(d.Name)
	}
}

// ApplyDefaults fills category-specific defaults.
func (d *Document) ApplyDefaults() {
	switch d.Category {
	case CategoryCharacter:
		if d.Status == "" {
			d.Status = StatusAlive
		}
	case CategoryNote:
		if d.NoteType == "" {
			d.NoteType = NoteTypeGeneral
		}
	}
}

// Summary is a lightweight reference to a document.
type Summary struct {
	Category Category `json:"category"`
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
}

// Summarize returns the summary of d.
func (d *Document) Summarize() Summary {
	return Summary{Category: d.Category, Name: d.Name, Slug: d.Slug}
}

// Link is a wiki-link edge from one document to a (category, slug) target.
// The target may not exist.
type Link struct {
	SourceID       string   `json:"source_id"`
	TargetCategory Category `json:"target_category"`
	TargetSlug     string   `json:"target_slug"`
}

// User is a registered journal author.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is an authenticated login.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
