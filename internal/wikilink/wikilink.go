// Package wikilink recognizes inline [[category:name:label]] references and
// resolves them to document routes.
package wikilink

import (
	"regexp"
	"strings"

	"github.com/starford/campaignjournal/internal/models"
	"github.com/starford/campaignjournal/internal/routepath"
	"github.com/starford/campaignjournal/internal/slug"
)

// field matches a delimiter-padded run of word characters with interior
// spaces. The capture excludes the padding and may be empty.
const field = `[ \t]*((?:[\p{L}\p{N}_]+(?: +[\p{L}\p{N}_]+)*)?)[ \t]*`

var (
	pattern       = regexp.MustCompile(`\[\[` + field + `:` + field + `(?::` + field + `)?\]\]`)
	prefixPattern = regexp.MustCompile(`^` + pattern.String())
)

// Ref is one parsed reference. Category is kept as written.
type Ref struct {
	Category string
	Name     string
	Label    string
}

// Display returns the visible text: the label when present, else the name.
func (r Ref) Display() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Name
}

// Malformed reports whether the reference lacks a category or a name.
func (r Ref) Malformed() bool {
	return r.Category == "" || r.Name == ""
}

func refFromGroups(groups []string) Ref {
	return Ref{Category: groups[1], Name: groups[2], Label: groups[3]}
}

// MatchPrefix parses a reference at the very start of b. It returns the
// reference and the number of bytes it spans.
func MatchPrefix(b []byte) (Ref, int, bool) {
	loc := prefixPattern.FindSubmatchIndex(b)
	if loc == nil {
		return Ref{}, 0, false
	}
	groups := make([]string, 4)
	for i := 1; i < 4; i++ {
		if loc[2*i] >= 0 {
			groups[i] = string(b[loc[2*i]:loc[2*i+1]])
		}
	}
	return refFromGroups(groups), loc[1], true
}

// Registry maps reference categories to document categories. A Registry is
// immutable once built.
type Registry struct {
	targets map[string]models.Category
}

// NewRegistry builds a registry from alias → category pairs. Aliases are
// matched case-insensitively.
func NewRegistry(aliases map[string]models.Category) *Registry {
	targets := make(map[string]models.Category, len(aliases))
	for alias, c := range aliases {
		targets[strings.ToLower(alias)] = c
	}
	return &Registry{targets: targets}
}

// DefaultRegistry recognizes location, character and its npc alias.
func DefaultRegistry() *Registry {
	return NewRegistry(map[string]models.Category{
		"location":  models.CategoryLocation,
		"character": models.CategoryCharacter,
		"npc":       models.CategoryCharacter,
	})
}

// Lookup returns the document category for a reference category.
func (r *Registry) Lookup(category string) (models.Category, bool) {
	c, ok := r.targets[strings.ToLower(category)]
	return c, ok
}

// Action is what a resolved reference turns into.
type Action int

const (
	// Link replaces the reference with a hyperlink.
	Link Action = iota
	// Drop removes the reference from the output.
	Drop
	// PassThrough leaves the reference text untouched.
	PassThrough
)

// Resolution is the outcome of resolving a Ref.
type Resolution struct {
	Action   Action
	Category models.Category
	Href     string
	Text     string
}

// Resolver turns references into hyperlinks. Resolution is purely
// syntactic: no document lookup happens, so a reference to a missing
// document still yields a (dead) link.
type Resolver struct {
	registry *Registry
}

// NewResolver returns a resolver over registry.
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Registry returns the resolver's category registry.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Resolve decides how ref is rendered.
func (r *Resolver) Resolve(ref Ref) Resolution {
	if ref.Malformed() {
		return Resolution{Action: Drop}
	}
	c, ok := r.registry.Lookup(ref.Category)
	if !ok {
		return Resolution{Action: PassThrough}
	}
	return Resolution{
		Action:   Link,
		Category: c,
		Href:     routepath.Detail(c, slug.Make(ref.Name)),
		Text:     ref.Display(),
	}
}

// Target is a document a piece of text refers to.
type Target struct {
	Category models.Category
	Slug     string
}

// Extract returns the distinct targets of every resolvable reference in
// text, in order of first appearance.
func (r *Resolver) Extract(text string) []Target {
	matches := pattern.FindAllStringSubmatch(text, -1)
	seen := make(map[Target]struct{}, len(matches))
	var out []Target
	for _, m := range matches {
		res := r.Resolve(refFromGroups(m))
		if res.Action != Link {
			continue
		}
		t := Target{Category: res.Category, Slug: slug.Make(m[2])}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
