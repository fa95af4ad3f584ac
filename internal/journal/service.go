// Package journal implements the document operations of the campaign
// journal on top of the store, the wiki-link resolver and the renderer.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/campaignjournal/internal/apperr"
	"github.com/starford/campaignjournal/internal/checksum"
	"github.com/starford/campaignjournal/internal/models"
	"github.com/starford/campaignjournal/internal/render"
	"github.com/starford/campaignjournal/internal/slug"
	"github.com/starford/campaignjournal/internal/store"
	"github.com/starford/campaignjournal/internal/wikilink"
)

// Event kinds published to the Notifier.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// ErrMissingReference is returned by Import when a referenced parent or
// location does not exist yet.
var ErrMissingReference = errors.New("journal: missing reference")

// Exporter mirrors documents to an external copy such as the vault directory.
type Exporter interface {
	Export(d *models.Document) error
	Remove(d *models.Document) error
}

// Notifier receives document change events.
type Notifier interface {
	PublishDocumentEvent(kind string, category models.Category, slug string)
}

// Item is a document in a list response. NotesHTML is only filled for notes.
type Item struct {
	models.Document
	NotesHTML string `json:"notes_html,omitempty"`
}

// Detail is the full representation of a document.
type Detail struct {
	models.Document
	NotesHTML  string           `json:"notes_html"`
	Backlinks  []models.Summary `json:"backlinks"`
	Children   []models.Summary `json:"children,omitempty"`
	Characters []models.Summary `json:"characters,omitempty"`
}

// TreeNode is a location with its descendants.
type TreeNode struct {
	models.Summary
	Children []*TreeNode `json:"children"`
}

// Service coordinates the store, renderer and optional mirrors.
type Service struct {
	docs     store.DocumentStore
	resolver *wikilink.Resolver
	renderer *render.Renderer
	exporter Exporter
	notifier Notifier
}

// Option configures a Service.
type Option func(*Service)

// WithExporter mirrors every write through e.
func WithExporter(e Exporter) Option {
	return func(s *Service) { s.exporter = e }
}

// WithNotifier publishes change events to n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService creates a journal service.
func NewService(docs store.DocumentStore, resolver *wikilink.Resolver, renderer *render.Renderer, opts ...Option) *Service {
	s := &Service{docs: docs, resolver: resolver, renderer: renderer}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Render converts journal markdown to HTML.
func (s *Service) Render(text string) (string, error) {
	return s.renderer.Render(text)
}

// Resolver returns the wiki-link resolver in use.
func (s *Service) Resolver() *wikilink.Resolver {
	return s.resolver
}

// Create stores a new document of category c.
func (s *Service) Create(ctx context.Context, c models.Category, in Input) (*Detail, error) {
	in.normalize()
	if err := in.validate(c); err != nil {
		return nil, err
	}
	d := &models.Document{Category: c}
	if err := s.apply(ctx, d, in); err != nil {
		return nil, err
	}
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	s.export(d)
	s.notify(EventCreated, d)
	return s.detail(ctx, d)
}

// Update replaces the editable fields of the document identified by
// (c, slug). A non-empty ifMatch must match the current checksum.
func (s *Service) Update(ctx context.Context, c models.Category, docSlug string, in Input, ifMatch string) (*Detail, error) {
	in.normalize()
	if err := in.validate(c); err != nil {
		return nil, err
	}
	d, err := s.docs.FindBySlug(ctx, c, slug.Canonical(docSlug))
	if err != nil {
		return nil, err
	}
	if !checksum.Matches(ifMatch, d.Checksum) {
		return nil, apperr.ErrConflict
	}
	if err := s.apply(ctx, d, in); err != nil {
		return nil, err
	}
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	s.export(d)
	s.notify(EventUpdated, d)
	return s.detail(ctx, d)
}

// Delete removes the document identified by (c, slug). Deleting a location
// detaches its child locations and the characters located there.
func (s *Service) Delete(ctx context.Context, c models.Category, docSlug string) error {
	d, err := s.docs.FindBySlug(ctx, c, slug.Canonical(docSlug))
	if err != nil {
		return err
	}
	return s.remove(ctx, d, true)
}

// Get returns the detail view of the document identified by (c, slug).
func (s *Service) Get(ctx context.Context, c models.Category, docSlug string) (*Detail, error) {
	d, err := s.docs.FindBySlug(ctx, c, slug.Canonical(docSlug))
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, d)
}

// Document returns the stored document identified by (c, slug).
func (s *Service) Document(ctx context.Context, c models.Category, docSlug string) (*models.Document, error) {
	return s.docs.FindBySlug(ctx, c, slug.Canonical(docSlug))
}

// List returns every document of category c. Notes come most recently
// updated first with their rendered text; other categories are sorted by name.
func (s *Service) List(ctx context.Context, c models.Category) ([]Item, error) {
	order := store.ByName
	if c == models.CategoryNote {
		order = store.ByUpdated
	}
	docs, err := s.docs.List(ctx, c, order)
	if err != nil {
		return nil, err
	}
	items := make([]Item, len(docs))
	for i, d := range docs {
		items[i] = Item{Document: d}
		if c == models.CategoryNote {
			if items[i].NotesHTML, err = s.renderer.Render(d.Notes); err != nil {
				return nil, fmt.Errorf("journal: render %s: %w", d.Slug, err)
			}
		}
	}
	return items, nil
}

// Backlinks returns the documents whose notes reference (c, slug).
func (s *Service) Backlinks(ctx context.Context, c models.Category, docSlug string) ([]models.Summary, error) {
	bl, err := s.docs.Backlinks(ctx, c, slug.Canonical(docSlug))
	if err != nil {
		return nil, err
	}
	return nonNil(bl), nil
}

// Search runs a full-text search over names and notes.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]store.SearchResult, error) {
	res, err := s.docs.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = []store.SearchResult{}
	}
	return res, nil
}

// LocationTree returns the location identified by slug with all its
// descendants. Each location appears at most once.
func (s *Service) LocationTree(ctx context.Context, locSlug string) (*TreeNode, error) {
	root, err := s.docs.FindBySlug(ctx, models.CategoryLocation, slug.Canonical(locSlug))
	if err != nil {
		return nil, err
	}
	top := &TreeNode{Summary: root.Summarize(), Children: []*TreeNode{}}
	visited := map[string]bool{root.ID: true}
	type pending struct {
		id   string
		node *TreeNode
	}
	queue := []pending{{root.ID, top}}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		children, err := s.docs.Children(ctx, p.id)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			n := &TreeNode{Summary: child.Summarize(), Children: []*TreeNode{}}
			p.node.Children = append(p.node.Children, n)
			queue = append(queue, pending{child.ID, n})
		}
	}
	return top, nil
}

// Import stores a document read from an external mirror without exporting it
// back. References that cannot be resolved yield ErrMissingReference unless
// dropMissing is set, in which case they are cleared.
func (s *Service) Import(ctx context.Context, incoming *models.Document, dropMissing bool) error {
	in := InputFrom(incoming)
	in.normalize()
	if err := in.validate(incoming.Category); err != nil {
		return err
	}

	kind := EventUpdated
	d, err := s.docs.FindBySlug(ctx, incoming.Category, incoming.Slug)
	if errors.Is(err, apperr.ErrNotFound) {
		d = &models.Document{Category: incoming.Category, Slug: incoming.Slug}
		kind = EventCreated
	} else if err != nil {
		return err
	}

	err = s.apply(ctx, d, in)
	var ve validation.Errors
	if errors.As(err, &ve) {
		if !dropMissing {
			return fmt.Errorf("%w: %v", ErrMissingReference, ve)
		}
		in.Parent, in.Location = "", ""
		err = s.apply(ctx, d, in)
	}
	if err != nil {
		return err
	}
	if err := s.save(ctx, d); err != nil {
		return err
	}
	s.notify(kind, d)
	return nil
}

// RemoveImported deletes a document whose mirror copy disappeared.
func (s *Service) RemoveImported(ctx context.Context, c models.Category, docSlug string) error {
	d, err := s.docs.FindBySlug(ctx, c, docSlug)
	if err != nil {
		return err
	}
	return s.remove(ctx, d, false)
}

// Checksum returns the stored checksum of (c, slug), or "" when absent.
func (s *Service) Checksum(ctx context.Context, c models.Category, docSlug string) (string, error) {
	d, err := s.docs.FindBySlug(ctx, c, docSlug)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return d.Checksum, nil
}

// apply copies in onto d and resolves references to stored IDs.
func (s *Service) apply(ctx context.Context, d *models.Document, in Input) error {
	d.Name = in.Name
	d.Notes = in.Notes
	switch d.Category {
	case models.CategoryLocation:
		id, err := s.refID(ctx, models.CategoryLocation, in.Parent, "parent")
		if err != nil {
			return err
		}
		if err := s.checkCycle(ctx, d.ID, id); err != nil {
			return err
		}
		d.ParentID = id
	case models.CategoryCharacter:
		id, err := s.refID(ctx, models.CategoryLocation, in.Location, "location")
		if err != nil {
			return err
		}
		d.LocationID = id
		d.Status = in.Status
		d.Class = in.Class
		d.Race = in.Race
	case models.CategoryNote:
		d.NoteType = in.NoteType
	}
	d.ApplyDefaults()
	return nil
}

func (s *Service) refID(ctx context.Context, c models.Category, ref, field string) (string, error) {
	if ref == "" {
		return "", nil
	}
	target, err := s.docs.FindBySlug(ctx, c, slug.Canonical(ref))
	if errors.Is(err, apperr.ErrNotFound) {
		return "", validation.Errors{field: fmt.Errorf("unknown %s %q", c, ref)}
	}
	if err != nil {
		return "", err
	}
	return target.ID, nil
}

// checkCycle rejects making parentID the parent of id when id is parentID
// itself or one of its ancestors.
func (s *Service) checkCycle(ctx context.Context, id, parentID string) error {
	if id == "" || parentID == "" {
		return nil
	}
	seen := map[string]bool{}
	for cur := parentID; cur != "" && !seen[cur]; {
		if cur == id {
			return apperr.ErrCycle
		}
		seen[cur] = true
		p, err := s.docs.FindByID(ctx, cur)
		if err != nil {
			return err
		}
		cur = p.ParentID
	}
	return nil
}

func (s *Service) save(ctx context.Context, d *models.Document) error {
	targets := s.resolver.Extract(d.Notes)
	links := make([]models.Link, len(targets))
	for i, t := range targets {
		links[i] = models.Link{SourceID: d.ID, TargetCategory: t.Category, TargetSlug: t.Slug}
	}
	return s.docs.Save(ctx, d, links)
}

func (s *Service) remove(ctx context.Context, d *models.Document, removeMirror bool) error {
	if d.Category == models.CategoryLocation {
		if err := s.detach(ctx, d.ID); err != nil {
			return err
		}
	}
	if err := s.docs.Delete(ctx, d.ID); err != nil {
		return err
	}
	if removeMirror && s.exporter != nil {
		if err := s.exporter.Remove(d); err != nil {
			slog.Warn("mirror remove failed", slog.String("slug", d.Slug), slog.String("error", err.Error()))
		}
	}
	s.notify(EventDeleted, d)
	return nil
}

// detach clears references to the location id so the detached documents
// carry an up-to-date checksum and mirror copy.
func (s *Service) detach(ctx context.Context, id string) error {
	children, err := s.docs.Children(ctx, id)
	if err != nil {
		return err
	}
	chars, err := s.docs.CharactersAt(ctx, id)
	if err != nil {
		return err
	}
	for _, d := range append(children, chars...) {
		d.ParentID, d.ParentSlug = "", ""
		if d.Category == models.CategoryCharacter {
			d.LocationID, d.LocationSlug = "", ""
		}
		if err := s.save(ctx, &d); err != nil {
			return err
		}
		s.export(&d)
		s.notify(EventUpdated, &d)
	}
	return nil
}

func (s *Service) detail(ctx context.Context, d *models.Document) (*Detail, error) {
	html, err := s.renderer.Render(d.Notes)
	if err != nil {
		return nil, fmt.Errorf("journal: render %s: %w", d.Slug, err)
	}
	bl, err := s.docs.Backlinks(ctx, d.Category, d.Slug)
	if err != nil {
		return nil, err
	}
	out := &Detail{Document: *d, NotesHTML: html, Backlinks: nonNil(bl)}
	if d.Category == models.CategoryLocation {
		children, err := s.docs.Children(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		chars, err := s.docs.CharactersAt(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		out.Children = summaries(children)
		out.Characters = summaries(chars)
	}
	return out, nil
}

func (s *Service) export(d *models.Document) {
	if s.exporter == nil {
		return
	}
	if err := s.exporter.Export(d); err != nil {
		slog.Warn("mirror export failed", slog.String("slug", d.Slug), slog.String("error", err.Error()))
	}
}

func (s *Service) notify(kind string, d *models.Document) {
	if s.notifier != nil {
		s.notifier.PublishDocumentEvent(kind, d.Category, d.Slug)
	}
}

func summaries(docs []models.Document) []models.Summary {
	out := make([]models.Summary, len(docs))
	for i := range docs {
		out[i] = docs[i].Summarize()
	}
	return out
}

func nonNil(s []models.Summary) []models.Summary {
	if s == nil {
		return []models.Summary{}
	}
	return s
}
