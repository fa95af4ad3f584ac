package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/campaignjournal/internal/checksum"
	"github.com/starford/campaignjournal/internal/journal"
	"github.com/starford/campaignjournal/internal/models"
	"github.com/starford/campaignjournal/internal/routepath"
)

// Handler holds the document route handlers.
type Handler struct {
	svc *journal.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *journal.Service) *Handler {
	return &Handler{svc: svc}
}

// docSlug returns the slug segment in its escaped form. chi hands over the
// raw segment when the request path needed a RawPath and the decoded one
// otherwise; re-escaping the latter keeps a literal "%41" from being decoded
// twice.
func docSlug(r *http.Request) string {
	s := chi.URLParam(r, routepath.SlugParam)
	if r.URL.RawPath == "" {
		s = url.PathEscape(s)
	}
	return s
}

// List handles GET /{plural} and GET /{plural}/all.
//
//	@Summary	List every document of a category
//	@Produce	json
//	@Success	200	{object}	ListResponse
func (h *Handler) List(c models.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.svc.List(r.Context(), c)
		if err != nil {
			writeError(w, "list "+c.Plural(), err)
			return
		}
		if items == nil {
			items = []journal.Item{}
		}
		writeJSON(w, http.StatusOK, ListResponse{Documents: items})
	}
}

// Create handles POST /{plural}.
//
//	@Summary	Create a document; the slug is derived from the name
//	@Accept		json
//	@Produce	json
//	@Param		body	body		DocumentRequest	true	"Document to create"
//	@Success	201		{object}	DocumentDetail
//	@Failure	400		{object}	errResponse
//	@Failure	409		{object}	errResponse
func (h *Handler) Create(c models.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DocumentRequest
		if !decodeBody(w, r, &req) {
			return
		}
		d, err := h.svc.Create(r.Context(), c, req)
		if err != nil {
			writeError(w, "create "+string(c), err, slog.String("name", req.Name))
			return
		}
		w.Header().Set("Location", routepath.Detail(c, d.Slug))
		w.Header().Set("ETag", checksum.ETag(d.Checksum))
		writeJSON(w, http.StatusCreated, d)
	}
}

// Get handles GET /{plural}/{slug}.
//
//	@Summary	Get a document with its rendered notes and backlinks
//	@Produce	json
//	@Param		slug	path		string	true	"Document slug"
//	@Success	200		{object}	DocumentDetail
//	@Failure	404		{object}	errResponse
func (h *Handler) Get(c models.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := h.svc.Get(r.Context(), c, docSlug(r))
		if err != nil {
			writeError(w, "get "+string(c), err, slog.String("slug", docSlug(r)))
			return
		}
		w.Header().Set("ETag", checksum.ETag(d.Checksum))
		writeJSON(w, http.StatusOK, d)
	}
}

// Update handles PUT /{plural}/{slug}.
//
//	@Summary	Replace a document with optimistic concurrency
//	@Accept		json
//	@Produce	json
//	@Param		slug		path		string			true	"Document slug"
//	@Param		If-Match	header		string			false	"Checksum from a previous read"
//	@Param		body		body		DocumentRequest	true	"Updated document"
//	@Success	200			{object}	DocumentDetail
//	@Failure	404			{object}	errResponse
//	@Failure	409			{object}	errResponse
func (h *Handler) Update(c models.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DocumentRequest
		if !decodeBody(w, r, &req) {
			return
		}
		d, err := h.svc.Update(r.Context(), c, docSlug(r), req, r.Header.Get("If-Match"))
		if err != nil {
			writeError(w, "update "+string(c), err, slog.String("slug", docSlug(r)))
			return
		}
		w.Header().Set("ETag", checksum.ETag(d.Checksum))
		writeJSON(w, http.StatusOK, d)
	}
}

// Delete handles DELETE /{plural}/{slug}.
//
//	@Summary	Delete a document
//	@Param		slug	path	string	true	"Document slug"
//	@Success	204		"Document deleted"
//	@Failure	404		{object}	errResponse
func (h *Handler) Delete(c models.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.Delete(r.Context(), c, docSlug(r)); err != nil {
			writeError(w, "delete "+string(c), err, slog.String("slug", docSlug(r)))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// LocationTree handles GET /locations/{slug}/tree.
func (h *Handler) LocationTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.LocationTree(r.Context(), docSlug(r))
	if err != nil {
		writeError(w, "location tree", err, slog.String("slug", docSlug(r)))
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// Search handles GET /search.
//
//	@Summary	Full-text search across all documents
//	@Produce	json
//	@Param		q		query		string	true	"Search query"
//	@Param		limit	query		int		false	"Max results"
//	@Success	200		{object}	SearchResponse
//	@Failure	400		{object}	errResponse
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Render handles POST /render, a preview of journal markdown.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	html, err := h.svc.Render(req.Text)
	if err != nil {
		writeError(w, "render", err)
		return
	}
	writeJSON(w, http.StatusOK, RenderResponse{HTML: html})
}
