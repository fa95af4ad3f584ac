// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the campaign journal to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/campaignjournal/internal/apperr"
	"github.com/starford/campaignjournal/internal/docfile"
	"github.com/starford/campaignjournal/internal/journal"
	"github.com/starford/campaignjournal/internal/models"
)

// Server wraps the MCP server with journal tools.
type Server struct {
	mcp *server.MCPServer
	svc *journal.Service
}

// New creates a new MCP server with all journal tools registered.
func New(svc *journal.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Campaign Journal",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	categoryNames := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		categoryNames[i] = string(c)
	}

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document names and notes."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read a document as Markdown with YAML frontmatter, or as rendered HTML."),
		mcp.WithString("category", mcp.Required(), mcp.Enum(categoryNames...)),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Document slug as shown in its URL")),
		mcp.WithBoolean("rendered", mcp.Description("Return the rendered HTML of the notes instead")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the documents of a category as slug and name pairs."),
		mcp.WithString("category", mcp.Required(), mcp.Enum(categoryNames...)),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a journal note. Notes may reference other documents with "+
			"[[category:name:label]] links; read the syntax first via the get_link_syntax tool "+
			"or the "+LinkSyntaxURI+" resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Unique note name, at most 64 characters")),
		mcp.WithString("notes", mcp.Description("Markdown body")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all documents whose notes link to the specified document."),
		mcp.WithString("category", mcp.Required(), mcp.Enum(categoryNames...)),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Slug of the linked document")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_link_syntax",
		mcp.WithDescription("Returns the inline link syntax used in journal notes."),
	), s.getLinkSyntax)

	s.mcp.AddResource(
		mcp.NewResource(LinkSyntaxURI, "Link Syntax",
			mcp.WithResourceDescription("How journal notes reference characters and locations."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLinkSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func requireCategory(req mcp.CallToolRequest) (models.Category, error) {
	raw, err := req.RequireString("category")
	if err != nil {
		return "", err
	}
	c, ok := models.ParseCategory(raw)
	if !ok {
		return "", fmt.Errorf("unknown category %q", raw)
	}
	return c, nil
}

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found")
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return toolError(err), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := requireCategory(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	docSlug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if req.GetBool("rendered", false) {
		d, err := s.svc.Get(ctx, c, docSlug)
		if err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(d.NotesHTML), nil
	}

	d, err := s.svc.Document(ctx, c, docSlug)
	if err != nil {
		return toolError(err), nil
	}
	data, err := docfile.Encode(d)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := requireCategory(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.svc.List(ctx, c)
	if err != nil {
		return toolError(err), nil
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = it.Slug + "\t" + it.Name
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.Create(ctx, models.CategoryNote, journal.Input{
		Name:  name,
		Notes: req.GetString("notes", ""),
	})
	if errors.Is(err, apperr.ErrAlreadyExists) {
		return mcp.NewToolResultError(fmt.Sprintf("note already exists: %s", name)), nil
	}
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", d.Slug)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := requireCategory(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	docSlug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, c, docSlug)
	if err != nil {
		return toolError(err), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	lines := make([]string, len(bl))
	for i, b := range bl {
		lines[i] = string(b.Category) + ":" + b.Slug
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getLinkSyntax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LinkSyntaxContract), nil
}

func (s *Server) readLinkSyntaxResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      LinkSyntaxURI,
			MIMEType: "text/markdown",
			Text:     LinkSyntaxContract,
		},
	}, nil
}
