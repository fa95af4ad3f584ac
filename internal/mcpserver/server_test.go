package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/campaignjournal/internal/journal"
	"github.com/starford/campaignjournal/internal/models"
	"github.com/starford/campaignjournal/internal/testutil"
)

func testServer(t *testing.T) (*Server, *journal.Service) {
	t.Helper()
	svc := testutil.TestJournal(t, testutil.TestDB(t))
	return New(svc, "test"), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper; dispatch to the handlers directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_documents":
		result, err = srv.searchDocuments(ctx, req)
	case "read_document":
		result, err = srv.readDocument(ctx, req)
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "get_link_syntax":
		result, err = srv.getLinkSyntax(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadNote(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_note", map[string]any{
		"name":  "Session 3",
		"notes": "# Recap\nMet [[npc:Old Man]].",
	})
	if text := resultText(r); text != "created: session-3" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_document", map[string]any{"category": "note", "slug": "session-3"})
	text := resultText(r)
	if !strings.HasPrefix(text, "---\ncategory: note\nname: Session 3\n") || !strings.HasSuffix(text, "Met [[npc:Old Man]].") {
		t.Errorf("raw read = %q", text)
	}

	r = callTool(t, srv, "read_document", map[string]any{"category": "note", "slug": "session-3", "rendered": true})
	text = resultText(r)
	if !strings.Contains(text, `<a href="/characters/old-man">Old Man</a>`) || !strings.Contains(text, "<h2") {
		t.Errorf("rendered read = %q", text)
	}

	r = callTool(t, srv, "create_note", map[string]any{"name": "Session 3"})
	if !r.IsError {
		t.Error("expected error for duplicate note")
	}
}

func TestListDocuments(t *testing.T) {
	srv, svc := testServer(t)
	ctx := context.Background()
	for _, name := range []string{"Keep", "Harbor"} {
		if _, err := svc.Create(ctx, models.CategoryLocation, journal.Input{Name: name}); err != nil {
			t.Fatal(err)
		}
	}

	r := callTool(t, srv, "list_documents", map[string]any{"category": "location"})
	if text := resultText(r); text != "harbor\tHarbor\nkeep\tKeep" {
		t.Errorf("list = %q", text)
	}

	r = callTool(t, srv, "list_documents", map[string]any{"category": "spell"})
	if !r.IsError {
		t.Error("expected error for unknown category")
	}
}

func TestReadDocumentMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_document", map[string]any{"category": "faction", "slug": "nope"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestGetBacklinks(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]any{
		"name":  "Rumors",
		"notes": "Someone saw [[character:Bard]].",
	})

	r := callTool(t, srv, "get_backlinks", map[string]any{"category": "character", "slug": "bard"})
	if text := resultText(r); text != "note:rumors" {
		t.Errorf("backlinks = %q, want note:rumors", text)
	}

	r = callTool(t, srv, "get_backlinks", map[string]any{"category": "location", "slug": "bard"})
	if text := resultText(r); text != "no backlinks found" {
		t.Errorf("backlinks = %q", text)
	}
}

func TestSearchAndSyntax(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]any{"name": "Dragons", "notes": "A wyrm."})

	r := callTool(t, srv, "search_documents", map[string]any{"query": "wyrm"})
	if text := resultText(r); !strings.Contains(text, `"slug": "dragons"`) {
		t.Errorf("search = %q", text)
	}

	r = callTool(t, srv, "get_link_syntax", map[string]any{})
	if resultText(r) != LinkSyntaxContract {
		t.Error("link syntax mismatch")
	}
}
