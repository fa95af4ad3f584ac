package render

import (
	"strings"
	"testing"

	"github.com/starford/campaignjournal/internal/wikilink"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	return New(wikilink.NewResolver(wikilink.DefaultRegistry()), DefaultOptions())
}

func mustRender(t *testing.T, r *Renderer, text string) string {
	t.Helper()
	out, err := r.Render(text)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return out
}

func TestRender_LinkUsesName(t *testing.T) {
	out := mustRender(t, newTestRenderer(t), "Ask [[npc:Old Man]] about it.")
	want := `<p>Ask <a href="/characters/old-man">Old Man</a> about it.</p>` + "\n"
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
	if strings.Count(out, "<a ") != 1 {
		t.Errorf("expected exactly one link in %q", out)
	}
}

func TestRender_LinkUsesLabel(t *testing.T) {
	out := mustRender(t, newTestRenderer(t), "[[ location : The Rusty Anchor : the tavern ]]")
	if !strings.Contains(out, `<a href="/locations/the-rusty-anchor">the tavern</a>`) {
		t.Errorf("out = %q", out)
	}
	if strings.Contains(out, ">The Rusty Anchor<") {
		t.Errorf("label must replace the name in %q", out)
	}
}

func TestRender_UnknownCategoryPassesThrough(t *testing.T) {
	out := mustRender(t, newTestRenderer(t), "[[foo:bar]]")
	if out != "<p>[[foo:bar]]</p>\n" {
		t.Errorf("out = %q", out)
	}
}

func TestRender_EmptyNameDropped(t *testing.T) {
	out := mustRender(t, newTestRenderer(t), "before [[location:]] after")
	if out != "<p>before  after</p>\n" {
		t.Errorf("out = %q", out)
	}
}

func TestRender_DanglingReferenceStillLinks(t *testing.T) {
	// Nothing is stored anywhere; resolution is syntactic.
	out := mustRender(t, newTestRenderer(t), "[[character:Nobody Ever]]")
	if !strings.Contains(out, `href="/characters/nobody-ever"`) {
		t.Errorf("out = %q", out)
	}
}

func TestRender_CategoryCaseInsensitive(t *testing.T) {
	out := mustRender(t, newTestRenderer(t), "[[Character:Bob]] and [[NPC:Bob]]")
	if strings.Count(out, `<a href="/characters/bob">Bob</a>`) != 2 {
		t.Errorf("out = %q", out)
	}
}

func TestRender_LinkInsideEmphasis(t *testing.T) {
	out := mustRender(t, newTestRenderer(t), "*see [[location:The Keep]]*")
	if !strings.Contains(out, `<em>see <a href="/locations/the-keep">The Keep</a></em>`) {
		t.Errorf("out = %q", out)
	}
}

func TestRender_CodeSpanUntouched(t *testing.T) {
	out := mustRender(t, newTestRenderer(t), "`[[npc:Bob]]`")
	if strings.Contains(out, "<a ") {
		t.Errorf("code spans must not resolve links: %q", out)
	}
}

func TestRender_HeadingsDemoted(t *testing.T) {
	out := mustRender(t, newTestRenderer(t), "# Title\n\n###### Deep\n")
	if !strings.Contains(out, "<h2") || strings.Contains(out, "<h1") {
		t.Errorf("h1 should become h2: %q", out)
	}
	if strings.Contains(out, "<h7") || !strings.Contains(out, "<h6") {
		t.Errorf("h6 must stay capped: %q", out)
	}
}

func TestRender_NoDemotion(t *testing.T) {
	r := New(wikilink.NewResolver(wikilink.DefaultRegistry()), Options{UnsafeHTML: true})
	out := mustRender(t, r, "# Title\n")
	if !strings.Contains(out, "<h1") {
		t.Errorf("out = %q", out)
	}
}

func TestRender_Idempotent(t *testing.T) {
	r := newTestRenderer(t)
	first := mustRender(t, r, "Met [[npc:Bob]] & friends at [[location:The Keep:the keep]].")
	second := mustRender(t, r, first)
	if first != second {
		t.Errorf("second pass changed output:\nfirst  %q\nsecond %q", first, second)
	}
	if strings.Contains(second, "&amp;amp;") {
		t.Errorf("double escaping in %q", second)
	}
}

func TestRender_Empty(t *testing.T) {
	if out := mustRender(t, newTestRenderer(t), ""); out != "" {
		t.Errorf("out = %q", out)
	}
}

func TestRender_SafeModeOmitsRawHTML(t *testing.T) {
	r := New(wikilink.NewResolver(wikilink.DefaultRegistry()), Options{})
	out := mustRender(t, r, "<script>alert(1)</script>\n")
	if strings.Contains(out, "<script>") {
		t.Errorf("raw html should be omitted in safe mode: %q", out)
	}
}

func TestRender_BangBeforeLink(t *testing.T) {
	r := newTestRenderer(t)
	if out := mustRender(t, r, "![[location:X]]"); out != "<p>!<a href=\"/locations/x\">X</a></p>\n" {
		t.Errorf("out = %q", out)
	}
	if out := mustRender(t, r, "Wow![[npc:Bob:him]]"); !strings.Contains(out, `Wow!<a href="/characters/bob">him</a>`) {
		t.Errorf("out = %q", out)
	}
	// Images and unknown categories keep their usual meaning.
	if out := mustRender(t, r, "![map](/map.png)"); !strings.Contains(out, `<img src="/map.png" alt="map"`) {
		t.Errorf("image out = %q", out)
	}
	if out := mustRender(t, r, "![[foo:bar]]"); strings.Contains(out, "<a ") || !strings.Contains(out, "[[foo:bar]]") {
		t.Errorf("unknown category out = %q", out)
	}
}

func TestRender_LinkInsideLinkLabel(t *testing.T) {
	r := newTestRenderer(t)
	out := mustRender(t, r, "[see [[npc:Bob]]](http://x)")
	if out != "<p><a href=\"http://x\">see Bob</a></p>\n" {
		t.Errorf("out = %q", out)
	}
}
