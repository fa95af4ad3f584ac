// Package render converts journal notes to HTML.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/starford/campaignjournal/internal/wikilink"
)

// Options configures a Renderer.
type Options struct {
	// HeadingOffset demotes headings so embedded notes never outrank the
	// surrounding page. Zero leaves headings untouched.
	HeadingOffset int
	// UnsafeHTML passes raw HTML through. Author text is trusted and the
	// output is not sanitized.
	UnsafeHTML bool
}

// DefaultOptions demote by one level and pass raw HTML through.
func DefaultOptions() Options {
	return Options{HeadingOffset: 1, UnsafeHTML: true}
}

// Renderer turns markdown with wiki-links into HTML. It holds no per-call
// state and is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New builds a Renderer that resolves wiki-links with resolver.
func New(resolver *wikilink.Resolver, opts Options) *Renderer {
	rendererOptions := []goldmark.Option{}
	if opts.UnsafeHTML {
		rendererOptions = append(rendererOptions, goldmark.WithRendererOptions(html.WithUnsafe()))
	}

	engineOptions := append([]goldmark.Option{
		goldmark.WithExtensions(
			extension.GFM,
			&DocLinks{Resolver: resolver},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(&headingDemoter{offset: opts.HeadingOffset}, 100)),
		),
	}, rendererOptions...)

	return &Renderer{md: goldmark.New(engineOptions...)}
}

// Render converts text to HTML. Empty text yields empty output without
// invoking the markdown engine.
func (r *Renderer) Render(text string) (string, error) {
	if text == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return buf.String(), nil
}
