package render

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/starford/campaignjournal/internal/wikilink"
)

// KindDocLink is the AST kind of a resolved wiki-link.
var KindDocLink = ast.NewNodeKind("DocLink")

// DocLink is an inline node for a resolved (or dropped) wiki-link.
// A DocLink with an empty Destination renders nothing.
type DocLink struct {
	ast.BaseInline

	Destination []byte
	Label       []byte
}

// Kind implements ast.Node.
func (n *DocLink) Kind() ast.NodeKind { return KindDocLink }

// Dump implements ast.Node.
func (n *DocLink) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Destination": string(n.Destination),
		"Label":       string(n.Label),
	}, nil)
}

// docLinkParser must run ahead of goldmark's link parser (priority 200),
// which shares the '[' trigger.
type docLinkParser struct {
	resolver *wikilink.Resolver
}

// Trigger includes '!' so that "![[" is not claimed as an image opener.
func (p *docLinkParser) Trigger() []byte {
	return []byte{'!', '['}
}

func (p *docLinkParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, segment := block.PeekLine()
	if len(line) > 0 && line[0] == '!' {
		return p.parseBang(line, segment, block)
	}
	ref, n, ok := wikilink.MatchPrefix(line)
	if !ok {
		return nil
	}
	res := p.resolver.Resolve(ref)
	switch res.Action {
	case wikilink.PassThrough:
		return nil
	case wikilink.Drop:
		block.Advance(n)
		return &DocLink{}
	}
	block.Advance(n)
	return &DocLink{
		Destination: []byte(res.Href),
		Label:       []byte(res.Text),
	}
}

// parseBang emits a literal '!' when a resolvable wiki-link follows it; the
// link itself is parsed on the next trigger.
func (p *docLinkParser) parseBang(line []byte, segment text.Segment, block text.Reader) ast.Node {
	ref, _, ok := wikilink.MatchPrefix(line[1:])
	if !ok || p.resolver.Resolve(ref).Action == wikilink.PassThrough {
		return nil
	}
	block.Advance(1)
	return ast.NewTextSegment(text.NewSegment(segment.Start, segment.Start+1))
}

type docLinkRenderer struct{}

func (r *docLinkRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDocLink, r.render)
}

func (r *docLinkRenderer) render(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*DocLink)
	if len(n.Destination) == 0 {
		return ast.WalkSkipChildren, nil
	}
	// Anchors cannot nest; inside a link label only the text is kept.
	if insideLink(n) {
		_, _ = w.Write(util.EscapeHTML(n.Label))
		return ast.WalkSkipChildren, nil
	}
	_, _ = w.WriteString(`<a href="`)
	_, _ = w.Write(util.EscapeHTML(n.Destination))
	_, _ = w.WriteString(`">`)
	_, _ = w.Write(util.EscapeHTML(n.Label))
	_, _ = w.WriteString(`</a>`)
	return ast.WalkSkipChildren, nil
}

func insideLink(n ast.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case ast.KindLink, ast.KindAutoLink:
			return true
		}
	}
	return false
}

// DocLinks is a goldmark extension resolving wiki-links inline.
type DocLinks struct {
	Resolver *wikilink.Resolver
}

// Extend implements goldmark.Extender.
func (e *DocLinks) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(util.Prioritized(&docLinkParser{resolver: e.Resolver}, 199)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(&docLinkRenderer{}, 500)),
	)
}

// headingDemoter shifts every heading down by offset levels, capped at h6.
type headingDemoter struct {
	offset int
}

func (h *headingDemoter) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	if h.offset <= 0 {
		return
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			heading.Level = min(heading.Level+h.offset, 6)
		}
		return ast.WalkContinue, nil
	})
}
