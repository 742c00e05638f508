package markup

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownFrontend walks a goldmark AST into the node stream. ATX and
// setext headings open sections; the first level-1 heading is the document
// title.
type MarkdownFrontend struct {
	md goldmark.Markdown
}

// NewMarkdownFrontend returns a frontend with GitHub-flavored extensions.
func NewMarkdownFrontend() *MarkdownFrontend {
	return &MarkdownFrontend{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

// Name implements Frontend.
func (f *MarkdownFrontend) Name() string { return "markdown" }

// Extensions implements Frontend.
func (f *MarkdownFrontend) Extensions() []string { return []string{".md", ".markdown"} }

// Nodes implements Frontend.
func (f *MarkdownFrontend) Nodes(src []byte) ([]Node, error) {
	root := f.md.Parser().Parse(text.NewReader(src))

	var nodes []Node
	titled := false

	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Heading:
			title := inlineText(v, src)
			if !titled && v.Level == 1 {
				nodes = append(nodes, DocumentNode(title))
				titled = true
			}
			nodes = append(nodes, SectionNode(title, v.Level), ContentNode(TagTitle, title))
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.TextBlock:
			nodes = append(nodes, ContentNode(blockTag(n), inlineText(n, src)))
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			nodes = append(nodes, ContentNode(TagLiteralBlock, strings.TrimRight(linesText(n, src), "\n")))
			return ast.WalkSkipChildren, nil

		case *ast.HTMLBlock:
			nodes = append(nodes, ContentNode("raw", strings.TrimSpace(linesText(n, src))))
			return ast.WalkSkipChildren, nil

		case *east.Table:
			nodes = append(nodes, ContentNode(TagTable, tableText(v, src)))
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	return nodes, nil
}

// blockTag names a paragraph by its container.
func blockTag(n ast.Node) string {
	if p := n.Parent(); p != nil {
		switch p.Kind() {
		case ast.KindListItem:
			return TagListItem
		case ast.KindBlockquote:
			return TagBlockQuote
		}
	}
	return TagParagraph
}

// inlineText concatenates the text of n's inline descendants.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	writeInline(&buf, n, src)
	return strings.TrimSpace(buf.String())
}

func writeInline(buf *bytes.Buffer, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(v.Value)
		case *ast.AutoLink:
			buf.Write(v.Label(src))
		case *ast.RawHTML:
			// Dropped.
		default:
			writeInline(buf, c, src)
		}
	}
}

func linesText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.String()
}

// tableText renders one line per row with cells separated by spaces.
func tableText(t *east.Table, src []byte) string {
	var rows []string
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			if s := inlineText(cell, src); s != "" {
				cells = append(cells, s)
			}
		}
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " "))
		}
	}
	return strings.Join(rows, "\n")
}
