package markup

import "strings"

// FoldOptions controls which content nodes are retained.
type FoldOptions struct {
	// IncludeParagraphs retains plain paragraphs. They are dropped by default.
	IncludeParagraphs bool
}

// Fold builds the Document tree from a node stream in document order.
//
// A section node closes the open section (if any) and opens a new one; the
// last open section is flushed at the end. Content seen before the first
// section node belongs to no section and is not retained, nor is content with
// only whitespace. The first non-empty document node sets the title.
func Fold(path string, nodes []Node, opts FoldOptions) *Document {
	doc := &Document{Path: path}

	var current *Section
	for _, n := range nodes {
		switch n.Kind {
		case NodeDocument:
			if doc.Title == "" {
				doc.Title = strings.TrimSpace(n.Text)
			}

		case NodeSection:
			if current != nil {
				doc.Sections = append(doc.Sections, *current)
			}
			title := strings.TrimSpace(n.Text)
			if title == "" {
				title = UntitledSection
			}
			current = &Section{Title: title}

		case NodeContent:
			if current == nil {
				continue
			}
			if n.Tag == TagParagraph && !opts.IncludeParagraphs {
				continue
			}
			if strings.TrimSpace(n.Text) == "" {
				continue
			}
			current.Items = append(current.Items, ContentItem{Kind: n.Tag, Text: n.Text})
		}
	}

	if current != nil {
		doc.Sections = append(doc.Sections, *current)
	}

	return doc
}
