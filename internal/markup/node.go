// Package markup turns documentation sources into a Document tree of titled
// Sections holding typed ContentItems.
//
// Each markup frontend (reStructuredText, Markdown) produces a flat stream of
// typed Nodes in document order. Fold consumes that stream and builds the
// tree, so nothing downstream depends on a particular parser's node API.
package markup

import "fmt"

// NodeKind discriminates the variants of Node.
type NodeKind int

const (
	// NodeDocument carries the document-level title.
	NodeDocument NodeKind = iota
	// NodeSection marks the start of a section.
	NodeSection
	// NodeContent is a structural element inside a section.
	NodeContent
)

// String returns the variant name.
func (k NodeKind) String() string {
	switch k {
	case NodeDocument:
		return "document"
	case NodeSection:
		return "section"
	case NodeContent:
		return "content"
	default:
		return "unknown"
	}
}

// Content tags shared by the frontends.
const (
	TagTitle        = "title"
	TagParagraph    = "paragraph"
	TagLiteralBlock = "literal_block"
	TagMathBlock    = "math_block"
	TagListItem     = "list_item"
	TagBlockQuote   = "block_quote"
	TagTable        = "table"
)

// UntitledSection is used when a section has no title text.
const UntitledSection = "Untitled Section"

// Node is one element of a frontend's node stream.
type Node struct {
	Kind NodeKind
	// Tag is the content category (e.g. "literal_block"); NodeContent only.
	Tag string
	// Text is the title for document and section nodes, the extracted text otherwise.
	Text string
	// Level is the 1-based section depth; NodeSection only.
	Level int
}

// DocumentNode returns a document-title node.
func DocumentNode(title string) Node {
	return Node{Kind: NodeDocument, Text: title}
}

// SectionNode returns a section-start node.
func SectionNode(title string, level int) Node {
	return Node{Kind: NodeSection, Text: title, Level: level}
}

// ContentNode returns a content node.
func ContentNode(tag, text string) Node {
	return Node{Kind: NodeContent, Tag: tag, Text: text}
}

// Document is a source file's logical content.
type Document struct {
	Path     string
	Title    string
	Sections []Section
}

// Section is a titled portion of a document.
type Section struct {
	Title string
	Items []ContentItem
}

// ContentItem is the extracted text of one structural node.
type ContentItem struct {
	Kind string
	Text string
}

// SyntaxError reports malformed markup at a 1-based line.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}
