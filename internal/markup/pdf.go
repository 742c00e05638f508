package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TagPageText is a block of text extracted from a PDF page.
const TagPageText = "page_text"

// PDFFrontend extracts text from PDF manuals. PDFs carry no reliable
// structure, so every page becomes a section titled "Page N" and each run
// of non-blank lines becomes one content item. The document title comes
// from the Info dictionary when present.
type PDFFrontend struct{}

// Name implements Frontend.
func (PDFFrontend) Name() string { return "pdf" }

// Extensions implements Frontend.
func (PDFFrontend) Extensions() []string { return []string{".pdf"} }

// binary marks src as raw bytes; Preprocess runs on the extracted text instead.
func (PDFFrontend) binary() {}

// Nodes implements Frontend.
func (PDFFrontend) Nodes(src []byte) (nodes []Node, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			nodes, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	if title := strings.TrimSpace(r.Trailer().Key("Info").Key("Title").Text()); title != "" {
		nodes = append(nodes, DocumentNode(title))
	}

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		nodes = append(nodes, SectionNode(fmt.Sprintf("Page %d", i), 1))
		for _, block := range pageBlocks(Preprocess(text)) {
			nodes = append(nodes, ContentNode(TagPageText, block))
		}
	}
	return nodes, nil
}

// pageBlocks splits extracted text at blank lines and joins the lines of
// each block with single spaces.
func pageBlocks(text string) []string {
	var blocks []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			blocks = append(blocks, strings.Join(cur, " "))
			cur = cur[:0]
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return blocks
}
