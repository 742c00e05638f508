package chunk

import (
	"strings"

	"github.com/Aman-CERP/openmc-assist/internal/markup"
)

// SectionChunker packs the content items of a document into chunks.
//
// The accumulator runs across section boundaries; a chunk is attributed to
// the section whose item forced it closed, and the final chunk to the last
// section.
type SectionChunker struct {
	// Size is the soft bound in characters. Zero means DefaultChunkSize.
	Size int
}

// NewSectionChunker returns a chunker with the given soft bound.
func NewSectionChunker(size int) *SectionChunker {
	return &SectionChunker{Size: size}
}

// Chunk implements Chunker. Documents without a title are attributed to
// their path. Blank items are skipped.
func (c *SectionChunker) Chunk(doc *markup.Document) []Chunk {
	if doc == nil {
		return nil
	}

	title := doc.Title
	if title == "" {
		title = doc.Path
	}

	acc := newAccumulator(c.Size, " ")
	var chunks []Chunk
	emit := func(text, section string) {
		chunks = append(chunks, Chunk{
			Text:     text,
			Document: title,
			Section:  section,
			Path:     doc.Path,
			Index:    len(chunks),
		})
	}

	section := markup.UntitledSection
	for _, s := range doc.Sections {
		section = s.Title
		if section == "" {
			section = markup.UntitledSection
		}
		for _, item := range s.Items {
			// Blank items carry no content and would only add a joining space.
			if strings.TrimSpace(item.Text) == "" {
				continue
			}
			if text, ok := acc.add(item.Text); ok {
				emit(text, section)
			}
		}
	}
	if text, ok := acc.flush(); ok {
		emit(text, section)
	}

	return chunks
}
