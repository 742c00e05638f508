// Package chunk groups extracted document content into bounded text chunks
// ready for embedding.
package chunk

import "github.com/Aman-CERP/openmc-assist/internal/markup"

// DefaultChunkSize is the soft upper bound on chunk length, in characters.
const DefaultChunkSize = 500

// Chunk is a retrievable unit of text with its source attribution.
// Chunks are never modified after the chunker returns them.
type Chunk struct {
	Text     string // Concatenated content
	Document string // Document title
	Section  string // Section that closed the chunk
	Path     string // Source file path
	Index    int    // Position within the source file, from 0
}

// ID returns the record identifier, "<path>-<index>".
func (c Chunk) ID() string {
	return recordID(c.Path, c.Index)
}

// Chunker splits a parsed document into chunks.
type Chunker interface {
	Chunk(doc *markup.Document) []Chunk
}
