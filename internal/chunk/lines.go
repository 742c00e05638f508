package chunk

import "strings"

// LineChunker packs source lines into chunks joined by newlines. It is used
// for example scripts, which are not parsed as markup.
type LineChunker struct {
	Size int
}

// NewLineChunker returns a line chunker with the given soft bound.
func NewLineChunker(size int) *LineChunker {
	return &LineChunker{Size: size}
}

// Source identifies an unparsed file and how its chunks are attributed.
type Source struct {
	Path     string
	Document string
	Section  string
	Text     string
}

// ChunkSource splits src.Text on newlines and packs the lines. Trailing
// newlines are ignored.
func (c *LineChunker) ChunkSource(src Source) []Chunk {
	body := strings.TrimRight(src.Text, "\n")
	if strings.TrimSpace(body) == "" {
		return nil
	}

	acc := newAccumulator(c.Size, "\n")
	var chunks []Chunk
	emit := func(text string) {
		chunks = append(chunks, Chunk{
			Text:     text,
			Document: src.Document,
			Section:  src.Section,
			Path:     src.Path,
			Index:    len(chunks),
		})
	}

	for _, line := range strings.Split(body, "\n") {
		if text, ok := acc.add(strings.TrimSuffix(line, "\r")); ok {
			emit(text)
		}
	}
	if text, ok := acc.flush(); ok {
		emit(text)
	}

	return chunks
}
