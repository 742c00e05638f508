package mcp

import (
	"github.com/Aman-CERP/openmc-assist/internal/prompt"
	"github.com/Aman-CERP/openmc-assist/internal/retrieve"
	"github.com/Aman-CERP/openmc-assist/internal/store"
)

// Tool names.
const (
	ToolAsk              = "ask"
	ToolRetrieve         = "retrieve"
	ToolCollectionStatus = "collection_status"
)

// maxTopK bounds top_k for the retrieve tool.
const maxTopK = 50

// TurnInput is one prior message of the conversation.
type TurnInput struct {
	Role    string `json:"role" jsonschema:"who sent the message: user or assistant"`
	Content string `json:"content" jsonschema:"message text"`
}

// AskInput is the input of the ask tool.
type AskInput struct {
	Query   string      `json:"query" jsonschema:"the question about OpenMC"`
	History []TurnInput `json:"history,omitempty" jsonschema:"earlier turns of the conversation, oldest first; only the last few are used"`
}

// AskOutput is the output of the ask tool.
type AskOutput struct {
	Answer  string          `json:"answer" jsonschema:"the generated answer"`
	Sources []PassageOutput `json:"sources" jsonschema:"documentation passages the answer was grounded on"`
}

// RetrieveInput is the input of the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"text to find similar documentation passages for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of passages, defaults to the configured top_k"`
}

// RetrieveOutput is the output of the retrieve tool.
type RetrieveOutput struct {
	Passages []PassageOutput `json:"passages" jsonschema:"passages ordered by similarity, highest first"`
}

// PassageOutput is one ranked documentation passage.
type PassageOutput struct {
	FilePath   string  `json:"file_path" jsonschema:"source file path"`
	Document   string  `json:"document" jsonschema:"document title"`
	Section    string  `json:"section" jsonschema:"section title"`
	Content    string  `json:"content" jsonschema:"passage text"`
	Similarity float64 `json:"similarity" jsonschema:"cosine similarity to the query"`
}

// CollectionStatusInput is the (empty) input of the collection_status tool.
type CollectionStatusInput struct{}

// CollectionStatusOutput is the output of the collection_status tool.
type CollectionStatusOutput struct {
	Collection  string                 `json:"collection" jsonschema:"collection queried by ask and retrieve"`
	Records     int                    `json:"records" jsonschema:"number of records in that collection"`
	Index       string                 `json:"index" jsonschema:"query index backend"`
	Embedder    string                 `json:"embedder" jsonschema:"embedding model"`
	Generator   string                 `json:"generator,omitempty" jsonschema:"generation model"`
	Collections []store.CollectionInfo `json:"collections" jsonschema:"every collection in the store"`
}

func toPassages(results []retrieve.Result) []PassageOutput {
	out := make([]PassageOutput, len(results))
	for i, r := range results {
		out[i] = PassageOutput{
			FilePath:   r.Path,
			Document:   r.Document,
			Section:    r.Section,
			Content:    r.Chunk,
			Similarity: r.Similarity,
		}
	}
	return out
}

func toTurns(in []TurnInput) []prompt.Turn {
	turns := make([]prompt.Turn, len(in))
	for i, t := range in {
		turns[i] = prompt.Turn{Role: t.Role, Content: t.Content}
	}
	return turns
}
