// Package prompt assembles the text sent to the language model: a fixed
// persona block, recent conversation, the question and the retrieved
// documentation passages.
package prompt

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/openmc-assist/internal/retrieve"
)

// DefaultHistoryTurns is the number of most recent turns included.
const DefaultHistoryTurns = 5

// Roles of a conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message of the conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemInstructions is the persona and behavior block that opens every prompt.
const SystemInstructions = "You are an OpenMC expert assistant that answers questions using text from the OpenMC Documentation below.\n" +
	"You are also an expert in nuclear engineering, especially reactor designs.\n" +
	"Use your creativity when the user asks to write input files/codes, but always refer to the user's guide and utilize examples. Prioritize to write using OpenMC Python API, unless asked other formats. \n" +
	"Use reasonable engineering assumptions for parameters needed to write a complete input file. \n" +
	"Maintain a professional, conversational, and helpful tone. Also, mention the source based on the documentation metadata.\n\n"

// Builder renders prompts. The zero value uses DefaultHistoryTurns.
type Builder struct {
	// HistoryTurns is how many of the latest turns are kept. Older turns
	// are dropped. Zero means DefaultHistoryTurns; negative keeps none.
	HistoryTurns int
}

// NewBuilder returns a Builder keeping the last turns turns.
func NewBuilder(turns int) *Builder {
	return &Builder{HistoryTurns: turns}
}

// Build renders the prompt. It is pure: the same inputs always give the
// same text. Passages appear in the given order, without truncation or
// de-duplication.
func (b *Builder) Build(query string, results []retrieve.Result, history []Turn) string {
	var sb strings.Builder
	sb.WriteString(SystemInstructions)

	sb.WriteString("Previous Conversation:\n")
	for _, turn := range b.recent(history) {
		fmt.Fprintf(&sb, "%s: %s\n", speaker(turn.Role), turn.Content)
	}
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Current Question: '%s'\n", query)

	sb.WriteString("Relevant OpenMC Documentation:\n")
	sb.WriteString(FormatPassages(results))
	sb.WriteString("\n\nANSWER:")

	return sb.String()
}

// FormatPassages renders retrieval results as labeled blocks separated by
// blank lines.
func FormatPassages(results []retrieve.Result) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("Document: %s\nSection: %s\nContent: %s\n", r.Document, r.Section, r.Chunk)
	}
	return strings.Join(blocks, "\n\n")
}

func (b *Builder) recent(history []Turn) []Turn {
	n := b.HistoryTurns
	if n == 0 {
		n = DefaultHistoryTurns
	}
	if n < 0 {
		return nil
	}
	if len(history) > n {
		return history[len(history)-n:]
	}
	return history
}

// speaker labels a turn; any role other than user is the assistant.
func speaker(role string) string {
	if strings.EqualFold(role, RoleUser) {
		return "User"
	}
	return "Assistant"
}
