package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/openmc-assist/internal/retrieve"
)

func passages() []retrieve.Result {
	return []retrieve.Result{
		{Document: "Geometry", Section: "Cells", Chunk: "A cell is a region filled with material."},
		{Document: "Materials", Section: "Densities", Chunk: "Set densities with set_density."},
	}
}

// TS01: The prompt sections appear in fixed order
func TestBuild_Order(t *testing.T) {
	// Given: history, a query and two passages
	history := []Turn{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}}

	// When: building
	out := NewBuilder(5).Build("How do I define a cell?", passages(), history)

	// Then: system block, history, query, passages in that order
	require.True(t, strings.HasPrefix(out, SystemInstructions))
	positions := []int{
		strings.Index(out, "expert in nuclear engineering"),
		strings.Index(out, "Previous Conversation:\nUser: hi\nAssistant: hello\n"),
		strings.Index(out, "Current Question: 'How do I define a cell?'"),
		strings.Index(out, "Document: Geometry\nSection: Cells\nContent: A cell is a region filled with material."),
		strings.Index(out, "Document: Materials\nSection: Densities"),
	}
	for i, p := range positions {
		require.GreaterOrEqual(t, p, 0, "part %d missing", i)
		if i > 0 {
			assert.Greater(t, p, positions[i-1], "part %d out of order", i)
		}
	}
	assert.True(t, strings.HasSuffix(out, "\n\nANSWER:"))
}

// TS02: Only the last five turns are kept, in original order
func TestBuild_HistoryWindow(t *testing.T) {
	var history []Turn
	for i := 1; i <= 7; i++ {
		role := RoleUser
		if i%2 == 0 {
			role = RoleAssistant
		}
		history = append(history, Turn{Role: role, Content: fmt.Sprintf("turn-%d", i)})
	}

	out := NewBuilder(0).Build("q", nil, history)

	assert.NotContains(t, out, "turn-1\n")
	assert.NotContains(t, out, "turn-2\n")
	assert.Contains(t, out, "User: turn-3\nAssistant: turn-4\nUser: turn-5\nAssistant: turn-6\nUser: turn-7\n")
}

func TestBuild_ExactLayout(t *testing.T) {
	out := NewBuilder(5).Build("What is k-eff?", passages()[:1], []Turn{{Role: "user", Content: "hi"}})

	want := SystemInstructions +
		"Previous Conversation:\nUser: hi\n\n\n" +
		"Current Question: 'What is k-eff?'\n" +
		"Relevant OpenMC Documentation:\n" +
		"Document: Geometry\nSection: Cells\nContent: A cell is a region filled with material.\n" +
		"\n\nANSWER:"
	assert.Equal(t, want, out)
}

func TestBuild_NoPassagesNoDedup(t *testing.T) {
	b := NewBuilder(5)

	empty := b.Build("q", nil, nil)
	assert.Contains(t, empty, "Previous Conversation:\n\n\nCurrent Question: 'q'\nRelevant OpenMC Documentation:\n\n\nANSWER:")

	dup := append(passages()[:1], passages()[:1]...)
	assert.Equal(t, 2, strings.Count(b.Build("q", dup, nil), "Document: Geometry"))
}

func TestBuild_Pure(t *testing.T) {
	b := NewBuilder(3)
	history := []Turn{{Role: RoleUser, Content: "a"}, {Role: RoleAssistant, Content: "b"}}

	assert.Equal(t, b.Build("q", passages(), history), b.Build("q", passages(), history))
	assert.Len(t, history, 2)
}

func TestBuild_NegativeHistoryKeepsNone(t *testing.T) {
	out := NewBuilder(-1).Build("q", nil, []Turn{{Role: RoleUser, Content: "secret"}})

	assert.NotContains(t, out, "secret")
}

func TestSpeaker(t *testing.T) {
	assert.Equal(t, "User", speaker("user"))
	assert.Equal(t, "User", speaker("USER"))
	assert.Equal(t, "Assistant", speaker("assistant"))
	assert.Equal(t, "Assistant", speaker("model"))
}
