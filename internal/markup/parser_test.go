package markup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
)

// recordingFrontend captures the source it is handed.
type recordingFrontend struct {
	got []byte
	err error
}

func (f *recordingFrontend) Name() string         { return "recording" }
func (f *recordingFrontend) Extensions() []string { return []string{".TXT"} }
func (f *recordingFrontend) Nodes(src []byte) ([]Node, error) {
	f.got = src
	if f.err != nil {
		return nil, f.err
	}
	return []Node{DocumentNode("Doc"), SectionNode("Doc", 1), ContentNode("note", string(src))}, nil
}

func TestParser_PreprocessesBeforeFrontend(t *testing.T) {
	// Given: a frontend that records its input
	rec := &recordingFrontend{}
	p := NewParser(WithFrontend(rec))

	// When: parsing text containing the label option
	doc, err := p.Parse("notes.txt", []byte(".. math::\n   :label: eq1\n"))

	// Then: the frontend sees the rewritten option
	require.NoError(t, err)
	assert.Equal(t, ".. math::\n   :name: eq1\n", string(rec.got))
	assert.Equal(t, "Doc", doc.Title)
}

func TestPreprocess(t *testing.T) {
	assert.Equal(t, ":name: a and :name: b", Preprocess(":label: a and :label: b"))
	assert.Equal(t, "no options here", Preprocess("no options here"))
}

func TestParser_FrontendErrorIsParseError(t *testing.T) {
	// Given: a frontend that fails with a syntax error
	rec := &recordingFrontend{err: &SyntaxError{Line: 3, Msg: "broken"}}
	p := NewParser(WithFrontend(rec))

	// When: parsing
	doc, err := p.Parse("docs/bad.txt", []byte("x"))

	// Then: the failure is a ParseError naming the path and frontend
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, amerrors.IsParseError(err))
	assert.Contains(t, err.Error(), "docs/bad.txt")
	assert.Contains(t, err.Error(), "line 3: broken")

	var syn *SyntaxError
	require.True(t, errors.As(err, &syn))
	assert.Equal(t, 3, syn.Line)

	var ae *amerrors.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "docs/bad.txt", ae.Details["path"])
	assert.Equal(t, "recording", ae.Details["frontend"])
}

func TestParser_MalformedRSTIsParseError(t *testing.T) {
	_, err := NewParser().Parse("broken.rst", []byte("=====\nTitle\n-----\n"))

	require.Error(t, err)
	assert.True(t, amerrors.IsParseError(err))
}

func TestParser_UnsupportedExtension(t *testing.T) {
	p := NewParser()

	_, err := p.Parse("manual.pdf", []byte("%PDF"))

	require.Error(t, err)
	assert.True(t, amerrors.IsParseError(err))
	assert.False(t, p.Supports("manual.pdf"))
}

func TestParser_SupportsAndExtensions(t *testing.T) {
	p := NewParser(WithFrontend(&recordingFrontend{}))

	assert.True(t, p.Supports("a/b/geometry.rst"))
	assert.True(t, p.Supports("README.MD"))
	assert.True(t, p.Supports("notes.txt"))
	assert.False(t, p.Supports("run.py"))
	assert.Equal(t, []string{".markdown", ".md", ".pdf", ".rest", ".rst", ".txt"}, p.Extensions())
}
