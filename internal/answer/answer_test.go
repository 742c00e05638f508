package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
	"github.com/Aman-CERP/openmc-assist/internal/prompt"
	"github.com/Aman-CERP/openmc-assist/internal/retrieve"
	"github.com/Aman-CERP/openmc-assist/internal/store"
)

type fixedEmbedder struct {
	vec []float32
	err error
}

func (f *fixedEmbedder) Embed(context.Context, string) ([]float32, error) { return f.vec, f.err }
func (f *fixedEmbedder) ModelName() string                                 { return "fixed" }
func (f *fixedEmbedder) Close() error                                      { return nil }

type recordingGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (g *recordingGenerator) Generate(_ context.Context, p string) (string, error) {
	g.prompts = append(g.prompts, p)
	return g.reply, g.err
}
func (g *recordingGenerator) ModelName() string { return "recording" }
func (g *recordingGenerator) Close() error      { return nil }

func newIndex(t *testing.T) retrieve.VectorIndex {
	t.Helper()
	s, err := store.OpenSQLite("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	col, err := s.GetOrCreateCollection(context.Background(), "docs")
	require.NoError(t, err)
	for _, r := range []store.Record{
		{ID: "geometry.rst-0", Vector: []float32{1, 0}, Metadata: store.Metadata{FilePath: "geometry.rst", Section: "Cells", Document: "Geometry", Chunk: "cells fill regions"}},
		{ID: "materials.rst-0", Vector: []float32{0, 1}, Metadata: store.Metadata{FilePath: "materials.rst", Section: "Densities", Document: "Materials", Chunk: "set_density sets density"}},
	} {
		require.NoError(t, col.Put(context.Background(), r))
	}
	return retrieve.NewLinearIndex(col)
}

// TS01: Answer retrieves, builds one prompt and calls the generator once
func TestAnswer_Pipeline(t *testing.T) {
	// Given: an index whose best match for the query is the geometry chunk
	gen := &recordingGenerator{reply: "Use openmc.Cell."}
	o := New(retrieve.New(&fixedEmbedder{vec: []float32{1, 0.1}}), prompt.NewBuilder(5), gen, WithTopK(1))

	// When: asking with history
	history := []prompt.Turn{{Role: prompt.RoleUser, Content: "hi"}}
	reply, err := o.Answer(context.Background(), "How do I make a cell?", newIndex(t), history)

	// Then: the reply is the generator output and the prompt holds the passage
	require.NoError(t, err)
	assert.Equal(t, "Use openmc.Cell.", reply)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Document: Geometry\nSection: Cells\nContent: cells fill regions")
	assert.NotContains(t, gen.prompts[0], "Materials")
	assert.Contains(t, gen.prompts[0], "User: hi\n")
	assert.Contains(t, gen.prompts[0], "Current Question: 'How do I make a cell?'")
}

func TestRespond_ReturnsSources(t *testing.T) {
	o := New(retrieve.New(&fixedEmbedder{vec: []float32{0, 1}}), nil, &recordingGenerator{reply: "ok"})

	resp, err := o.Respond(context.Background(), "density", newIndex(t), nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Answer)
	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "materials.rst-0", resp.Sources[0].ID)
}

// TS02: Embedding failures propagate and skip generation
func TestAnswer_EmbeddingErrorPropagates(t *testing.T) {
	embedErr := amerrors.EmbeddingError("quota exceeded", nil)
	gen := &recordingGenerator{reply: "never"}
	o := New(retrieve.New(&fixedEmbedder{err: embedErr}), nil, gen)

	_, err := o.Answer(context.Background(), "q", newIndex(t), nil)

	require.Error(t, err)
	assert.Same(t, embedErr, err)
	assert.Empty(t, gen.prompts)
}

// TS03: Generation failures are returned unmodified
func TestAnswer_GenerationErrorPropagates(t *testing.T) {
	genErr := errors.New("model unavailable")
	o := New(retrieve.New(&fixedEmbedder{vec: []float32{1, 0}}), nil, &recordingGenerator{err: genErr})

	reply, err := o.Answer(context.Background(), "q", newIndex(t), nil)

	assert.Empty(t, reply)
	assert.Same(t, genErr, err)
}

func TestWithTopK_IgnoresNonPositive(t *testing.T) {
	o := New(nil, nil, nil, WithTopK(0), WithTopK(-3))

	assert.Equal(t, retrieve.DefaultTopK, o.topK)
}
