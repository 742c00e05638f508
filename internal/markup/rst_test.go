package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const geometryRST = `.. _usersguide_geometry:

========
Geometry
========

Intro paragraph about geometry.

Surfaces
--------

A surface is defined by::

    sphere = openmc.Sphere(r=10.0)

.. math::
    :label: eq-sphere

    x^2 + y^2 + z^2 = R^2

- First bullet
- Second bullet
  continued

Cells
-----

.. note:: Cells are regions.

:Type: region
`

func parseRST(t *testing.T, src string, opts FoldOptions) *Document {
	t.Helper()
	nodes, err := RSTFrontend{}.Nodes([]byte(Preprocess(src)))
	require.NoError(t, err)
	return Fold("geometry.rst", nodes, opts)
}

// TS01: Sections are detected in document order with typed content
func TestRST_SectionsAndContent(t *testing.T) {
	// Given: a document with an overline title and two subsections
	// When: parsing without paragraphs
	doc := parseRST(t, geometryRST, FoldOptions{})

	// Then: the document title and sections are in order
	assert.Equal(t, "Geometry", doc.Title)
	require.Len(t, doc.Sections, 3)
	assert.Equal(t, "Geometry", doc.Sections[0].Title)
	assert.Equal(t, "Surfaces", doc.Sections[1].Title)
	assert.Equal(t, "Cells", doc.Sections[2].Title)

	assert.Equal(t, []ContentItem{{Kind: TagTitle, Text: "Geometry"}}, doc.Sections[0].Items)
	assert.Equal(t, []ContentItem{
		{Kind: TagTitle, Text: "Surfaces"},
		{Kind: TagLiteralBlock, Text: "sphere = openmc.Sphere(r=10.0)"},
		{Kind: TagMathBlock, Text: "x^2 + y^2 + z^2 = R^2"},
		{Kind: TagListItem, Text: "First bullet"},
		{Kind: TagListItem, Text: "Second bullet\ncontinued"},
	}, doc.Sections[1].Items)
	assert.Equal(t, []ContentItem{
		{Kind: TagTitle, Text: "Cells"},
		{Kind: "note", Text: "Cells are regions."},
		{Kind: "field", Text: "Type: region"},
	}, doc.Sections[2].Items)
}

func TestRST_IncludeParagraphs(t *testing.T) {
	doc := parseRST(t, geometryRST, FoldOptions{IncludeParagraphs: true})

	require.Len(t, doc.Sections, 3)
	assert.Equal(t, ContentItem{Kind: TagParagraph, Text: "Intro paragraph about geometry."}, doc.Sections[0].Items[1])
	// "::" at the end of a paragraph is rendered as a single colon
	assert.Equal(t, ContentItem{Kind: TagParagraph, Text: "A surface is defined by:"}, doc.Sections[1].Items[1])
}

func TestRST_LiteralMarkerVariants(t *testing.T) {
	src := "Title\n=====\n\nSpaced marker ::\n\n    a = 1\n\n::\n\n    b = 2\n"
	doc := parseRST(t, src, FoldOptions{IncludeParagraphs: true})

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, []ContentItem{
		{Kind: TagTitle, Text: "Title"},
		{Kind: TagParagraph, Text: "Spaced marker"},
		{Kind: TagLiteralBlock, Text: "a = 1"},
		{Kind: TagLiteralBlock, Text: "b = 2"},
	}, doc.Sections[0].Items)
}

func TestRST_CodeBlockKeepsIndentation(t *testing.T) {
	src := "Title\n=====\n\n.. code-block:: python\n    :caption: demo\n\n    def f():\n        return 1\n"
	doc := parseRST(t, src, FoldOptions{})

	require.Len(t, doc.Sections, 1)
	require.Len(t, doc.Sections[0].Items, 2)
	assert.Equal(t, ContentItem{Kind: TagLiteralBlock, Text: "def f():\n    return 1"}, doc.Sections[0].Items[1])
}

func TestRST_Tables(t *testing.T) {
	src := `Materials
=========

+-------+-------+
| Name  | Value |
+=======+=======+
| fuel  | UO2   |
+-------+-------+

=====  =====
Name   Value
=====  =====
water  H2O
=====  =====
`
	doc := parseRST(t, src, FoldOptions{})

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, []ContentItem{
		{Kind: TagTitle, Text: "Materials"},
		{Kind: TagTable, Text: "Name Value\nfuel UO2"},
		{Kind: TagTable, Text: "Name Value\nwater H2O"},
	}, doc.Sections[0].Items)
}

func TestRST_ListsDefinitionsQuotesComments(t *testing.T) {
	src := `Cells
=====

1. first
2. second

fill
    Material or universe filling the cell.

Some paragraph.

   Quoted text.

.. this is a comment

.. [1] A footnote.

.. image:: cell.png
`
	doc := parseRST(t, src, FoldOptions{})

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, []ContentItem{
		{Kind: TagTitle, Text: "Cells"},
		{Kind: TagListItem, Text: "first"},
		{Kind: TagListItem, Text: "second"},
		{Kind: "definition_list_item", Text: "fill\nMaterial or universe filling the cell."},
		{Kind: TagBlockQuote, Text: "Quoted text."},
		{Kind: "comment", Text: "this is a comment"},
		{Kind: "footnote", Text: "A footnote."},
	}, doc.Sections[0].Items)
}

func TestRST_ContentBeforeFirstSectionIsDropped(t *testing.T) {
	src := ".. note:: early\n\nTitle\n=====\n\n.. note:: late\n"
	doc := parseRST(t, src, FoldOptions{})

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, []ContentItem{
		{Kind: TagTitle, Text: "Title"},
		{Kind: "note", Text: "late"},
	}, doc.Sections[0].Items)
}

func TestRST_NoTitle(t *testing.T) {
	doc := parseRST(t, "Just prose.\n\nMore prose.\n", FoldOptions{IncludeParagraphs: true})

	assert.Empty(t, doc.Title)
	assert.Empty(t, doc.Sections)
}

func TestRST_ReturningToKnownLevel(t *testing.T) {
	src := "A\n===\n\nB\n---\n\nC\n~~~\n\nD\n===\n\nE\n---\n"
	doc := parseRST(t, src, FoldOptions{})

	var titles []string
	for _, s := range doc.Sections {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, titles)
	assert.Equal(t, "A", doc.Title)
}

func TestRST_TitleUsesInlineText(t *testing.T) {
	doc := parseRST(t, "The ``openmc.Cell`` Class\n=========================\n", FoldOptions{})

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "The openmc.Cell Class", doc.Sections[0].Title)
}

// TS02: Severe structural errors are reported with their line
func TestRST_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{"overline mismatch", "=====\nTitle\n-----\n", 1, "mismatch"},
		{"missing underline", "=====\nTitle\n\nText\n", 1, "missing matching underline"},
		{"overline at end", "=====\nTitle", 1, "missing matching underline"},
		{"inconsistent level", "Top\n===\n\nSub\n---\n\nTop2\n===\n\nBad\n~~~\n", 10, "inconsistent"},
		{"invalid utf8", "Title\n=====\n\nbad \xff byte\n", 4, "invalid UTF-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RSTFrontend{}.Nodes([]byte(tt.src))
			require.Error(t, err)

			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.line, se.Line)
			assert.Contains(t, se.Msg, tt.msg)
		})
	}
}

func TestStripInline(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"see :ref:`geometry <usersguide_geometry>`", "see geometry"},
		{"the :class:`~openmc.Cell` class", "the openmc.Cell class"},
		{"use ``openmc.run()`` now", "use openmc.run() now"},
		{"`OpenMC <https://openmc.org>`_ site", "OpenMC site"},
		{"**bold** and *em*", "bold and em"},
		{"a :math:`\\sigma_t` term", "a \\sigma_t term"},
		{"escaped \\* star", "escaped * star"},
		{":ref:`<target-only>`", "target-only"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, stripInline(tt.in))
		})
	}
}

func TestExpandTabs(t *testing.T) {
	assert.Equal(t, "        x", expandTabs("\tx"))
	assert.Equal(t, "ab      x", expandTabs("ab\tx"))
	assert.Equal(t, "none", expandTabs("none"))
}
