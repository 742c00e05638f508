package markup

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
)

// Frontend converts one markup language into the node stream.
type Frontend interface {
	// Name identifies the frontend in logs.
	Name() string
	// Extensions lists the lower-case file extensions handled, with the dot.
	Extensions() []string
	// Nodes parses src. Malformed input returns an error, preferably *SyntaxError.
	Nodes(src []byte) ([]Node, error)
}

// binaryFrontend is implemented by frontends that take raw bytes and apply
// Preprocess to the text they extract.
type binaryFrontend interface {
	binary()
}

// Parser dispatches documents to frontends by file extension.
type Parser struct {
	frontends map[string]Frontend
	opts      FoldOptions
}

// Option configures a Parser.
type Option func(*Parser)

// WithIncludeParagraphs retains plain paragraphs as content items.
func WithIncludeParagraphs(include bool) Option {
	return func(p *Parser) {
		p.opts.IncludeParagraphs = include
	}
}

// WithFrontend registers f for its extensions, replacing earlier registrations.
func WithFrontend(f Frontend) Option {
	return func(p *Parser) {
		p.register(f)
	}
}

// NewParser returns a Parser with the reStructuredText, Markdown and PDF frontends.
func NewParser(opts ...Option) *Parser {
	p := &Parser{frontends: make(map[string]Frontend)}
	p.register(RSTFrontend{})
	p.register(NewMarkdownFrontend())
	p.register(PDFFrontend{})
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Parser) register(f Frontend) {
	for _, ext := range f.Extensions() {
		p.frontends[strings.ToLower(ext)] = f
	}
}

// Supports reports whether a frontend is registered for path's extension.
func (p *Parser) Supports(path string) bool {
	_, ok := p.frontends[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions returns the registered extensions, sorted.
func (p *Parser) Extensions() []string {
	exts := make([]string, 0, len(p.frontends))
	for ext := range p.frontends {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Parse preprocesses src, runs the frontend for path and folds the result.
// Every failure is a ParseError carrying the path.
func (p *Parser) Parse(path string, src []byte) (*Document, error) {
	f, ok := p.frontends[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, amerrors.ParseError(path, fmt.Sprintf("no markup frontend for %q", filepath.Ext(path)), nil)
	}

	input := src
	if _, ok := f.(binaryFrontend); !ok {
		input = []byte(Preprocess(string(src)))
	}
	nodes, err := f.Nodes(input)
	if err != nil {
		return nil, amerrors.ParseError(path, fmt.Sprintf("%s: %v", path, err), err).
			WithDetail("frontend", f.Name())
	}

	return Fold(path, nodes, p.opts), nil
}
