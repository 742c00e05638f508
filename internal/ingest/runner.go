// Package ingest fills a collection from a source tree: files are scanned,
// parsed, chunked, embedded and written to the index one chunk at a time.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Aman-CERP/openmc-assist/internal/chunk"
	"github.com/Aman-CERP/openmc-assist/internal/config"
	"github.com/Aman-CERP/openmc-assist/internal/embed"
	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
	"github.com/Aman-CERP/openmc-assist/internal/markup"
	"github.com/Aman-CERP/openmc-assist/internal/retrieve"
	"github.com/Aman-CERP/openmc-assist/internal/scanner"
	"github.com/Aman-CERP/openmc-assist/internal/store"
	"github.com/Aman-CERP/openmc-assist/internal/ui"
)

// Kind selects how files under a root are read.
type Kind string

const (
	// KindDocs parses markup documents and chunks them by section.
	KindDocs Kind = "docs"
	// KindExamples reads example scripts as plain lines.
	KindExamples Kind = "examples"
)

// ParseKind converts a CLI argument to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(s)); k {
	case KindDocs, KindExamples:
		return k, nil
	default:
		return "", amerrors.ValidationError(fmt.Sprintf("unknown source kind %q, want docs or examples", s), nil)
	}
}

// Stats summarizes a run.
type Stats struct {
	RunID         string        `json:"run_id"`
	Files         int           `json:"files"`
	SkippedFiles  int           `json:"skipped_files"`
	Chunks        int           `json:"chunks"`
	Stored        int           `json:"stored"`
	SkippedChunks int           `json:"skipped_chunks"`
	Duration      time.Duration `json:"duration"`
}

// Dependencies are the collaborators of a Runner.
type Dependencies struct {
	// Config is required.
	Config *config.Config
	// Embedder is required.
	Embedder embed.Embedder
	// Index receives every record. Required.
	Index retrieve.VectorIndex
	// Renderer shows progress. Defaults to ui.Nop.
	Renderer ui.Renderer
	// Parser defaults to markup.NewParser honoring chunking.include_paragraphs.
	Parser *markup.Parser
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Runner executes ingestion runs.
type Runner struct {
	cfg      *config.Config
	embedder embed.Embedder
	index    retrieve.VectorIndex
	renderer ui.Renderer
	parser   *markup.Parser
	sections *chunk.SectionChunker
	lines    *chunk.LineChunker
	scanner  *scanner.Scanner
	logger   *slog.Logger
}

// NewRunner validates deps and creates a Runner.
func NewRunner(deps Dependencies) (*Runner, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if deps.Index == nil {
		return nil, fmt.Errorf("index is required")
	}

	r := &Runner{
		cfg:      deps.Config,
		embedder: deps.Embedder,
		index:    deps.Index,
		renderer: deps.Renderer,
		parser:   deps.Parser,
		sections: chunk.NewSectionChunker(deps.Config.Chunking.ChunkSize),
		lines:    chunk.NewLineChunker(deps.Config.Chunking.ChunkSize),
		logger:   deps.Logger,
	}
	if r.renderer == nil {
		r.renderer = ui.Nop{}
	}
	if r.parser == nil {
		r.parser = markup.NewParser(markup.WithIncludeParagraphs(deps.Config.Chunking.IncludeParagraphs))
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.scanner = scanner.New(r.logger)
	return r, nil
}

// Run ingests every matching file under root into the index. It holds the
// storage lock for its duration. Parse and embedding failures skip the
// file or chunk; store failures abort the run.
func (r *Runner) Run(ctx context.Context, kind Kind, root string) (*Stats, error) {
	lock, err := AcquireLock(r.cfg.LockPath())
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	start := time.Now()
	stats := &Stats{RunID: uuid.NewString()}
	r.logger.Info("ingest_started",
		slog.String("run_id", stats.RunID),
		slog.String("kind", string(kind)),
		slog.String("root", root),
		slog.String("collection", r.cfg.Store.Collection),
		slog.String("embedder", r.embedder.ModelName()))

	files, err := r.scan(ctx, kind, root)
	if err != nil {
		return nil, err
	}
	stats.Files = len(files)

	chunks := r.chunkFiles(ctx, kind, files, stats)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stats.Chunks = len(chunks)

	if err := r.store(ctx, chunks, stats); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(start)
	r.renderer.Complete(ui.CompletionStats{
		Collection: r.cfg.Store.Collection,
		Files:      stats.Files - stats.SkippedFiles,
		Chunks:     stats.Stored,
		Skipped:    stats.SkippedFiles + stats.SkippedChunks,
		Duration:   stats.Duration,
		Warnings:   stats.SkippedFiles + stats.SkippedChunks,
		Model:      r.embedder.ModelName(),
	})
	r.logger.Info("ingest_complete",
		slog.String("run_id", stats.RunID),
		slog.String("kind", string(kind)),
		slog.Int("files", stats.Files),
		slog.Int("skipped_files", stats.SkippedFiles),
		slog.Int("chunks", stats.Chunks),
		slog.Int("stored", stats.Stored),
		slog.Int("skipped_chunks", stats.SkippedChunks),
		slog.Int64("duration_ms", stats.Duration.Milliseconds()))

	return stats, nil
}

func (r *Runner) scan(ctx context.Context, kind Kind, root string) ([]*scanner.FileInfo, error) {
	r.renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageScanning,
		Message: fmt.Sprintf("Scanning %s...", root),
	})

	exts := r.cfg.Paths.DocExtensions
	if kind == KindExamples {
		exts = r.cfg.Paths.ExampleExtensions
	}

	files, err := r.scanner.Collect(ctx, &scanner.ScanOptions{
		RootDir:    root,
		MaxDepth:   r.cfg.Paths.MaxDepth,
		Extensions: exts,
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.logger.Debug("scan_complete", slog.String("root", root), slog.Int("files", len(files)))
	return files, nil
}

// chunkFiles parses and chunks each file in scan order. Files that cannot
// be read or parsed are skipped.
func (r *Runner) chunkFiles(ctx context.Context, kind Kind, files []*scanner.FileInfo, stats *Stats) []chunk.Chunk {
	var all []chunk.Chunk
	for i, f := range files {
		if ctx.Err() != nil {
			return all
		}
		r.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:       ui.StageParsing,
			Current:     i + 1,
			Total:       len(files),
			CurrentFile: f.RelPath,
		})

		chunks, err := r.chunkFile(kind, f)
		if err != nil {
			stats.SkippedFiles++
			r.skip(f.Path, err)
			continue
		}
		all = append(all, chunks...)
	}
	return all
}

func (r *Runner) chunkFile(kind Kind, f *scanner.FileInfo) ([]chunk.Chunk, error) {
	src, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, amerrors.ParseError(f.Path, "failed to read file", err)
	}
	title := markup.TitleFromPath(f.RelPath)

	if kind == KindExamples {
		return r.lines.ChunkSource(chunk.Source{
			Path:     f.Path,
			Document: title,
			Section:  r.cfg.Chunking.ExamplesSection,
			Text:     string(src),
		}), nil
	}

	doc, err := r.parser.Parse(f.Path, src)
	if err != nil {
		return nil, err
	}
	if doc.Title == "" {
		doc.Title = title
	}
	return r.sections.Chunk(doc), nil
}

// store embeds and writes each chunk. Only store failures and
// cancellation stop the loop.
func (r *Runner) store(ctx context.Context, chunks []chunk.Chunk, stats *Stats) error {
	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:       ui.StageEmbedding,
			Current:     i + 1,
			Total:       len(chunks),
			CurrentFile: c.Path,
		})

		vec, err := r.embedder.Embed(ctx, c.Text)
		if err == nil && len(vec) == 0 {
			err = amerrors.EmbeddingError("embedder returned an empty vector", nil)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !amerrors.IsEmbeddingError(err) {
				err = amerrors.EmbeddingError("failed to embed chunk", err)
			}
			stats.SkippedChunks++
			r.skip(c.ID(), err)
			continue
		}

		rec := store.Record{
			ID:     c.ID(),
			Vector: vec,
			Metadata: store.Metadata{
				FilePath: c.Path,
				Section:  c.Section,
				Document: c.Document,
				Chunk:    c.Text,
			},
		}
		if err := r.index.Put(ctx, rec); err != nil {
			r.renderer.AddError(ui.ErrorEvent{File: c.ID(), Err: err})
			if !amerrors.IsStoreError(err) && amerrors.GetCode(err) == "" {
				err = amerrors.StoreError("failed to store chunk", err)
			}
			return err
		}
		stats.Stored++
	}
	return nil
}

func (r *Runner) skip(what string, err error) {
	r.renderer.AddError(ui.ErrorEvent{File: what, Err: err, IsWarn: true})
	attrs := append([]any{slog.String("item", what)}, amerrors.LogAttrs(err)...)
	r.logger.Warn("ingest_skipped", attrs...)
}
