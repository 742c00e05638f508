package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
	"github.com/Aman-CERP/openmc-assist/internal/ingest"
	"github.com/Aman-CERP/openmc-assist/internal/output"
	"github.com/Aman-CERP/openmc-assist/internal/ui"
)

func newIngestCmd(root *rootOptions) *cobra.Command {
	var (
		chunkSize  int
		collection string
		plain      bool
		noColor    bool
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [docs|examples] [dir]",
		Short: "Parse, chunk and embed documentation into the store",
		Long: `Ingest walks a source tree (at most two levels deep), splits every file
into chunks and stores one embedding per chunk.

  docs      reStructuredText/Markdown documentation, chunked by section
  examples  Python example scripts, chunked by line

When dir is omitted the paths.docs or paths.examples setting is used.
Files that fail to parse and chunks that fail to embed are reported and
skipped. Re-running an ingestion overwrites records with the same ID.

With --watch the tree is ingested once and then re-ingested whenever a
matching file changes, until interrupted. Watch mode always uses plain
progress output.`,
		Example: `  openmc-assist ingest docs ./docs/source
  openmc-assist ingest examples ./examples --collection openmc_examples
  openmc-assist ingest --plain
  openmc-assist ingest docs --watch`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := ingest.KindDocs
			if len(args) > 0 {
				k, err := ingest.ParseKind(args[0])
				if err != nil {
					return err
				}
				kind = k
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if chunkSize > 0 {
				cfg.Chunking.ChunkSize = chunkSize
			}
			if collection != "" {
				cfg.Store.Collection = collection
			}

			dir := cfg.Paths.Docs
			if kind == ingest.KindExamples {
				dir = cfg.Paths.Examples
			}
			if len(args) > 1 {
				dir = args[1]
			}
			if dir == "" {
				return amerrors.ValidationError(fmt.Sprintf("no %s directory given", kind), nil).
					WithSuggestion(fmt.Sprintf("Pass a directory or set paths.%s in .openmc-assist.yaml", kind))
			}
			if abs, err := filepath.Abs(dir); err == nil {
				dir = abs
			}
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return amerrors.New(amerrors.ErrCodeFileNotFound, fmt.Sprintf("directory not found: %s", dir), err)
			}

			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
				ui.WithForcePlain(plain || watch),
				ui.WithNoColor(noColor || ui.DetectNoColor()),
				ui.WithTitle(dir),
			))
			if err := renderer.Start(cmd.Context()); err != nil {
				return err
			}

			runner, err := ingest.NewRunner(ingest.Dependencies{
				Config:   cfg,
				Embedder: a.embedder,
				Index:    a.index,
				Renderer: renderer,
				Logger:   a.logger,
			})
			if err != nil {
				_ = renderer.Stop()
				return err
			}

			stats, runErr := runner.Run(cmd.Context(), kind, dir)
			if err := renderer.Stop(); err != nil && runErr == nil {
				runErr = err
			}
			if runErr != nil {
				return runErr
			}

			if stats.Stored == 0 && stats.Files > 0 {
				output.New(cmd.ErrOrStderr()).Warning("No chunks were stored; check the warnings above")
			}
			if !watch {
				return nil
			}

			out := output.New(cmd.OutOrStdout())
			out.Statusf("👀", "Watching %s for changes (Ctrl+C to stop)", dir)
			w := ingest.NewWatcher(runner, kind, dir, ingest.OnRun(func(_ *ingest.Stats, err error) {
				if err != nil {
					out.Warning(strings.TrimSpace(amerrors.FormatForCLI(err)))
				}
			}))
			return w.Watch(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Soft chunk size bound in characters (default from config)")
	cmd.Flags().StringVar(&collection, "collection", "", "Collection to ingest into (default from config)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Force plain text progress output")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and re-ingest when files change")

	return cmd
}
