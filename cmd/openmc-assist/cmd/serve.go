package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/openmc-assist/internal/llm"
	"github.com/Aman-CERP/openmc-assist/internal/logging"
	"github.com/Aman-CERP/openmc-assist/internal/mcp"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Serve exposes the assistant to MCP clients with three tools:

  ask                answer a question, optionally continuing a conversation
  retrieve           return the most similar passages only
  collection_status  report what has been ingested

Stdout carries the protocol, so logs go to ~/.openmc-assist/logs/ instead.
If the language model cannot be configured (for example a missing API key)
the server still starts and only ask reports an error.`,
		Example: `  openmc-assist serve
  openmc-assist serve --config-dir ~/openmc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if transport == "" {
				transport = cfg.Server.Transport
			}

			level := cfg.Server.LogLevel
			if root.debug {
				level = "debug"
			}
			logger, cleanup, err := logging.Setup(logging.ServeConfig(level))
			if err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}
			defer cleanup()
			slog.SetDefault(logger)

			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			a.logger = logger

			gen, err := llm.New(cmd.Context(), cfg)
			if err != nil {
				logger.Warn("generator unavailable, ask tool disabled", slog.String("error", err.Error()))
				gen = nil
			} else {
				defer func() { _ = gen.Close() }()
			}

			srv, err := mcp.NewServer(mcp.Dependencies{
				Config:    cfg,
				Store:     a.store,
				Index:     a.index,
				Embedder:  a.embedder,
				Generator: gen,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			return srv.Serve(cmd.Context(), transport)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "Transport to serve on (default from config: stdio)")

	return cmd
}
