// Package cmd provides the CLI commands for openmc-assist.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
	"github.com/Aman-CERP/openmc-assist/internal/logging"
	"github.com/Aman-CERP/openmc-assist/pkg/version"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	debug     bool
	configDir string
	cleanup   func()
}

// NewRootCmd creates the root command for the openmc-assist CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "openmc-assist",
		Short: "Documentation assistant for the OpenMC Monte Carlo code",
		Long: `openmc-assist answers questions about OpenMC from its own documentation.

Ingest the reStructuredText docs (and optionally the Python examples) once,
then ask questions from the terminal or from any MCP client via 'serve'.`,
		Example: `  openmc-assist ingest docs ~/openmc/docs/source
  openmc-assist ingest examples ~/openmc/examples
  openmc-assist ask "How do I define a hexagonal lattice?"`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: opts.setupLogging,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if opts.cleanup != nil {
				opts.cleanup()
				opts.cleanup = nil
			}
			return nil
		},
	}
	cmd.SetVersionTemplate("openmc-assist version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging to ~/.openmc-assist/logs/")
	cmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", ".", "Project directory holding .openmc-assist.yaml")

	cmd.AddCommand(newIngestCmd(opts))
	cmd.AddCommand(newRetrieveCmd(opts))
	cmd.AddCommand(newAskCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupLogging installs the default logger. Without --debug only warnings
// reach stderr; serve replaces this with file logging.
func (o *rootOptions) setupLogging(*cobra.Command, []string) error {
	cfg := logging.DefaultConfig()
	cfg.Level = "warn"
	if o.debug {
		cfg = logging.DebugConfig()
	}

	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	o.cleanup = cleanup
	slog.SetDefault(logger)
	if o.debug {
		slog.Debug("debug logging enabled", slog.String("log_file", cfg.FilePath))
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx and prints failures.
func ExecuteContext(ctx context.Context) error {
	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprint(root.ErrOrStderr(), amerrors.FormatForCLI(err))
	}
	return err
}
