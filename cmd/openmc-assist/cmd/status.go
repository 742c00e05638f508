package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/openmc-assist/internal/output"
	"github.com/Aman-CERP/openmc-assist/internal/store"
)

// statusReport is the --json shape of the status command.
type statusReport struct {
	StorePath   string                 `json:"store_path"`
	Collection  string                 `json:"collection"`
	Index       string                 `json:"index"`
	Embedder    string                 `json:"embedder"`
	Collections []store.CollectionInfo `json:"collections"`
}

func newStatusCmd(root *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the collections in the embedding store",
		Long:  `Status lists every collection in the store with its record count and vector dimensions.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			infos, err := a.store.Collections(cmd.Context())
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if jsonOutput {
				if infos == nil {
					infos = []store.CollectionInfo{}
				}
				return out.JSON(statusReport{
					StorePath:   cfg.Store.Path,
					Collection:  cfg.Store.Collection,
					Index:       cfg.Store.Index,
					Embedder:    a.embedder.ModelName(),
					Collections: infos,
				})
			}
			out.Collections(cfg.Store.Path, infos)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")

	return cmd
}
