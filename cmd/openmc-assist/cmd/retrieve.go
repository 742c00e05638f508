package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/openmc-assist/internal/output"
	"github.com/Aman-CERP/openmc-assist/internal/retrieve"
)

func newRetrieveCmd(root *rootOptions) *cobra.Command {
	var (
		topK       int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "retrieve <query>",
		Short: "Show the documentation passages most similar to a query",
		Long: `Retrieve embeds the query and ranks every stored chunk by cosine
similarity. No answer is generated, which makes it handy for checking what
the assistant would see for a question.`,
		Example: `  openmc-assist retrieve "tally filters"
  openmc-assist retrieve "cross section library" --top-k 10 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if topK <= 0 {
				topK = cfg.Retrieval.TopK
			}

			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			r := retrieve.New(a.embedder, retrieve.WithLogger(a.logger))
			results, err := r.Retrieve(cmd.Context(), query, a.index, topK)
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if jsonOutput {
				if results == nil {
					results = []retrieve.Result{}
				}
				return out.JSON(results)
			}
			out.Results(results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of passages to return (default from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	return cmd
}
