package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/openmc-assist/internal/answer"
	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
	"github.com/Aman-CERP/openmc-assist/internal/llm"
	"github.com/Aman-CERP/openmc-assist/internal/output"
	"github.com/Aman-CERP/openmc-assist/internal/prompt"
	"github.com/Aman-CERP/openmc-assist/internal/retrieve"
)

// askResult is the --json shape of an answer.
type askResult struct {
	Answer  string            `json:"answer"`
	Sources []retrieve.Result `json:"sources"`
}

func newAskCmd(root *rootOptions) *cobra.Command {
	var (
		historyFile string
		topK        int
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Answer a question about OpenMC from the ingested documentation",
		Long: `Ask retrieves the most relevant passages, builds a prompt from them and
the recent conversation, and sends it to the configured language model.

The optional history file is a JSON array of turns, oldest first:

  [{"role": "user", "content": "..."}, {"role": "assistant", "content": "..."}]

Only the last retrieval.history_turns turns are used.`,
		Example: `  openmc-assist ask "How do I run a k-eigenvalue calculation?"
  openmc-assist ask "And in fixed source mode?" --history chat.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			history, err := readHistory(historyFile)
			if err != nil {
				return err
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if topK > 0 {
				cfg.Retrieval.TopK = topK
			}

			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			gen, err := llm.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = gen.Close() }()

			orch := answer.New(
				retrieve.New(a.embedder, retrieve.WithLogger(a.logger)),
				prompt.NewBuilder(cfg.Retrieval.HistoryTurns),
				gen,
				answer.WithTopK(cfg.Retrieval.TopK),
				answer.WithLogger(a.logger),
			)
			resp, err := orch.Respond(cmd.Context(), query, a.index, history)
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if jsonOutput {
				sources := resp.Sources
				if sources == nil {
					sources = []retrieve.Result{}
				}
				return out.JSON(askResult{Answer: resp.Answer, Sources: sources})
			}
			out.Answer(resp.Answer, resp.Sources)
			return nil
		},
	}

	cmd.Flags().StringVar(&historyFile, "history", "", "JSON file with earlier conversation turns")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of passages to include (default from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the answer and sources as JSON")

	return cmd
}

// readHistory loads conversation turns from path. An empty path means no history.
func readHistory(path string) ([]prompt.Turn, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, amerrors.New(amerrors.ErrCodeFileNotFound, fmt.Sprintf("cannot read history file: %s", path), err)
	}
	var turns []prompt.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, amerrors.ValidationError(fmt.Sprintf("invalid history file: %s", path), err).
			WithSuggestion(`Use a JSON array such as [{"role": "user", "content": "..."}]`)
	}
	for i, t := range turns {
		if !strings.EqualFold(t.Role, prompt.RoleUser) && !strings.EqualFold(t.Role, prompt.RoleAssistant) {
			return nil, amerrors.ValidationError(
				fmt.Sprintf("history turn %d has role %q (want %q or %q)", i, t.Role, prompt.RoleUser, prompt.RoleAssistant), nil)
		}
	}
	return turns, nil
}
