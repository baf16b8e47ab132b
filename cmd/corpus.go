package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sloth.dev/pkg/sloth/internal/domain"
)

var corpusCmd = newCorpusCmd()

func init() {
	rootCmd.AddCommand(corpusCmd)
}

func newCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "List the configured corpora and their seeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			corpora, err := buildCorpora()
			if err != nil {
				return err
			}

			summaries := make([]domain.CorpusSummary, 0, len(corpora))

			for _, c := range corpora {
				summary, err := domain.SummarizeCorpus(cmd.Context(), c, goFileAdapter)
				if err != nil {
					return fmt.Errorf("failed to load corpus %s: %w", c.Name(), err)
				}

				summaries = append(summaries, summary)
			}

			return newUI(cmd).DisplayCorpus(cmd.Context(), summaries)
		},
	}

	configureCorpusFlags(cmd)

	return cmd
}
