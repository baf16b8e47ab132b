package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	m "sloth.dev/pkg/sloth/internal/model"
)

var generationCmd = newGenerationCmd()

func init() {
	rootCmd.AddCommand(generationCmd)
}

type pageFlags struct {
	offset  int
	count   int
	sortBy  string
	mutated bool
}

func (f *pageFlags) register(cmd *cobra.Command, defaultCount int) {
	cmd.Flags().IntVarP(&f.count, "count", "n", defaultCount, "number of samples to show")
	cmd.Flags().StringVarP(&f.sortBy, "sort", "s", string(m.SortByScore), fmt.Sprintf("sort order, one of %v", m.SortOrders))
	cmd.Flags().BoolVarP(&f.mutated, "mutated", "m", false, "only show generated samples")
}

func newGenerationCmd() *cobra.Command {
	flags := &pageFlags{}

	cmd := &cobra.Command{
		Use:   "generation",
		Short: "List samples of the current generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sortBy, err := m.ParseSortOrder(flags.sortBy)
			if err != nil {
				return err
			}

			fuzzer, err := connect()
			if err != nil {
				return err
			}

			snippets, err := fuzzer.Generation(cmd.Context(), flags.offset, flags.count, sortBy, flags.mutated)
			if err != nil {
				return fmt.Errorf("failed to list generation: %w", err)
			}

			return newUI(cmd).DisplayGeneration(cmd.Context(), snippets, flags.offset)
		},
	}

	flags.register(cmd, 20)
	cmd.Flags().IntVar(&flags.offset, "offset", 0, "skip the first N samples")

	return cmd
}
