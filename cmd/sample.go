package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sampleCmd = newSampleCmd()

func init() {
	rootCmd.AddCommand(sampleCmd)
}

func newSampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample <id>",
		Short: "Show a sample with its lineage and diffs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fuzzer, err := connect()
			if err != nil {
				return err
			}

			detail, err := fuzzer.Sample(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get sample: %w", err)
			}

			return newUI(cmd).DisplaySample(cmd.Context(), detail)
		},
	}
}
