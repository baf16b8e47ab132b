package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"sloth.dev/pkg/sloth/internal/controller"
	m "sloth.dev/pkg/sloth/internal/model"
)

var watchCmd = newWatchCmd()

func init() {
	rootCmd.AddCommand(watchCmd)
}

func newWatchCmd() *cobra.Command {
	flags := &pageFlags{}

	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the run in an interactive view",
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

			return controller.NewTUI(cmd.OutOrStdout()).Watch(cmd.Context(), fuzzer, controller.WatchOptions{
				Interval:    interval,
				PageSize:    flags.count,
				SortBy:      sortBy,
				OnlyMutated: flags.mutated,
			})
		},
	}

	flags.register(cmd, 20)
	cmd.Flags().DurationVarP(&interval, "interval", "i", controller.DefaultRefreshInterval, "refresh interval")

	return cmd
}
