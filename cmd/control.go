package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"sloth.dev/pkg/sloth/internal/domain"
)

var statCmd = newStatCmd()
var startCmd = newStartCmd()
var stopCmd = newStopCmd()
var pauseCmd = newPauseCmd()

func init() {
	rootCmd.AddCommand(statCmd, startCmd, stopCmd, pauseCmd)
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat",
		Short: "Show statistics of the current run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fuzzer, err := connect()
			if err != nil {
				return err
			}

			stat, err := fuzzer.Stat(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get statistics: %w", err)
			}

			return newUI(cmd).DisplayStat(cmd.Context(), stat)
		},
	}
}

func newStartCmd() *cobra.Command {
	return newControlCmd("start", "Start the generational loop", "start", domain.Fuzzer.Start)
}

func newStopCmd() *cobra.Command {
	return newControlCmd("stop", "Stop the generational loop", "stop", domain.Fuzzer.Stop)
}

func newPauseCmd() *cobra.Command {
	return newControlCmd("pause", "Pause the loop, or resume it when paused", "toggle pause", domain.Fuzzer.TogglePause)
}

func newControlCmd(use, short, action string, op func(domain.Fuzzer, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fuzzer, err := connect()
			if err != nil {
				return err
			}

			if err := op(fuzzer, cmd.Context()); err != nil {
				return fmt.Errorf("failed to %s: %w", action, err)
			}

			stat, err := fuzzer.Stat(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get statistics: %w", err)
			}

			newUI(cmd).DisplayMessage(cmd.Context(), "State: %s (%s)", stat.RunState, stat.Phase)

			return nil
		},
	}
}
