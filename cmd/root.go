// Package cmd provides the root command and CLI setup for sloth.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"sloth.dev/pkg/sloth/internal/adapter"
	"sloth.dev/pkg/sloth/internal/controller"
	"sloth.dev/pkg/sloth/internal/domain"
	"sloth.dev/pkg/sloth/internal/server"
)

var goFileAdapter adapter.GoFileAdapter
var fsAdapter adapter.SourceFSAdapter

// connect returns the fuzzer the client commands talk to.
var connect = func() (domain.Fuzzer, error) {
	return server.NewClient(viper.GetString(serverAddrKey), viper.GetDuration(serverTimeoutKey))
}

// newUI returns the output adapter for cmd.
var newUI = func(cmd *cobra.Command) controller.UI {
	return controller.NewSimpleUI(cmd)
}

var addrFlag string
var verboseFlag bool

func init() {
	configureRootFlags(rootCmd)

	goFileAdapter = adapter.NewLocalGoFileAdapter()
	fsAdapter = adapter.NewLocalSourceFSAdapter()
}

const rootLongDescription = `Sloth is a fuzzer for the Go toolchain. It evolves a population of Go
programs with syntax-tree mutations and keeps the ones that take the compiler
longest to analyze and build.

Run "sloth serve" to start the engine and its HTTP control surface, then use
the stat, start, stop, pause, generation, sample and watch commands against it.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "sloth",
		Short:         "Fuzz the Go compiler for slow compilation",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&addrFlag, addrFlagName, "a", viper.GetString(serverAddrKey), "address of the sloth server")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(addrFlagName), serverAddrKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// bindFlagOnRun binds a local flag to key when cmd runs. Commands sharing a
// key each feed it from their own flag.
func bindFlagOnRun(cmd *cobra.Command, flagName, key string) {
	if cmd.Flags().Lookup(flagName) == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	prev := cmd.PreRunE
	cmd.PreRunE = func(c *cobra.Command, args []string) error {
		if prev != nil {
			if err := prev(c, args); err != nil {
				return err
			}
		}

		return viper.BindPFlag(key, c.Flags().Lookup(flagName))
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
