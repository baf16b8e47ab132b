package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sloth.dev/pkg/sloth/internal/adapter"
	"sloth.dev/pkg/sloth/internal/domain"
	"sloth.dev/pkg/sloth/internal/domain/mutagens"
	m "sloth.dev/pkg/sloth/internal/model"
	"sloth.dev/pkg/sloth/internal/server"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = newServeCmd()

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the fuzzing engine and its HTTP control surface",
		Long: `Load the corpora, build the engine and serve the control API and
Prometheus metrics until interrupted. The loop waits for "sloth start" unless
--autostart is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cmd)
		},
	}

	configureServeFlags(cmd)

	return cmd
}

func configureServeFlags(cmd *cobra.Command) {
	configureCorpusFlags(cmd)

	cmd.Flags().IntP(parallelFlagName, "p", viper.GetInt(parallelKey), "number of corpus seeds scored concurrently")
	bindFlagOnRun(cmd, parallelFlagName, parallelKey)

	cmd.Flags().Int64(seedFlagName, viper.GetInt64(seedKey), "random seed of the generational loop")
	bindFlagOnRun(cmd, seedFlagName, seedKey)

	cmd.Flags().Int(targetSizeFlagName, viper.GetInt(targetSizeKey), "population size kept after filtering")
	bindFlagOnRun(cmd, targetSizeFlagName, targetSizeKey)

	cmd.Flags().String(backendFlagName, viper.GetString(checkpointBackendKey), "checkpoint backend: file, sqlite or memory")
	bindFlagOnRun(cmd, backendFlagName, checkpointBackendKey)

	cmd.Flags().String(checkpointFlagName, viper.GetString(checkpointPathKey), "checkpoint location")
	bindFlagOnRun(cmd, checkpointFlagName, checkpointPathKey)

	cmd.Flags().Bool(autostartFlagName, viper.GetBool(serverAutostartKey), "start the loop as soon as the server is up")
	bindFlagOnRun(cmd, autostartFlagName, serverAutostartKey)
}

func configureCorpusFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP(corpusFlagName, "c", viper.GetStringSlice(corpusPathsKey), "corpus directory (can be repeated)")
	bindFlagOnRun(cmd, corpusFlagName, corpusPathsKey)

	cmd.Flags().String(manifestFlagName, viper.GetString(corpusManifestKey), "yaml manifest listing corpora")
	bindFlagOnRun(cmd, manifestFlagName, corpusManifestKey)

	cmd.Flags().StringArrayP(excludeFlagName, "x", viper.GetStringSlice(corpusExcludeKey), "exclude seed files matching regex (can be repeated)")
	bindFlagOnRun(cmd, excludeFlagName, corpusExcludeKey)
}

func serve(ctx context.Context, cmd *cobra.Command) error {
	engine, store, err := buildEngine(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err := adapter.CloseCheckpointStore(store); err != nil {
			slog.Warn("Failed to close checkpoint store", "error", err)
		}
	}()

	addr := viper.GetString(serverAddrKey)

	srv, err := server.NewHTTPServer(addr, engine)
	if err != nil {
		return err
	}

	if viper.GetBool(serverAutostartKey) {
		if err := engine.Start(ctx); err != nil {
			return fmt.Errorf("failed to start engine: %w", err)
		}
	}

	ui := newUI(cmd)
	ui.DisplayMessage(ctx, "Serving on %s", addr)

	serveErr := srv.Serve(ctx)

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := engine.Stop(stopCtx); err != nil && !errors.Is(err, domain.ErrNotRunning) {
		slog.Error("Failed to stop engine", "error", err)
	}

	slog.Info("Server stopped", "addr", addr)

	return serveErr
}

// buildEngine wires compiler, fitness, corpora, mutations and the checkpoint
// store from configuration.
func buildEngine(ctx context.Context) (*domain.Engine, adapter.CheckpointStore, error) {
	compiler := adapter.NewLocalGoCompilerAdapter(viper.GetString(compilerGoKey), viper.GetDuration(compilerTimeoutKey))

	fitness, err := domain.NewCompileTimeFitness(compiler, viper.GetString(analyzeMarkerKey), viper.GetString(generateMarkerKey))
	if err != nil {
		return nil, nil, err
	}

	corpora, err := buildCorpora()
	if err != nil {
		return nil, nil, err
	}

	registry, err := mutagens.NewDefaultRegistry(viper.GetStringSlice(mutationEnabledKey), mutagens.Options{
		SubtreeLambda:     viper.GetFloat64(subtreeLambdaKey),
		EscapeProbability: viper.GetFloat64(escapeProbabilityKey),
		RepairAll:         viper.GetBool(repairAllKey),
	})
	if err != nil {
		return nil, nil, err
	}

	store, err := adapter.NewCheckpointStore(ctx, viper.GetString(checkpointBackendKey), viper.GetString(checkpointPathKey))
	if err != nil {
		return nil, nil, err
	}

	engine, err := domain.NewEngine(engineConfig(), domain.AllCorpuses(corpora...), fitness, registry.Mutations(), store)
	if err != nil {
		_ = adapter.CloseCheckpointStore(store)
		return nil, nil, err
	}

	slog.Info("Engine ready",
		"corpora", len(corpora),
		"mutations", registry.Names(),
		"checkpoint", viper.GetString(checkpointBackendKey),
	)

	return engine, store, nil
}

func buildCorpora() ([]domain.Corpus, error) {
	return domain.BuildCorpora(domain.CorpusOptions{
		Paths:    viper.GetStringSlice(corpusPathsKey),
		Manifest: viper.GetString(corpusManifestKey),
		Exclude:  viper.GetStringSlice(corpusExcludeKey),
	}, fsAdapter, goFileAdapter)
}

func engineConfig() domain.EngineConfig {
	return domain.EngineConfig{
		TargetSize:         viper.GetInt(targetSizeKey),
		Overgrow:           viper.GetInt(overgrowKey),
		Repeat:             viper.GetInt(repeatKey),
		Seed:               viper.GetInt64(seedKey),
		Parallel:           viper.GetInt(parallelKey),
		Kernel:             m.GaussianKernel(viper.GetFloat64(kernelCenterKey), viper.GetFloat64(kernelWidthKey)),
		RankOffspring:      viper.GetInt(rankOffspringKey),
		RankLambda:         viper.GetFloat64(rankLambdaKey),
		CheckpointInterval: viper.GetInt(checkpointEveryKey),
	}
}
