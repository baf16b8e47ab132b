package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"sloth.dev/pkg/sloth/internal/adapter"
	"sloth.dev/pkg/sloth/internal/domain"
	"sloth.dev/pkg/sloth/internal/domain/choosers"
	"sloth.dev/pkg/sloth/internal/domain/mutagens"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "sloth"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	envPrefix = "SLOTH"

	addrFlagName       = "addr"
	verboseFlagName    = "verbose"
	parallelFlagName   = "parallel"
	seedFlagName       = "seed"
	targetSizeFlagName = "target-size"
	corpusFlagName     = "corpus"
	manifestFlagName   = "manifest"
	excludeFlagName    = "exclude"
	backendFlagName    = "backend"
	checkpointFlagName = "checkpoint"
	autostartFlagName  = "autostart"

	targetSizeKey        = "run.target_size"
	overgrowKey          = "run.overgrow"
	repeatKey            = "run.repeat"
	seedKey              = "run.seed"
	parallelKey          = "run.parallel"
	rankLambdaKey        = "run.rank_lambda"
	rankOffspringKey     = "run.rank_offspring"
	subtreeLambdaKey     = "chooser.subtree_lambda"
	escapeProbabilityKey = "chooser.escape_probability"
	kernelCenterKey      = "kernel.center"
	kernelWidthKey       = "kernel.width"
	mutationEnabledKey   = "mutation.enabled"
	repairAllKey         = "mutation.replace.repair_all"
	compilerGoKey        = "compiler.go"
	compilerTimeoutKey   = "compiler.timeout"
	analyzeMarkerKey     = "compiler.analyze_marker"
	generateMarkerKey    = "compiler.generate_marker"
	corpusPathsKey       = "corpus.paths"
	corpusManifestKey    = "corpus.manifest"
	corpusExcludeKey     = "corpus.exclude"
	checkpointBackendKey = "checkpoint.backend"
	checkpointPathKey    = "checkpoint.path"
	checkpointEveryKey   = "checkpoint.interval"
	serverAddrKey        = "server.addr"
	serverAutostartKey   = "server.autostart"
	serverTimeoutKey     = "server.timeout"

	defaultKernelCenter      = 0.0
	defaultKernelWidth       = 1000.0
	defaultCompilerGo        = "go"
	defaultCompilerTimeout   = 30 * time.Second
	defaultCheckpointBackend = adapter.BackendFile
	defaultCheckpointPath    = ".sloth/checkpoint.gob"
	defaultServerAddr        = "127.0.0.1:8080"
	defaultServerTimeout     = 30 * time.Second

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".sloth.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

func setDefaults() {
	viper.SetDefault(configVersionKey, currentConfigVersion)

	viper.SetDefault(targetSizeKey, domain.DefaultTargetSize)
	viper.SetDefault(overgrowKey, domain.DefaultOvergrow)
	viper.SetDefault(repeatKey, domain.DefaultRepeat)
	viper.SetDefault(seedKey, domain.DefaultSeed)
	viper.SetDefault(parallelKey, 1)
	viper.SetDefault(rankLambdaKey, choosers.DefaultIndexLambda)
	viper.SetDefault(rankOffspringKey, 0)

	viper.SetDefault(subtreeLambdaKey, choosers.DefaultSubtreeLambda)
	viper.SetDefault(escapeProbabilityKey, choosers.DefaultEscapeProbability)
	viper.SetDefault(kernelCenterKey, defaultKernelCenter)
	viper.SetDefault(kernelWidthKey, defaultKernelWidth)
	viper.SetDefault(mutationEnabledKey, []string{mutagens.ReplaceName, mutagens.AddName})
	viper.SetDefault(repairAllKey, false)

	viper.SetDefault(compilerGoKey, defaultCompilerGo)
	viper.SetDefault(compilerTimeoutKey, defaultCompilerTimeout)
	viper.SetDefault(analyzeMarkerKey, domain.DefaultAnalyzeMarker)
	viper.SetDefault(generateMarkerKey, domain.DefaultGenerateMarker)

	viper.SetDefault(corpusPathsKey, []string{})
	viper.SetDefault(corpusManifestKey, "")
	viper.SetDefault(corpusExcludeKey, []string{})

	viper.SetDefault(checkpointBackendKey, defaultCheckpointBackend)
	viper.SetDefault(checkpointPathKey, defaultCheckpointPath)
	viper.SetDefault(checkpointEveryKey, 0)

	viper.SetDefault(serverAddrKey, defaultServerAddr)
	viper.SetDefault(serverAutostartKey, false)
	viper.SetDefault(serverTimeoutKey, defaultServerTimeout)

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// numeric slog levels, e.g. -4 for debug
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at the configured level; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
