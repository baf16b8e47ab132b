package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"sloth.dev/pkg/sloth/internal/domain"
)

const manifestFileName = "corpus.yaml"

// defaultSeedExclude keeps test files out of scaffolded corpora.
const defaultSeedExclude = `_test\.go$`

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [corpus-dir...]",
		Short: "Generate a default sloth.yaml configuration file",
		Long: `Create a sloth.yaml in the current working directory populated with the
current CLI defaults so it can be edited manually.

When corpus directories are given, a corpus.yaml manifest listing them is
written as well and sloth.yaml points at it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := viper.New()
			if err := cfg.MergeConfigMap(viper.AllSettings()); err != nil {
				return fmt.Errorf("failed to collect settings: %w", err)
			}

			if len(args) > 0 {
				manifestPath := filepath.Join(configFolderPath, manifestFileName)
				if err := writeManifest(manifestPath, args); err != nil {
					return err
				}

				cfg.Set(corpusManifestKey, manifestFileName)
				cmd.Printf("Wrote %s with %d corpora\n", manifestPath, len(args))
			}

			targetPath := filepath.Join(configFolderPath, configFileName)

			if err := cfg.SafeWriteConfigAs(targetPath); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cmd.Printf("Wrote %s\n", targetPath)

			return nil
		},
	}
}

func writeManifest(path string, dirs []string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("corpus manifest %s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check corpus manifest: %w", err)
	}

	manifest := domain.CorpusManifest{Corpora: make([]domain.CorpusEntry, 0, len(dirs))}
	seen := make(map[string]struct{}, len(dirs))

	for _, dir := range dirs {
		dir = filepath.ToSlash(filepath.Clean(strings.TrimSpace(dir)))
		name := filepath.Base(dir)

		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate corpus name %q", name)
		}

		seen[name] = struct{}{}

		manifest.Corpora = append(manifest.Corpora, domain.CorpusEntry{
			Name:    name,
			Path:    dir,
			Exclude: []string{defaultSeedExclude},
		})
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to encode corpus manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write corpus manifest: %w", err)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
