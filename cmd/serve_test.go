package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sloth.dev/pkg/sloth/internal/adapter"
	"sloth.dev/pkg/sloth/internal/domain"
)

func writeSeedDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() { println(1) }\n"), 0o644))

	return dir
}

func TestEngineConfig(t *testing.T) {
	resetServeFlags(t)

	t.Setenv("SLOTH_RUN_TARGET_SIZE", "40")
	t.Setenv("SLOTH_RUN_OVERGROW", "4")
	t.Setenv("SLOTH_RUN_REPEAT", "2")
	t.Setenv("SLOTH_RUN_SEED", "7")
	t.Setenv("SLOTH_RUN_RANK_OFFSPRING", "3")
	t.Setenv("SLOTH_CHECKPOINT_INTERVAL", "10")
	t.Setenv("SLOTH_KERNEL_CENTER", "100")

	cfg := engineConfig()

	assert.Equal(t, 40, cfg.TargetSize)
	assert.Equal(t, 4, cfg.Overgrow)
	assert.Equal(t, 2, cfg.Repeat)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 3, cfg.RankOffspring)
	assert.Equal(t, 10, cfg.CheckpointInterval)
	assert.Contains(t, cfg.Kernel.Name, "center=100")
	assert.Greater(t, cfg.Kernel.Weight(100), cfg.Kernel.Weight(5000))
}

func TestEngineConfig_Defaults(t *testing.T) {
	resetServeFlags(t)

	cfg := engineConfig()

	assert.Equal(t, domain.DefaultTargetSize, cfg.TargetSize)
	assert.Equal(t, domain.DefaultOvergrow, cfg.Overgrow)
	assert.Equal(t, domain.DefaultRepeat, cfg.Repeat)
	assert.Equal(t, int64(domain.DefaultSeed), cfg.Seed)
	assert.Equal(t, 0, cfg.CheckpointInterval)
}

func TestBuildEngine(t *testing.T) {
	resetServeFlags(t)

	t.Setenv("SLOTH_CORPUS_PATHS", writeSeedDir(t))
	t.Setenv("SLOTH_CHECKPOINT_BACKEND", adapter.BackendMemory)

	engine, store, err := buildEngine(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { _ = adapter.CloseCheckpointStore(store) })

	assert.IsType(t, &adapter.MemoryCheckpointStore{}, store)
	assert.Equal(t, domain.DefaultTargetSize, engine.Config().TargetSize)
}

func TestBuildEngine_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "unknown mutation",
			env:  map[string]string{"SLOTH_MUTATION_ENABLED": "crossover"},
			want: "unsupported mutation",
		},
		{
			name: "unknown backend",
			env:  map[string]string{"SLOTH_CHECKPOINT_BACKEND": "redis"},
			want: "redis",
		},
		{
			name: "marker without group",
			env:  map[string]string{"SLOTH_COMPILER_ANALYZE_MARKER": "analysis"},
			want: "analysis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetServeFlags(t)
			t.Setenv("SLOTH_CORPUS_PATHS", writeSeedDir(t))

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, _, err := buildEngine(context.Background())
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestBuildEngine_NoCorpus(t *testing.T) {
	resetServeFlags(t)

	_, _, err := buildEngine(context.Background())
	require.ErrorIs(t, err, domain.ErrNoCorpus)
}

func TestServeCmd_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd, out := newTestRoot(t, newServeCmd())
	cmd.SetArgs([]string{
		"serve",
		"--addr", "127.0.0.1:0",
		"--backend", adapter.BackendMemory,
		"-c", writeSeedDir(t),
	})

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Contains(t, out.String(), "Serving on 127.0.0.1:0")
}
