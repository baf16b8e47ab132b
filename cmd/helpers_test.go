package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"sloth.dev/pkg/sloth/internal/domain"
)

// newTestRoot builds a fresh root with sub attached and logging sent to a
// temp file.
func newTestRoot(t *testing.T, sub ...*cobra.Command) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	t.Setenv("SLOTH_LOG_FILENAME", filepath.Join(t.TempDir(), "sloth.log"))

	cmd := newRootCmd()
	configureRootFlags(cmd)
	cmd.AddCommand(sub...)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	return cmd, out
}

func withFuzzer(t *testing.T, fuzzer domain.Fuzzer) {
	t.Helper()

	original := connect
	connect = func() (domain.Fuzzer, error) { return fuzzer, nil }

	t.Cleanup(func() { connect = original })
}

// resetServeFlags binds the serve and corpus keys to fresh, unchanged flags
// so earlier command runs do not leak into direct viper reads.
func resetServeFlags(t *testing.T) {
	t.Helper()

	cmd := newServeCmd()
	require.NoError(t, cmd.PreRunE(cmd, nil))
}
