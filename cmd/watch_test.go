package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainmocks "sloth.dev/pkg/sloth/internal/domain/mocks"
	m "sloth.dev/pkg/sloth/internal/model"
)

func TestWatchCmd_PrintsFrameWithoutTerminal(t *testing.T) {
	mockFuzzer := domainmocks.NewMockFuzzer(t)
	withFuzzer(t, mockFuzzer)

	mockFuzzer.EXPECT().Stat(mock.Anything).Return(m.Statistics{RunState: m.Started, Phase: "Generation 4: mutating 1/9"}, nil)
	mockFuzzer.EXPECT().Generation(mock.Anything, 0, 5, m.SortByNodeCount, true).Return([]m.Snippet{{ID: "GN-4-2"}}, nil)

	cmd, out := newTestRoot(t, newWatchCmd())
	cmd.SetArgs([]string{"watch", "-n", "5", "--sort", "nodes", "--mutated"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Generation 4: mutating 1/9")
	assert.Contains(t, out.String(), "GN-4-2")
}
