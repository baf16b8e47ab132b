package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sloth.dev/pkg/sloth/internal/domain"
	domainmocks "sloth.dev/pkg/sloth/internal/domain/mocks"
	m "sloth.dev/pkg/sloth/internal/model"
)

func TestSampleCmd(t *testing.T) {
	mockFuzzer := domainmocks.NewMockFuzzer(t)
	withFuzzer(t, mockFuzzer)

	mockFuzzer.EXPECT().Sample(mock.Anything, "GN-2-1").Return(m.SampleDetail{
		Snippet: m.Snippet{ID: "GN-2-1", Value: 3},
		Text:    "package main\n\nfunc main() { println(2) }\n",
		Lineage: []m.LineageStep{
			{ID: "GN-2-1", Mutation: "replace", Diff: "--- examples/a.go\n+++ GN-2-1\n-\tprintln(1)\n+\tprintln(2)\n"},
			{ID: "examples/a.go"},
		},
	}, nil)

	cmd, out := newTestRoot(t, newSampleCmd())
	cmd.SetArgs([]string{"sample", "GN-2-1"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "println(2)")
	assert.Contains(t, out.String(), "+++ GN-2-1")
	assert.Contains(t, out.String(), "replace")
}

func TestSampleCmd_NotFound(t *testing.T) {
	mockFuzzer := domainmocks.NewMockFuzzer(t)
	withFuzzer(t, mockFuzzer)

	mockFuzzer.EXPECT().Sample(mock.Anything, "nope").Return(m.SampleDetail{}, domain.ErrSampleNotFound)

	cmd, _ := newTestRoot(t, newSampleCmd())
	cmd.SetArgs([]string{"sample", "nope"})

	require.ErrorIs(t, cmd.Execute(), domain.ErrSampleNotFound)
}

func TestSampleCmd_RequiresID(t *testing.T) {
	cmd, _ := newTestRoot(t, newSampleCmd())
	cmd.SetArgs([]string{"sample"})

	require.Error(t, cmd.Execute())
}
