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

func TestGenerationCmd(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		offset      int
		count       int
		sortBy      m.SortOrder
		onlyMutated bool
	}{
		{"defaults", []string{"generation"}, 0, 20, m.SortByScore, false},
		{"flags", []string{"generation", "--offset", "5", "-n", "3", "-s", "Name", "-m"}, 5, 3, m.SortByName, true},
		{"analyze", []string{"generation", "--sort", "analyze"}, 0, 20, m.SortByAnalyze, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockFuzzer := domainmocks.NewMockFuzzer(t)
			withFuzzer(t, mockFuzzer)

			mockFuzzer.EXPECT().
				Generation(mock.Anything, tt.offset, tt.count, tt.sortBy, tt.onlyMutated).
				Return([]m.Snippet{{ID: "GN-7-1", Value: 12.5}}, nil)

			cmd, out := newTestRoot(t, newGenerationCmd())
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			assert.Contains(t, out.String(), "GN-7-1")
			assert.Contains(t, out.String(), "12.50")
		})
	}
}

func TestGenerationCmd_UnknownSortOrder(t *testing.T) {
	withFuzzer(t, domainmocks.NewMockFuzzer(t))

	cmd, _ := newTestRoot(t, newGenerationCmd())
	cmd.SetArgs([]string{"generation", "--sort", "fastest"})

	require.ErrorContains(t, cmd.Execute(), "unknown sort order")
}

func TestGenerationCmd_InvalidPage(t *testing.T) {
	mockFuzzer := domainmocks.NewMockFuzzer(t)
	withFuzzer(t, mockFuzzer)

	mockFuzzer.EXPECT().Generation(mock.Anything, -1, 20, m.SortByScore, false).Return(nil, domain.ErrInvalidPage)

	cmd, _ := newTestRoot(t, newGenerationCmd())
	cmd.SetArgs([]string{"generation", "--offset", "-1"})

	require.ErrorIs(t, cmd.Execute(), domain.ErrInvalidPage)
}
