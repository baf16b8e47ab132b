package domain

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "sloth.dev/pkg/sloth/internal/model"
)

func controlEngine(t *testing.T, population ...*m.Sample) *Engine {
	t.Helper()

	e := newTestEngine(t, EngineConfig{Kernel: m.FlatKernel()}, seedCorpus(), nil)
	e.publish(population)

	return e
}

func snippetIDs(snippets []m.Snippet) []string {
	out := make([]string, len(snippets))
	for i, s := range snippets {
		out[i] = s.ID
	}

	return out
}

func TestEngine_Generation(t *testing.T) {
	population := []*m.Sample{
		scored("seeds/a", 2, 2, 10), // 4
		scored("GN-1-1", 10, 1, 30), // 3.33
		scored("seeds/c", 1, 1, 5),  // 2
		scored("GN-1-2", 3, 3, 20),  // 4.5
		scored("GN-2-3", 1, 50, 1),  // 500
		m.NewSample("seeds/raw", "package main\n", nil, nil),
	}

	e := controlEngine(t, population...)
	ctx := context.Background()

	tests := []struct {
		name        string
		offset      int
		count       int
		sortBy      m.SortOrder
		onlyMutated bool
		want        []string
	}{
		{"score", 0, 10, m.SortByScore, false, []string{"GN-2-3", "GN-1-2", "seeds/a", "GN-1-1", "seeds/c"}},
		{"default order is score", 0, 2, "", false, []string{"GN-2-3", "GN-1-2"}},
		{"analyze", 0, 3, m.SortByAnalyze, false, []string{"GN-1-1", "GN-1-2", "seeds/a"}},
		{"generate", 0, 1, m.SortByGenerate, false, []string{"GN-2-3"}},
		{"nodes", 0, 2, m.SortByNodeCount, false, []string{"GN-1-1", "GN-1-2"}},
		{"length", 0, 1, m.SortByTextLength, false, []string{"GN-1-1"}},
		{"name ascending", 0, 10, m.SortByName, false, []string{"GN-1-1", "GN-1-2", "GN-2-3", "seeds/a", "seeds/c"}},
		{"only mutated", 0, 10, m.SortByScore, true, []string{"GN-2-3", "GN-1-2", "GN-1-1"}},
		{"offset", 3, 10, m.SortByScore, false, []string{"GN-1-1", "seeds/c"}},
		{"offset past the end", 9, 10, m.SortByScore, false, []string{}},
		{"zero count", 0, 0, m.SortByScore, false, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Generation(ctx, tt.offset, tt.count, tt.sortBy, tt.onlyMutated)
			require.NoError(t, err)
			assert.Equal(t, tt.want, snippetIDs(got))
		})
	}
}

func TestEngine_GenerationOfFiveByScore(t *testing.T) {
	e := controlEngine(t,
		scored("s1", 1, 1, 10),
		scored("s2", 5, 5, 10),
		scored("s3", 3, 3, 10),
		scored("s4", 4, 4, 10),
		scored("s5", 2, 2, 10),
	)

	got, err := e.Generation(context.Background(), 0, 10, m.SortByScore, false)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, []string{"s2", "s4", "s3", "s5", "s1"}, snippetIDs(got))

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Value, got[i].Value)
	}

	assert.Equal(t, 25.0, got[0].Value)
	require.NotNil(t, got[0].Metrics)
}

func TestEngine_GenerationRejectsBadPages(t *testing.T) {
	e := controlEngine(t, scored("s1", 1, 1, 10))
	ctx := context.Background()

	_, err := e.Generation(ctx, -1, 10, m.SortByScore, false)
	require.ErrorIs(t, err, ErrInvalidPage)

	_, err = e.Generation(ctx, 0, -1, m.SortByScore, false)
	require.ErrorIs(t, err, ErrInvalidPage)

	_, err = e.Generation(ctx, 0, 1, m.SortOrder("psi"), false)
	require.ErrorIs(t, err, ErrInvalidPage)
}

func TestEngine_GenerationOnEmptyEngine(t *testing.T) {
	e := newTestEngine(t, EngineConfig{}, seedCorpus(), nil)

	got, err := e.Generation(context.Background(), 0, 10, m.SortByScore, false)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEngine_Sample(t *testing.T) {
	seed := m.NewSample("seeds/a.go", "package main\n\nfunc main() {\n\tprintln(1)\n}\n", &m.Metrics{NodeCount: 5}, nil)
	child := m.NewSample("GN-0-1", "package main\n\nfunc main() {\n\tprintln(2)\n}\n", &m.Metrics{NodeCount: 5},
		&m.MutationInfo{Source: seed, Mutation: "replace"})
	grandchild := m.NewSample("GN-1-2", "package main\n\nfunc main() {\n\tprintln(2)\n\tprintln(3)\n}\n", &m.Metrics{NodeCount: 7},
		&m.MutationInfo{Source: child, Mutation: "add"})

	e := controlEngine(t, grandchild, seed)

	detail, err := e.Sample(context.Background(), "GN-1-2")
	require.NoError(t, err)

	assert.Equal(t, "GN-1-2", detail.ID)
	assert.Equal(t, grandchild.Text, detail.Text)
	require.Len(t, detail.Lineage, 3)

	assert.Equal(t, "GN-1-2", detail.Lineage[0].ID)
	assert.Equal(t, "add", detail.Lineage[0].Mutation)
	assert.Contains(t, detail.Lineage[0].Diff, "--- GN-0-1")
	assert.Contains(t, detail.Lineage[0].Diff, "+++ GN-1-2")
	assert.Contains(t, detail.Lineage[0].Diff, "+\tprintln(3)")

	assert.Equal(t, "replace", detail.Lineage[1].Mutation)
	assert.Contains(t, detail.Lineage[1].Diff, "-\tprintln(1)")

	assert.Equal(t, m.LineageStep{ID: "seeds/a.go"}, detail.Lineage[2])

	_, err = e.Sample(context.Background(), "GN-0-1")
	require.ErrorIs(t, err, ErrSampleNotFound)
}

func TestUnifiedDiff(t *testing.T) {
	diff, err := UnifiedDiff("a", "b", "x\ny\n", "x\nz\n")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(diff, "--- a\n+++ b\n"))
	assert.Contains(t, diff, "-y\n+z\n")

	same, err := UnifiedDiff("a", "b", "x\n", "x\n")
	require.NoError(t, err)
	assert.Empty(t, same)
}
