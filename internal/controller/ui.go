// Package controller provides output adapters for displaying fuzzer state.
package controller

import (
	"context"
	"fmt"
	"time"

	"sloth.dev/pkg/sloth/internal/domain"
	m "sloth.dev/pkg/sloth/internal/model"
)

// UI defines the interface for displaying fuzzer state.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	DisplayStat(ctx context.Context, stat m.Statistics) error
	DisplayGeneration(ctx context.Context, snippets []m.Snippet, offset int) error
	DisplaySample(ctx context.Context, detail m.SampleDetail) error
	DisplayCorpus(ctx context.Context, corpora []domain.CorpusSummary) error
	DisplayMessage(ctx context.Context, format string, args ...any)
}

func formatTiming(metrics *m.Metrics, pick func(*m.Metrics) m.Timing) string {
	if metrics == nil {
		return "-"
	}

	return pick(metrics).String()
}

func formatInt(metrics *m.Metrics, pick func(*m.Metrics) int) string {
	if metrics == nil {
		return "-"
	}

	return fmt.Sprintf("%d", pick(metrics))
}

func formatValue(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatUptime(seconds int64) string {
	return (time.Duration(seconds) * time.Second).String()
}

func formatRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}

func analyzeOf(metrics *m.Metrics) m.Timing  { return metrics.Analyze }
func generateOf(metrics *m.Metrics) m.Timing { return metrics.Generate }
func nodesOf(metrics *m.Metrics) int         { return metrics.NodeCount }
func lengthOf(metrics *m.Metrics) int        { return metrics.TextLength }

func snippetRow(rank int, s m.Snippet) []string {
	return []string{
		fmt.Sprintf("%d", rank),
		s.ID,
		formatValue(s.Value),
		formatTiming(s.Metrics, analyzeOf),
		formatTiming(s.Metrics, generateOf),
		formatInt(s.Metrics, nodesOf),
		formatInt(s.Metrics, lengthOf),
	}
}

var snippetHeader = []string{"#", "ID", "Value", "Analyze ms", "Generate ms", "Nodes", "Length"}
