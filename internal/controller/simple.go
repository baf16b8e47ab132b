package controller

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"sloth.dev/pkg/sloth/internal/domain"
	m "sloth.dev/pkg/sloth/internal/model"
)

// SimpleUI implements UI using cobra Command's output.
type SimpleUI struct {
	cmd *cobra.Command
}

var _ UI = (*SimpleUI)(nil)

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayStat prints the run statistics and the diagnostic histogram.
func (s *SimpleUI) DisplayStat(ctx context.Context, stat m.Statistics) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderStatTable(stat))

	if len(stat.Diagnostics) > 0 {
		s.printf("\n%s", renderDiagnosticsTable(stat.Diagnostics))
	}

	return nil
}

// DisplayGeneration prints one page of the current generation.
func (s *SimpleUI) DisplayGeneration(ctx context.Context, snippets []m.Snippet, offset int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(snippets) == 0 {
		s.printf("No samples\n")
		return nil
	}

	s.printf("%s", renderGenerationTable(snippets, offset))

	return nil
}

// DisplaySample prints a sample, its lineage and the diff of every step.
func (s *SimpleUI) DisplaySample(ctx context.Context, detail m.SampleDetail) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderGenerationTable([]m.Snippet{detail.Snippet}, 0))
	s.printf("\n%s\n", strings.TrimRight(detail.Text, "\n"))

	if len(detail.Lineage) == 0 {
		return nil
	}

	s.printf("\n%s", renderLineageTable(detail.Lineage))

	for _, step := range detail.Lineage {
		if step.Diff == "" {
			continue
		}

		s.printf("\n%s", step.Diff)
	}

	return nil
}

// DisplayCorpus prints one row per corpus.
func (s *SimpleUI) DisplayCorpus(ctx context.Context, corpora []domain.CorpusSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderCorpusTable(corpora))

	return nil
}

// DisplayMessage prints a single line.
func (s *SimpleUI) DisplayMessage(ctx context.Context, format string, args ...any) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf(format+"\n", args...)
}

func newTable(buf *bytes.Buffer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(buf)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	return table
}

func renderStatTable(stat m.Statistics) string {
	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, []string{"Stat", "Value"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	table.AppendBulk([][]string{
		{"Run", stat.RunID},
		{"State", stat.RunState.String()},
		{"Uptime", formatUptime(stat.UptimeSeconds)},
		{"Phase", stat.Phase},
		{"Generations", fmt.Sprintf("%d", stat.GenerationCount)},
		{"Population", fmt.Sprintf("%d", stat.PopulationSize)},
		{"Mutations", fmt.Sprintf("%d", stat.MutationCount)},
		{"Compilations", fmt.Sprintf("%d", stat.Compilations)},
		{"Successful", fmt.Sprintf("%d", stat.Successful)},
		{"Success rate", formatRate(stat.CompileSuccessRate)},
	})

	table.Render()

	return tableBuffer.String()
}

type diagnosticCount struct {
	message string
	count   int
}

func sortDiagnostics(diagnostics map[string]int) []diagnosticCount {
	counts := make([]diagnosticCount, 0, len(diagnostics))
	for msg, n := range diagnostics {
		counts = append(counts, diagnosticCount{message: msg, count: n})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}

		return counts[i].message < counts[j].message
	})

	return counts
}

func renderDiagnosticsTable(diagnostics map[string]int) string {
	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, []string{"Diagnostic", "Count"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	total := 0

	for _, d := range sortDiagnostics(diagnostics) {
		table.Append([]string{d.message, fmt.Sprintf("%d", d.count)})

		total += d.count
	}

	table.SetFooter([]string{fmt.Sprintf("Distinct %d", len(diagnostics)), fmt.Sprintf("%d", total)})
	table.Render()

	return tableBuffer.String()
}

func renderGenerationTable(snippets []m.Snippet, offset int) string {
	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, snippetHeader)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})

	for i, snippet := range snippets {
		table.Append(snippetRow(offset+i+1, snippet))
	}

	table.Render()

	return tableBuffer.String()
}

func renderLineageTable(lineage []m.LineageStep) string {
	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, []string{"Step", "ID", "Mutation"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for i, step := range lineage {
		mutation := step.Mutation
		if mutation == "" {
			mutation = "seed"
		}

		table.Append([]string{fmt.Sprintf("%d", i), step.ID, mutation})
	}

	table.Render()

	return tableBuffer.String()
}

func renderCorpusTable(corpora []domain.CorpusSummary) string {
	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, []string{"Corpus", "Seeds", "Mains", "Nodes"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})

	var seeds, mains, nodes int

	for _, c := range corpora {
		table.Append([]string{c.Name, fmt.Sprintf("%d", c.Seeds), fmt.Sprintf("%d", c.Mains), fmt.Sprintf("%d", c.Nodes)})

		seeds += c.Seeds
		mains += c.Mains
		nodes += c.Nodes
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Corpora %d", len(corpora)),
		fmt.Sprintf("%d", seeds),
		fmt.Sprintf("%d", mains),
		fmt.Sprintf("%d", nodes),
	})

	table.Render()

	return tableBuffer.String()
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
