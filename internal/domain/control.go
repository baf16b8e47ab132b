package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/pmezard/go-difflib/difflib"

	m "sloth.dev/pkg/sloth/internal/model"
)

var (
	// ErrInvalidPage is returned for negative offsets or counts and unknown sort orders.
	ErrInvalidPage = errors.New("invalid page request")
	// ErrSampleNotFound means no sample of the current generation has the id.
	ErrSampleNotFound = errors.New("sample not found")
)

//go:generate mockery --name Fuzzer --with-expecter --output mocks --outpkg mocks

// Fuzzer is the control surface of a fuzzing run. Engine implements it
// in-process; the HTTP client implements it remotely.
type Fuzzer interface {
	Stat(ctx context.Context) (m.Statistics, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	TogglePause(ctx context.Context) error
	Generation(ctx context.Context, offset, count int, sortBy m.SortOrder, onlyMutated bool) ([]m.Snippet, error)
	Sample(ctx context.Context, id string) (m.SampleDetail, error)
}

var _ Fuzzer = (*Engine)(nil)

// Stat implements Fuzzer.
func (e *Engine) Stat(ctx context.Context) (m.Statistics, error) {
	if err := ctx.Err(); err != nil {
		return m.Statistics{}, err
	}

	return e.Snapshot(), nil
}

// Generation implements Fuzzer. Unscored samples are never listed.
func (e *Engine) Generation(ctx context.Context, offset, count int, sortBy m.SortOrder, onlyMutated bool) ([]m.Snippet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if offset < 0 || count < 0 {
		return nil, fmt.Errorf("%w: offset %d, count %d", ErrInvalidPage, offset, count)
	}

	less, err := sampleOrder(sortBy, e.cfg.Kernel)
	if err != nil {
		return nil, err
	}

	var listed []*m.Sample

	for _, s := range e.Population() {
		if s.Metrics == nil {
			continue
		}

		if onlyMutated && !s.Generated() {
			continue
		}

		listed = append(listed, s)
	}

	sort.SliceStable(listed, func(i, j int) bool { return less(listed[i], listed[j]) })

	if offset >= len(listed) {
		return []m.Snippet{}, nil
	}

	listed = listed[offset:min(offset+count, len(listed))]

	snippets := make([]m.Snippet, len(listed))
	for i, s := range listed {
		snippets[i] = m.Snippet{ID: s.ID, Metrics: s.Metrics, Value: s.Value(e.cfg.Kernel)}
	}

	return snippets, nil
}

func sampleOrder(order m.SortOrder, k m.Kernel) (func(a, b *m.Sample) bool, error) {
	switch order {
	case m.SortByScore, "":
		return func(a, b *m.Sample) bool { return a.Value(k) > b.Value(k) }, nil
	case m.SortByAnalyze:
		return func(a, b *m.Sample) bool { return a.Metrics.Analyze.Mean > b.Metrics.Analyze.Mean }, nil
	case m.SortByGenerate:
		return func(a, b *m.Sample) bool { return a.Metrics.Generate.Mean > b.Metrics.Generate.Mean }, nil
	case m.SortByNodeCount:
		return func(a, b *m.Sample) bool { return a.Metrics.NodeCount > b.Metrics.NodeCount }, nil
	case m.SortByTextLength:
		return func(a, b *m.Sample) bool { return a.Metrics.TextLength > b.Metrics.TextLength }, nil
	case m.SortByName:
		return func(a, b *m.Sample) bool { return a.ID < b.ID }, nil
	default:
		return nil, fmt.Errorf("%w: unknown sort order %q", ErrInvalidPage, order)
	}
}

// Sample implements Fuzzer. The lineage runs from the sample back to its
// corpus seed; each step carries the diff from its parent.
func (e *Engine) Sample(ctx context.Context, id string) (m.SampleDetail, error) {
	if err := ctx.Err(); err != nil {
		return m.SampleDetail{}, err
	}

	var found *m.Sample

	for _, s := range e.Population() {
		if s.ID == id {
			found = s
			break
		}
	}

	if found == nil {
		return m.SampleDetail{}, fmt.Errorf("%w: %s", ErrSampleNotFound, id)
	}

	detail := m.SampleDetail{
		Snippet: m.Snippet{ID: found.ID, Metrics: found.Metrics, Value: found.Value(e.cfg.Kernel)},
		Text:    found.Text,
	}

	for _, s := range found.Lineage() {
		step := m.LineageStep{ID: s.ID}

		if s.Parent != nil && s.Parent.Source != nil {
			step.Mutation = s.Parent.Mutation

			diff, err := UnifiedDiff(s.Parent.Source.ID, s.ID, s.Parent.Source.Text, s.Text)
			if err != nil {
				return m.SampleDetail{}, err
			}

			step.Diff = diff
		}

		detail.Lineage = append(detail.Lineage, step)
	}

	return detail, nil
}

// UnifiedDiff renders a unified diff with three lines of context.
func UnifiedDiff(fromName, toName, from, to string) (string, error) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(from),
		B:        difflib.SplitLines(to),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("failed to diff %s: %w", toName, err)
	}

	return diff, nil
}
