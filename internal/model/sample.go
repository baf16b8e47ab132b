// Package model defines the data structures shared by the fuzzer.
package model

import (
	"strings"
	"sync"
	"unicode/utf8"

	"sloth.dev/pkg/sloth/internal/syntax"
)

// GeneratedIDPrefix marks samples produced by the mutation loop.
const GeneratedIDPrefix = "GN-"

// Sample is a candidate program under evaluation.
//
// A Sample is never mutated after construction. The population changes by
// replacing list membership, so a *Sample can be shared freely between the
// run loop and readers.
type Sample struct {
	// ID is empty for samples that are not registered yet.
	ID      string
	Text    string
	Metrics *Metrics
	// Parent is nil for corpus seeds.
	Parent *MutationInfo

	tree *lazyTree
}

type lazyTree struct {
	once func() (*syntax.Tree, error)
}

// MutationInfo records which mutation produced a sample from which source.
type MutationInfo struct {
	Source   *Sample
	Mutation string
	Result   string
}

// NewSample builds a sample whose tree is parsed on first use.
func NewSample(id, text string, metrics *Metrics, parent *MutationInfo) *Sample {
	return &Sample{
		ID:      id,
		Text:    text,
		Metrics: metrics,
		Parent:  parent,
		tree:    newLazyTree(text),
	}
}

func newLazyTree(text string) *lazyTree {
	return &lazyTree{once: sync.OnceValues(func() (*syntax.Tree, error) {
		return syntax.Parse(text)
	})}
}

// Tree returns the parsed syntax tree, parsing it once.
func (s *Sample) Tree() (*syntax.Tree, error) {
	if s.tree == nil {
		// built by struct literal, no memo
		return syntax.Parse(s.Text)
	}

	return s.tree.once()
}

// WithMetrics returns a copy of the sample carrying metrics. The parsed tree is shared.
func (s *Sample) WithMetrics(metrics *Metrics) *Sample {
	cp := *s
	cp.Metrics = metrics

	return &cp
}

// Generated reports whether the sample was produced by the mutation loop.
func (s *Sample) Generated() bool {
	return strings.HasPrefix(s.ID, GeneratedIDPrefix)
}

// Value is the scalar fitness under kernel k, or -1 for unscored samples.
func (s *Sample) Value(k Kernel) float64 {
	if s.Metrics == nil {
		return -1
	}

	return s.Metrics.Value(k)
}

// Lineage walks parent links from the sample back to its corpus ancestor.
// The first element is s itself.
func (s *Sample) Lineage() []*Sample {
	chain := []*Sample{s}

	for cur := s; cur.Parent != nil && cur.Parent.Source != nil; cur = cur.Parent.Source {
		chain = append(chain, cur.Parent.Source)
	}

	return chain
}

// TextLength counts runes, not bytes.
func TextLength(text string) int {
	return utf8.RuneCountInString(text)
}
