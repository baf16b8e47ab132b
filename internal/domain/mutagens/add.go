package mutagens

import (
	"context"
	"errors"
	"go/ast"
	"math/rand"
	"sort"
	"sync"

	"sloth.dev/pkg/sloth/internal/domain/choosers"
	m "sloth.dev/pkg/sloth/internal/model"
	"sloth.dev/pkg/sloth/internal/syntax"
)

// Add appends the children of a same-kind donor node to an edit point.
type Add struct {
	chooser choosers.SubtreeChooser

	mu      sync.RWMutex
	nonLeaf map[string]struct{}
}

// NewAdd builds an Add mutation.
func NewAdd(lambda float64) *Add {
	return NewAddWith(choosers.NewSubtreeChooser(lambda))
}

// NewAddWith builds an Add mutation with an explicit chooser.
func NewAddWith(chooser choosers.SubtreeChooser) *Add {
	return &Add{chooser: chooser, nonLeaf: make(map[string]struct{})}
}

// Name implements Mutation.
func (a *Add) Name() string { return AddName }

// NonLeafKinds lists node kinds seen with at least one list child.
func (a *Add) NonLeafKinds() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	kinds := make([]string, 0, len(a.nonLeaf))
	for k := range a.nonLeaf {
		kinds = append(kinds, k)
	}

	sort.Strings(kinds)

	return kinds
}

func (a *Add) observe(tree *syntax.Tree) {
	var seen []string

	for _, n := range tree.Nodes() {
		if children, ok := syntax.ListChildren(n); ok && len(children) > 0 {
			seen = append(seen, syntax.Kind(n))
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, k := range seen {
		a.nonLeaf[k] = struct{}{}
	}
}

func (a *Add) isNonLeaf(n ast.Node) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	_, ok := a.nonLeaf[syntax.Kind(n)]

	return ok
}

func hasListChildren(n ast.Node) bool {
	children, ok := syntax.ListChildren(n)
	return ok && len(children) > 0
}

// Mutate implements Mutation.
func (a *Add) Mutate(ctx context.Context, rng *rand.Rand, corpus []*m.Sample, sample *m.Sample) (string, error) {
	tree, err := sample.Tree()
	if err != nil {
		return "", err
	}

	a.observe(tree)

	point, ok := a.chooser.Choose(rng, tree, a.isNonLeaf)
	if !ok {
		return "", ErrNoEdit
	}

	if _, ok := syntax.ListChildren(point); !ok {
		return "", ErrNoEdit
	}

	for _, donorSample := range donorOrder(rng, corpus, sample) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		donorTree, err := donorSample.Tree()
		if err != nil {
			continue
		}

		a.observe(donorTree)

		donor, ok := a.chooser.Choose(rng, donorTree, func(n ast.Node) bool {
			return syntax.SameKind(n, point) && hasListChildren(n)
		})
		if !ok || !syntax.SameKind(donor, point) || !hasListChildren(donor) {
			continue
		}

		code, err := tree.AppendChildren(point, donorTree, donor)
		if errors.Is(err, syntax.ErrIncompatible) {
			continue
		}

		if err != nil {
			return "", err
		}

		if code == sample.Text {
			continue
		}

		return code, nil
	}

	return "", ErrNoEdit
}
