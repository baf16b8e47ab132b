package mutagens

import (
	"context"
	"go/ast"
	"math/rand"

	"sloth.dev/pkg/sloth/internal/domain/choosers"
	m "sloth.dev/pkg/sloth/internal/model"
	"sloth.dev/pkg/sloth/internal/syntax"
)

// Replace swaps a subtree of the sample for a compatible subtree taken from
// the corpus.
type Replace struct {
	chooser   choosers.SubtreeChooser
	resolver  *syntax.Resolver
	repairAll bool
}

// NewReplace builds a Replace mutation. With repairAll unset, names are only
// repaired when the donor itself descends from a mutation.
func NewReplace(lambda float64, repairAll bool) *Replace {
	return NewReplaceWith(choosers.NewSubtreeChooser(lambda), syntax.NewResolver(), repairAll)
}

// NewReplaceWith builds a Replace mutation from explicit collaborators.
func NewReplaceWith(chooser choosers.SubtreeChooser, resolver *syntax.Resolver, repairAll bool) *Replace {
	return &Replace{chooser: chooser, resolver: resolver, repairAll: repairAll}
}

// Name implements Mutation.
func (r *Replace) Name() string { return ReplaceName }

// Mutate implements Mutation.
func (r *Replace) Mutate(ctx context.Context, rng *rand.Rand, corpus []*m.Sample, sample *m.Sample) (string, error) {
	tree, err := sample.Tree()
	if err != nil {
		return "", err
	}

	point, ok := r.chooser.Choose(rng, tree, func(n ast.Node) bool {
		return tree.Parent(n) != nil
	})
	if !ok {
		return "", ErrNoEdit
	}

	for _, donorSample := range donorOrder(rng, corpus, nil) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		donorTree, err := donorSample.Tree()
		if err != nil {
			continue
		}

		donor, ok := r.chooser.Choose(rng, donorTree, func(n ast.Node) bool {
			return donorTree.Parent(n) != nil && syntax.Swappable(n, point)
		})
		if !ok || donorTree.Parent(donor) == nil {
			continue
		}

		donorText, err := donorTree.NodeText(donor)
		if err != nil {
			continue
		}

		code, start, end, err := tree.Splice(point, donorText)
		if err != nil {
			return "", err
		}

		if r.repairAll || donorSample.Parent != nil {
			code = r.resolver.Repair(code, start, end, donorTree, donor)
		}

		if code == sample.Text {
			continue
		}

		return code, nil
	}

	return "", ErrNoEdit
}
