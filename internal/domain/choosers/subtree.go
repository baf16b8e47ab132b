package choosers

import (
	"go/ast"
	"math"
	"math/rand"

	"sloth.dev/pkg/sloth/internal/syntax"
)

// DefaultSubtreeLambda is the size preference used for edit points and donors.
const DefaultSubtreeLambda = 0.2

const defaultMaxRounds = 64

// SubtreeChooser picks a node of a syntax tree.
type SubtreeChooser = Chooser[*syntax.Tree, ast.Node]

type sizeWeighted struct {
	lambda    float64
	maxRounds int
}

// SizeWeighted accepts a shuffled candidate with probability
// 1 - exp(-lambda * subtreeSize), reshuffling between rounds. It gives up
// with no selection when a bounded number of rounds accepted nothing.
func SizeWeighted(lambda float64) SubtreeChooser {
	return Escaping[*syntax.Tree, ast.Node](newSizeWeighted(lambda))
}

func newSizeWeighted(lambda float64) *sizeWeighted {
	return &sizeWeighted{lambda: lambda, maxRounds: defaultMaxRounds}
}

// AcceptProbability is the chance a node of the given subtree size is taken in one round.
func AcceptProbability(lambda float64, size int) float64 {
	return 1 - math.Exp(-lambda*float64(size))
}

func (c *sizeWeighted) ChooseImpl(rng *rand.Rand, tree *syntax.Tree, constraint Constraint[ast.Node]) (ast.Node, bool) {
	if tree == nil {
		return nil, false
	}

	candidates := make([]ast.Node, 0, tree.Len())

	for _, n := range tree.Nodes() {
		if constraint(n) {
			candidates = append(candidates, n)
		}
	}

	if len(candidates) == 0 {
		return nil, false
	}

	for range c.maxRounds {
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})

		for _, n := range candidates {
			if rng.Float64() < AcceptProbability(c.lambda, tree.SubtreeSize(n)) {
				return n, true
			}
		}
	}

	return nil, false
}

type interestFilter struct {
	inner SubtreeChooser
}

// InterestFilter hides literals, comments and import declarations from inner.
func InterestFilter(inner SubtreeChooser) SubtreeChooser {
	return Escaping[*syntax.Tree, ast.Node](&interestFilter{inner: inner})
}

func (c *interestFilter) ChooseImpl(rng *rand.Rand, tree *syntax.Tree, constraint Constraint[ast.Node]) (ast.Node, bool) {
	if tree == nil {
		return nil, false
	}

	return c.inner.Choose(rng, tree, func(n ast.Node) bool {
		return !tree.Boring(n) && constraint(n)
	})
}

// NewSubtreeChooser is the chooser used by mutations.
func NewSubtreeChooser(lambda float64) SubtreeChooser {
	return InterestFilter(SizeWeighted(lambda))
}

// NewSubtreeChooserWith is NewSubtreeChooser with an explicit escape probability.
func NewSubtreeChooserWith(lambda, escape float64) SubtreeChooser {
	return EscapingWith[*syntax.Tree, ast.Node](
		&interestFilter{inner: EscapingWith[*syntax.Tree, ast.Node](newSizeWeighted(lambda), escape)},
		escape,
	)
}
