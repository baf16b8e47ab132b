package choosers

import (
	"go/ast"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sloth.dev/pkg/sloth/internal/syntax"
)

const treeSource = `package main

import "fmt"

func main() {
	values := []int{1, 2, 3}
	for i, v := range values {
		if v > 1 {
			fmt.Println(i, v)
		}
	}
}
`

type fixedStrategy struct {
	calls       int
	constrained int
}

func (s *fixedStrategy) ChooseImpl(_ *rand.Rand, domain []int, constraint Constraint[int]) (int, bool) {
	s.calls++

	for _, v := range domain {
		if !constraint(v) {
			s.constrained++
			break
		}
	}

	for _, v := range domain {
		if constraint(v) {
			return v, true
		}
	}

	return 0, false
}

func TestEscaping_IgnoresConstraintWithProbabilityOne(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	strategy := &fixedStrategy{}
	chooser := EscapingWith[[]int, int](strategy, 1)

	got, ok := chooser.Choose(rng, []int{1, 2, 3}, func(v int) bool { return v == 3 })
	require.True(t, ok)
	assert.Equal(t, 1, got)
	assert.Zero(t, strategy.constrained)
}

func TestEscaping_HonoursConstraintWithProbabilityZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	chooser := EscapingWith[[]int, int](&fixedStrategy{}, 0)

	for range 100 {
		got, ok := chooser.Choose(rng, []int{1, 2, 3}, func(v int) bool { return v == 3 })
		require.True(t, ok)
		assert.Equal(t, 3, got)
	}
}

func TestEscaping_EscapeRateIsSmall(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	chooser := Uniform[int]()
	domain := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	violations := 0

	for range 10000 {
		v, ok := chooser.Choose(rng, domain, func(v int) bool { return v == 0 })
		require.True(t, ok)

		if v != 0 {
			violations++
		}
	}

	// ~1% escapes, 90% of which land on a non-matching element
	assert.Greater(t, violations, 20)
	assert.Less(t, violations, 200)
}

func TestChoosers_AlwaysConstraintNeverEmpty(t *testing.T) {
	tree, err := syntax.Parse(treeSource)
	require.NoError(t, err)

	tests := []struct {
		name   string
		choose func(rng *rand.Rand) bool
	}{
		{"uniform", func(rng *rand.Rand) bool {
			_, ok := Uniform[string]().Choose(rng, []string{"a", "b"}, Always[string])
			return ok
		}},
		{"index", func(rng *rand.Rand) bool {
			_, ok := Index(DefaultIndexLambda).Choose(rng, 5, Always[int])
			return ok
		}},
		{"rank", func(rng *rand.Rand) bool {
			_, ok := Rank[int](DefaultIndexLambda).Choose(rng, []int{4, 3, 2}, Always[int])
			return ok
		}},
		{"size weighted", func(rng *rand.Rand) bool {
			_, ok := SizeWeighted(DefaultSubtreeLambda).Choose(rng, tree, Always[ast.Node])
			return ok
		}},
		{"interest filter", func(rng *rand.Rand) bool {
			_, ok := NewSubtreeChooser(DefaultSubtreeLambda).Choose(rng, tree, Always[ast.Node])
			return ok
		}},
		{"nil constraint", func(rng *rand.Rand) bool {
			_, ok := Uniform[int]().Choose(rng, []int{1}, nil)
			return ok
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			for range 200 {
				require.True(t, tt.choose(rng))
			}
		})
	}
}

func TestChoosers_EmptyDomain(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	_, ok := Uniform[int]().Choose(rng, nil, Always[int])
	assert.False(t, ok)

	_, ok = Index(DefaultIndexLambda).Choose(rng, 0, Always[int])
	assert.False(t, ok)

	_, ok = Rank[int](DefaultIndexLambda).Choose(rng, []int{}, Always[int])
	assert.False(t, ok)

	_, ok = SizeWeighted(DefaultSubtreeLambda).Choose(rng, nil, Always[ast.Node])
	assert.False(t, ok)
}

func TestAcceptProbability_Limits(t *testing.T) {
	for _, size := range []int{1, 5, 50, 5000} {
		assert.InDelta(t, 0, AcceptProbability(1e-12, size), 1e-6, "size %d", size)
		assert.InDelta(t, 1, AcceptProbability(1e6, size), 1e-9, "size %d", size)
		assert.Equal(t, 1.0, AcceptProbability(math.Inf(1), size))
	}

	assert.Greater(t, AcceptProbability(0.2, 10), AcceptProbability(0.2, 1))
}

func TestSizeWeighted_VanishingLambdaSelectsNothing(t *testing.T) {
	tree, err := syntax.Parse(treeSource)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1999))
	chooser := EscapingWith[*syntax.Tree, ast.Node](newSizeWeighted(1e-12), 0)

	selected := 0

	for range 1000 {
		if _, ok := chooser.Choose(rng, tree, Always[ast.Node]); ok {
			selected++
		}
	}

	assert.LessOrEqual(t, selected, 1)

	_, ok := newSizeWeighted(0).ChooseImpl(rng, tree, Always[ast.Node])
	assert.False(t, ok)
}

func TestSizeWeighted_HugeLambdaAlwaysSelects(t *testing.T) {
	tree, err := syntax.Parse(treeSource)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	chooser := newSizeWeighted(1e6)

	for range 200 {
		_, ok := chooser.ChooseImpl(rng, tree, Always[ast.Node])
		require.True(t, ok)
	}
}

func TestSizeWeighted_PrefersLargeSubtrees(t *testing.T) {
	tree, err := syntax.Parse(treeSource)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(11))
	chooser := newSizeWeighted(0.05)

	var large, small int

	for range 2000 {
		n, ok := chooser.ChooseImpl(rng, tree, Always[ast.Node])
		require.True(t, ok)

		if tree.SubtreeSize(n) >= 10 {
			large++
		} else {
			small++
		}
	}

	// large subtrees are a minority of nodes but must be over-represented
	var largeNodes int

	for _, n := range tree.Nodes() {
		if tree.SubtreeSize(n) >= 10 {
			largeNodes++
		}
	}

	expectedUniform := float64(largeNodes) / float64(tree.Len())
	assert.Greater(t, float64(large)/float64(large+small), expectedUniform)
}

func TestSizeWeighted_RespectsConstraint(t *testing.T) {
	tree, err := syntax.Parse(treeSource)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(5))
	chooser := newSizeWeighted(DefaultSubtreeLambda)

	for range 100 {
		n, ok := chooser.ChooseImpl(rng, tree, func(n ast.Node) bool {
			_, isIdent := n.(*ast.Ident)
			return isIdent
		})
		require.True(t, ok)
		assert.IsType(t, &ast.Ident{}, n)
	}

	_, ok := chooser.ChooseImpl(rng, tree, func(ast.Node) bool { return false })
	assert.False(t, ok)
}

func TestInterestFilter_SkipsBoringNodes(t *testing.T) {
	tree, err := syntax.Parse(treeSource)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(9))
	filter := &interestFilter{inner: EscapingWith[*syntax.Tree, ast.Node](newSizeWeighted(DefaultSubtreeLambda), 0)}

	for range 500 {
		n, ok := filter.ChooseImpl(rng, tree, Always[ast.Node])
		require.True(t, ok)
		assert.False(t, tree.Boring(n), "picked %s", syntax.Kind(n))
	}
}

func TestIndex_PrefersLowIndices(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	chooser := &index{fn: ReverseExp(DefaultIndexLambda)}

	counts := make([]int, 10)

	for range 10000 {
		i, ok := chooser.ChooseImpl(rng, 10, Always[int])
		require.True(t, ok)
		require.GreaterOrEqual(t, i, 0)
		require.Less(t, i, 10)
		counts[i]++
	}

	assert.Greater(t, counts[0], counts[5])
	assert.Greater(t, counts[5], counts[9])
}

func TestIndex_RetriesUntilConstraintHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	chooser := &index{fn: ReverseExp(DefaultIndexLambda)}

	for range 100 {
		i, ok := chooser.ChooseImpl(rng, 20, func(i int) bool { return i%7 == 6 })
		require.True(t, ok)
		assert.Equal(t, 6, i%7)
	}

	_, ok := chooser.ChooseImpl(rng, 20, func(int) bool { return false })
	assert.False(t, ok)
}

func TestReverseExp(t *testing.T) {
	fn := ReverseExp(3)

	assert.InDelta(t, 0, fn(0), 1e-12)
	assert.Less(t, fn(0.999999), 1.0)
	assert.Less(t, fn(0.5), 0.5)

	identity := ReverseExp(0)
	assert.Equal(t, 0.25, identity(0.25))
}

func TestRank_UsesDomainOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	chooser := &rank[string]{index: &index{fn: ReverseExp(10)}}
	domain := []string{"best", "good", "fine", "poor", "bad"}

	first := 0

	for range 1000 {
		v, ok := chooser.ChooseImpl(rng, domain, Always[string])
		require.True(t, ok)

		if v == "best" {
			first++
		}
	}

	assert.Greater(t, first, 500)
}

func TestNewSubtreeChooserWith_ZeroEscapeHonoursFilter(t *testing.T) {
	tree, err := syntax.Parse(treeSource)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(8))
	chooser := NewSubtreeChooserWith(DefaultSubtreeLambda, 0)

	for range 500 {
		n, ok := chooser.Choose(rng, tree, Always[ast.Node])
		require.True(t, ok)
		assert.False(t, tree.Boring(n), "picked %T", n)
	}
}
