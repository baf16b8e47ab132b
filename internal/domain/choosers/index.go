package choosers

import (
	"math"
	"math/rand"
)

// DefaultIndexLambda biases rank selection toward the first few positions.
const DefaultIndexLambda = 3.0

const indexAttemptsPerElement = 64

// ReverseExp maps a uniform draw y in [0, 1) onto [0, 1) with density
// decaying as exp(-lambda*x): the inverse CDF of a truncated exponential.
func ReverseExp(lambda float64) func(y float64) float64 {
	if lambda <= 0 {
		return func(y float64) float64 { return y }
	}

	beta := math.Exp(-lambda)

	return func(y float64) float64 {
		return math.Log(1-y*(1-beta)) / -lambda
	}
}

type index struct {
	fn func(float64) float64
}

// Index draws an index in [0, n) preferring low values.
func Index(lambda float64) Chooser[int, int] {
	return Escaping[int, int](&index{fn: ReverseExp(lambda)})
}

func (c *index) ChooseImpl(rng *rand.Rand, n int, constraint Constraint[int]) (int, bool) {
	if n <= 0 {
		return 0, false
	}

	for range indexAttemptsPerElement * n {
		i := int(math.Floor(c.fn(rng.Float64()) * float64(n)))
		if i >= n {
			i = n - 1
		}

		if i < 0 {
			i = 0
		}

		if constraint(i) {
			return i, true
		}
	}

	for i := range n {
		if constraint(i) {
			return i, true
		}
	}

	return 0, false
}

type rank[T any] struct {
	index *index
}

// Rank picks an element of an already sorted slice, preferring the head.
func Rank[T any](lambda float64) Chooser[[]T, T] {
	return Escaping[[]T, T](&rank[T]{index: &index{fn: ReverseExp(lambda)}})
}

func (c *rank[T]) ChooseImpl(rng *rand.Rand, domain []T, constraint Constraint[T]) (T, bool) {
	i, ok := c.index.ChooseImpl(rng, len(domain), func(i int) bool { return constraint(domain[i]) })
	if !ok {
		var zero T
		return zero, false
	}

	return domain[i], true
}
