// Package choosers implements the probabilistic selection used to pick edit
// points, donors, parents and mutations.
package choosers

import "math/rand"

// DefaultEscapeProbability is the chance that a chooser ignores its constraint.
const DefaultEscapeProbability = 0.01

// Constraint filters candidate results. A nil Constraint accepts everything.
type Constraint[R any] func(R) bool

// Chooser picks an element of a domain. ok is false only when nothing could
// be chosen, which for the always-true constraint means an empty domain.
type Chooser[D, R any] interface {
	Choose(rng *rand.Rand, domain D, constraint Constraint[R]) (result R, ok bool)
}

// Strategy is the raw selection law, without the escape rule.
type Strategy[D, R any] interface {
	ChooseImpl(rng *rand.Rand, domain D, constraint Constraint[R]) (result R, ok bool)
}

// Always accepts every candidate.
func Always[R any](R) bool { return true }

type escaping[D, R any] struct {
	strategy    Strategy[D, R]
	probability float64
}

// Escaping wraps a strategy with the shared escape rule using the default probability.
func Escaping[D, R any](strategy Strategy[D, R]) Chooser[D, R] {
	return EscapingWith(strategy, DefaultEscapeProbability)
}

// EscapingWith wraps a strategy with an explicit escape probability.
func EscapingWith[D, R any](strategy Strategy[D, R], probability float64) Chooser[D, R] {
	return &escaping[D, R]{strategy: strategy, probability: probability}
}

func (c *escaping[D, R]) Choose(rng *rand.Rand, domain D, constraint Constraint[R]) (R, bool) {
	if constraint == nil || rng.Float64() < c.probability {
		return c.strategy.ChooseImpl(rng, domain, Always[R])
	}

	return c.strategy.ChooseImpl(rng, domain, constraint)
}

type uniform[T any] struct{}

// Uniform picks uniformly among the elements of a slice that satisfy the constraint.
func Uniform[T any]() Chooser[[]T, T] {
	return Escaping[[]T, T](uniform[T]{})
}

func (uniform[T]) ChooseImpl(rng *rand.Rand, domain []T, constraint Constraint[T]) (T, bool) {
	candidates := make([]int, 0, len(domain))

	for i, item := range domain {
		if constraint(item) {
			candidates = append(candidates, i)
		}
	}

	if len(candidates) == 0 {
		var zero T
		return zero, false
	}

	return domain[candidates[rng.Intn(len(candidates))]], true
}
