// Package mutagens provides the tree mutations that produce new samples.
package mutagens

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"strings"

	"sloth.dev/pkg/sloth/internal/domain/choosers"
	m "sloth.dev/pkg/sloth/internal/model"
	"sloth.dev/pkg/sloth/internal/syntax"
)

var (
	// ErrNoEdit means no legal edit point or donor was found.
	ErrNoEdit = errors.New("no applicable edit")
	// ErrUnchanged means the edit produced the input text again.
	ErrUnchanged = errors.New("nothing changed")
)

// Mutation rewrites a sample into the whole text of a new candidate.
type Mutation interface {
	Name() string
	Mutate(ctx context.Context, rng *rand.Rand, corpus []*m.Sample, sample *m.Sample) (string, error)
}

// Names of the built-in mutations.
const (
	ReplaceName = "replace"
	AddName     = "add"
)

// Registry holds the mutations enabled for a run, in registration order.
type Registry struct {
	mutations []Mutation
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds mutation. Names must be unique.
func (r *Registry) Register(mutation Mutation) error {
	for _, existing := range r.mutations {
		if existing.Name() == mutation.Name() {
			return fmt.Errorf("mutation %q already registered", mutation.Name())
		}
	}

	r.mutations = append(r.mutations, mutation)

	return nil
}

// Mutations returns the registered mutations.
func (r *Registry) Mutations() []Mutation {
	return slices.Clone(r.mutations)
}

// Names lists registered mutation names.
func (r *Registry) Names() []string {
	names := make([]string, len(r.mutations))
	for i, mu := range r.mutations {
		names[i] = mu.Name()
	}

	return names
}

// Options configures the built-in mutations.
type Options struct {
	SubtreeLambda float64
	// EscapeProbability of zero means choosers.DefaultEscapeProbability.
	EscapeProbability float64
	RepairAll         bool
}

// NewDefaultRegistry builds a registry with the named built-in mutations.
func NewDefaultRegistry(names []string, opts Options) (*Registry, error) {
	if len(names) == 0 {
		names = []string{ReplaceName, AddName}
	}

	escape := opts.EscapeProbability
	if escape == 0 {
		escape = choosers.DefaultEscapeProbability
	}

	r := NewRegistry()

	for _, name := range names {
		var mu Mutation

		switch strings.ToLower(strings.TrimSpace(name)) {
		case ReplaceName:
			mu = NewReplaceWith(
				choosers.NewSubtreeChooserWith(opts.SubtreeLambda, escape),
				syntax.NewResolver(),
				opts.RepairAll,
			)
		case AddName:
			mu = NewAddWith(choosers.NewSubtreeChooserWith(opts.SubtreeLambda, escape))
		default:
			return nil, fmt.Errorf("unsupported mutation: %s", name)
		}

		if err := r.Register(mu); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// donorOrder shuffles the corpus. skip, when non-nil, is left out.
func donorOrder(rng *rand.Rand, corpus []*m.Sample, skip *m.Sample) []*m.Sample {
	order := rng.Perm(len(corpus))
	out := make([]*m.Sample, 0, len(corpus))

	for _, i := range order {
		if skip != nil && corpus[i] == skip {
			continue
		}

		out = append(out, corpus[i])
	}

	return out
}
