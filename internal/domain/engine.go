package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sloth.dev/pkg/sloth/internal/adapter"
	"sloth.dev/pkg/sloth/internal/domain/choosers"
	"sloth.dev/pkg/sloth/internal/domain/mutagens"
	m "sloth.dev/pkg/sloth/internal/model"
	"sloth.dev/pkg/sloth/internal/syntax"
)

var (
	// ErrAlreadyRunning is returned by Start unless the engine is stopped.
	ErrAlreadyRunning = errors.New("fuzzer is already running")
	// ErrNotRunning is returned by Stop and TogglePause on a stopped engine.
	ErrNotRunning = errors.New("fuzzer is not running")
	// ErrLoopFinished is returned by TogglePause when the loop exited before
	// it could acknowledge the pause.
	ErrLoopFinished = errors.New("generation loop has finished")
)

// Phase labels reported through Statistics.
const (
	PhaseIdle      = "Idle"
	PhaseLoading   = "Loading initial population"
	PhasePaused    = "Paused"
	PhaseExhausted = "Population exhausted"
	PhaseStopped   = "Stopped"
)

// Defaults for EngineConfig.
const (
	DefaultTargetSize = 4000
	DefaultOvergrow   = 200
	DefaultRepeat     = 5
	DefaultSeed       = 1999
)

// EngineConfig tunes the generational loop.
type EngineConfig struct {
	TargetSize int
	Overgrow   int
	// Repeat is the number of compiler runs averaged per sample.
	Repeat int
	Seed   int64
	// Parallel bounds concurrent scoring of corpus seeds.
	Parallel int
	Kernel   m.Kernel
	// RankOffspring extra mutants per generation take their parent from a
	// rank-biased draw over the sorted population.
	RankOffspring int
	RankLambda    float64
	// CheckpointInterval saves the population every that many generations.
	// Zero saves only after a fresh initial load.
	CheckpointInterval int
}

func (c *EngineConfig) applyDefaults() {
	if c.TargetSize <= 0 {
		c.TargetSize = DefaultTargetSize
	}

	if c.Overgrow < 0 {
		c.Overgrow = 0
	}

	if c.Repeat <= 0 {
		c.Repeat = DefaultRepeat
	}

	if c.Parallel <= 0 {
		c.Parallel = 1
	}

	if c.RankLambda <= 0 {
		c.RankLambda = choosers.DefaultIndexLambda
	}
}

// Engine owns the run state machine, the population and the statistics.
//
// Start, Stop and TogglePause serialize on one mutex. The loop goroutine is
// the only writer of the population, which it publishes as an immutable
// slice so Stat, Generation and Sample never block on it.
type Engine struct {
	cfg       EngineConfig
	corpus    Corpus
	fitness   FitnessFunction
	mutations []mutagens.Mutation
	store     adapter.CheckpointStore

	pickMutation choosers.Chooser[[]mutagens.Mutation, mutagens.Mutation]
	pickRanked   choosers.Chooser[[]*m.Sample, *m.Sample]

	mu     sync.Mutex
	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}

	pauseReq chan struct{}
	pauseAck chan struct{}
	resume   chan struct{}

	population atomic.Pointer[[]*m.Sample]
	seq        atomic.Uint64
	// rng is owned by the loop goroutine.
	rng *rand.Rand

	stats runStats
	now   func() time.Time
}

// NewEngine constructs a stopped engine.
func NewEngine(
	cfg EngineConfig,
	corpus Corpus,
	fitness FitnessFunction,
	mutations []mutagens.Mutation,
	store adapter.CheckpointStore,
) (*Engine, error) {
	if len(mutations) == 0 {
		return nil, errors.New("at least one mutation is required")
	}

	if corpus == nil || fitness == nil {
		return nil, errors.New("corpus and fitness function are required")
	}

	cfg.applyDefaults()

	e := &Engine{
		cfg:          cfg,
		corpus:       corpus,
		fitness:      fitness,
		mutations:    mutations,
		store:        store,
		pickMutation: choosers.Uniform[mutagens.Mutation](),
		pickRanked:   choosers.Rank[*m.Sample](cfg.RankLambda),
		pauseReq:     make(chan struct{}, 1),
		pauseAck:     make(chan struct{}, 1),
		resume:       make(chan struct{}, 1),
		rng:          rand.New(rand.NewSource(cfg.Seed)), // #nosec G404 - reproducible runs need a seeded source
		now:          time.Now,
	}

	e.stats.phase = PhaseIdle

	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() EngineConfig {
	return e.cfg
}

// State returns the current state machine position.
func (e *Engine) State() m.RunState {
	return m.RunState(e.state.Load())
}

func (e *Engine) setState(s m.RunState) {
	e.state.Store(int32(s))
}

// Start launches the generational loop.
func (e *Engine) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.State() != m.Stopped {
		return ErrAlreadyRunning
	}

	e.stats.reset(uuid.NewString(), e.now())
	e.drainSignals()

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	e.cancel = cancel
	e.done = done
	e.setState(m.Started)

	slog.Info("Starting generation loop", "run", e.stats.snapshotRunID(), "target", e.cfg.TargetSize)

	go func() {
		defer close(done)
		e.run(loopCtx)
	}()

	return nil
}

// Stop cancels the loop and waits for it to unwind. A paused loop is
// resumed first so it can observe the cancellation.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.State() == m.Stopped {
		return ErrNotRunning
	}

	if e.State() == m.Paused {
		e.signal(e.resume)
		e.setState(m.Started)
	}

	e.cancel()

	select {
	case <-e.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	e.drainSignals()
	e.setState(m.Stopped)
	e.stats.setPhase(PhaseStopped)
	e.stats.stop(e.now())

	slog.Info("Stopped generation loop", "generations", e.stats.generationCount())

	return nil
}

// TogglePause pauses a started loop or resumes a paused one. Pausing blocks
// until the loop parks at its next checkpoint, the loop exits, or ctx ends.
func (e *Engine) TogglePause(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.State() {
	case m.Stopped:
		return ErrNotRunning
	case m.Paused:
		e.signal(e.resume)
		e.setState(m.Started)
		slog.Info("Resumed generation loop")

		return nil
	}

	e.drainSignals()
	e.signal(e.pauseReq)

	select {
	case <-e.pauseAck:
		e.setState(m.Paused)
		slog.Info("Paused generation loop")

		return nil
	case <-e.done:
		drain(e.pauseReq)
		return ErrLoopFinished
	case <-ctx.Done():
		select {
		case <-e.pauseReq:
			// withdrawn before the loop saw it
		default:
			// the loop took the request; let it continue
			e.signal(e.resume)
		}

		return ctx.Err()
	}
}

func (e *Engine) drainSignals() {
	drain(e.pauseReq)
	drain(e.pauseAck)
	drain(e.resume)
}

func (e *Engine) signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func drain(ch chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

// checkpoint is the only place the loop parks. It returns ctx.Err() once the
// loop is cancelled.
func (e *Engine) checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case <-e.pauseReq:
	default:
		return nil
	}

	prev := e.stats.setPhase(PhasePaused)
	e.signal(e.pauseAck)

	select {
	case <-e.resume:
		e.stats.setPhase(prev)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Population returns the published generation, sorted by descending fitness.
func (e *Engine) Population() []*m.Sample {
	p := e.population.Load()
	if p == nil {
		return nil
	}

	return *p
}

func (e *Engine) publish(population []*m.Sample) {
	e.population.Store(&population)
}

func (e *Engine) run(ctx context.Context) {
	population := e.Population()

	if len(population) == 0 {
		e.stats.setPhase(PhaseLoading)

		loaded, err := e.loadInitial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			slog.Error("Failed to load initial population", "error", err)
			e.stats.setPhase("Failed to load initial population: " + err.Error())

			return
		}

		population = loaded
	}

	for {
		if len(population) == 0 {
			slog.Warn("Population exhausted", "generation", e.stats.generationCount())
			e.stats.setPhase(PhaseExhausted)

			return
		}

		population = SortByValue(population, e.cfg.Kernel)
		e.publish(population)

		if err := e.checkpoint(ctx); err != nil {
			return
		}

		next, err := e.step(ctx, population)
		if err != nil {
			return
		}

		population = next
		e.publish(population)

		gen := e.stats.nextGeneration()
		slog.Debug("Finished generation", "generation", gen, "population", len(population))

		if e.cfg.CheckpointInterval > 0 && gen%e.cfg.CheckpointInterval == 0 {
			e.save(ctx, population)
		}
	}
}

// step runs one generation over a sorted population and returns the next
// one, sorted.
func (e *Engine) step(ctx context.Context, population []*m.Sample) ([]*m.Sample, error) {
	e.crossover(population)

	offspring, err := e.mutationPhase(ctx, population)
	if err != nil {
		return nil, err
	}

	merged := make([]*m.Sample, 0, len(population)+len(offspring))
	merged = append(merged, population...)
	merged = append(merged, offspring...)

	if len(merged) > e.cfg.TargetSize+e.cfg.Overgrow {
		e.stats.setPhase(fmt.Sprintf("Generation %d: filtering", e.stats.generationCount()))
		merged = Filter(e.rng, merged, e.cfg.TargetSize, e.cfg.Kernel)
	}

	return SortByValue(merged, e.cfg.Kernel), nil
}

// crossover is reserved for recombination between samples.
func (e *Engine) crossover([]*m.Sample) {}

func (e *Engine) mutationPhase(ctx context.Context, population []*m.Sample) ([]*m.Sample, error) {
	gen := e.stats.generationCount()
	total := len(population) + e.cfg.RankOffspring

	var next []*m.Sample

	for i := range total {
		if err := e.checkpoint(ctx); err != nil {
			return nil, err
		}

		e.stats.setPhase(fmt.Sprintf("Generation %d: mutating %d/%d", gen, i+1, total))

		parent := e.parentAt(population, i)
		if parent == nil {
			continue
		}

		child, err := e.offspring(ctx, gen, population, parent)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			slog.Debug("Dropped offspring", "parent", parent.ID, "error", err)
			e.stats.diagnostic(err.Error())

			continue
		}

		next = append(next, child)
	}

	return next, nil
}

func (e *Engine) parentAt(population []*m.Sample, i int) *m.Sample {
	if i < len(population) {
		return population[i]
	}

	parent, ok := e.pickRanked.Choose(e.rng, population, choosers.Always[*m.Sample])
	if !ok {
		return nil
	}

	return parent
}

func (e *Engine) offspring(ctx context.Context, gen int, population []*m.Sample, parent *m.Sample) (*m.Sample, error) {
	mutation, ok := e.pickMutation.Choose(e.rng, e.mutations, choosers.Always[mutagens.Mutation])
	if !ok {
		return nil, errors.New("no mutation available")
	}

	e.stats.mutation()

	code, err := mutation.Mutate(ctx, e.rng, population, parent)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", mutation.Name(), err)
	}

	if code == parent.Text {
		return nil, fmt.Errorf("%s: %w", mutation.Name(), mutagens.ErrUnchanged)
	}

	e.stats.compilation()

	metrics, err := e.measure(ctx, code)
	if err != nil {
		return nil, err
	}

	if metrics.Successful {
		e.stats.success()
	}

	id := fmt.Sprintf("%s%d-%d", m.GeneratedIDPrefix, gen, e.seq.Add(1))

	return m.NewSample(id, code, metrics, &m.MutationInfo{
		Source:   parent,
		Mutation: mutation.Name(),
		Result:   code,
	}), nil
}

// measure scores code and counts its syntax nodes.
func (e *Engine) measure(ctx context.Context, code string) (*m.Metrics, error) {
	tree, err := syntax.Parse(code)
	if err != nil {
		return nil, err
	}

	score, err := ScoreAvg(ctx, e.fitness, code, e.cfg.Repeat, e.stats.diagnostic)
	if err != nil {
		return nil, err
	}

	return &m.Metrics{
		Analyze:    score.Analyze,
		Generate:   score.Generate,
		Successful: score.Compiled,
		TextLength: m.TextLength(code),
		NodeCount:  tree.Len(),
	}, nil
}

func (e *Engine) loadInitial(ctx context.Context) ([]*m.Sample, error) {
	if e.store != nil {
		samples, ok, err := e.store.Load(ctx)

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			slog.Warn("Failed to load checkpoint, scoring corpus", "error", err)
		case ok && len(samples) > 0:
			slog.Info("Loaded checkpoint", "population", len(samples))
			return samples, nil
		}
	}

	seeds, err := e.corpus.Samples(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	scored, err := e.scoreSeeds(ctx, seeds)
	if err != nil {
		return nil, err
	}

	if len(scored) == 0 {
		return nil, errors.New("no corpus sample could be scored")
	}

	e.save(ctx, scored)

	return scored, nil
}

// scoreSeeds scores seeds in windows of Parallel concurrent compilations,
// keeping corpus order, until TargetSize samples are collected.
func (e *Engine) scoreSeeds(ctx context.Context, seeds []*m.Sample) ([]*m.Sample, error) {
	scored := make([]*m.Sample, 0, min(len(seeds), e.cfg.TargetSize))

	for start := 0; start < len(seeds) && len(scored) < e.cfg.TargetSize; start += e.cfg.Parallel {
		if err := e.checkpoint(ctx); err != nil {
			return nil, err
		}

		window := seeds[start:min(start+e.cfg.Parallel, len(seeds))]
		results := make([]*m.Sample, len(window))

		e.stats.setPhase(fmt.Sprintf("Scoring corpus %d/%d", start+len(window), len(seeds)))

		group, groupCtx := errgroup.WithContext(ctx)

		for i, seed := range window {
			group.Go(func() error {
				if seed.Metrics != nil {
					results[i] = seed
					return nil
				}

				metrics, err := e.measure(groupCtx, seed.Text)
				if err != nil {
					if groupCtx.Err() != nil {
						return groupCtx.Err()
					}

					slog.Warn("Failed to score seed", "seed", seed.ID, "error", err)
					e.stats.diagnostic(err.Error())

					return nil
				}

				results[i] = seed.WithMetrics(metrics)

				return nil
			})
		}

		if err := group.Wait(); err != nil {
			return nil, err
		}

		for _, s := range results {
			if s != nil && len(scored) < e.cfg.TargetSize {
				scored = append(scored, s)
			}
		}
	}

	return scored, nil
}

func (e *Engine) save(ctx context.Context, population []*m.Sample) {
	if e.store == nil {
		return
	}

	if err := e.store.Save(ctx, population); err != nil {
		if ctx.Err() == nil {
			slog.Error("Failed to save checkpoint", "error", err)
		}

		return
	}

	slog.Debug("Saved checkpoint", "population", len(population))
}

// SortByValue returns a copy of population ordered by descending fitness.
// Equal values keep their relative order.
func SortByValue(population []*m.Sample, k m.Kernel) []*m.Sample {
	out := append([]*m.Sample(nil), population...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value(k) > out[j].Value(k)
	})

	return out
}

// Filter cuts population down to target. A random handful of lucky
// survivors, at most a tenth of the population, is kept first; the rest are
// the fittest. The result has unique ids and is sorted by fitness.
func Filter(rng *rand.Rand, population []*m.Sample, target int, k m.Kernel) []*m.Sample {
	ranked := SortByValue(population, k)

	shuffled := append([]*m.Sample(nil), population...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	lucky := shuffled[:rng.Intn(len(shuffled)/10+1)]

	out := make([]*m.Sample, 0, target)
	seen := make(map[string]struct{}, target)

	for _, s := range append(lucky, ranked...) {
		if len(out) == target {
			break
		}

		if _, dup := seen[s.ID]; dup {
			continue
		}

		seen[s.ID] = struct{}{}
		out = append(out, s)
	}

	return SortByValue(out, k)
}
