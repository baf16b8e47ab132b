package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"sloth.dev/pkg/sloth/internal/adapter"
	m "sloth.dev/pkg/sloth/internal/model"
)

// ErrMissingMarker means the compiler output lacked a timing marker.
var ErrMissingMarker = errors.New("timing marker not found")

// Default timing marker patterns. The first submatch is the value in milliseconds.
const (
	DefaultAnalyzeMarker  = `analysis time is (\d+) ms`
	DefaultGenerateMarker = `generation time is (\d+) ms`
)

// FitnessFunction measures how long the compiler spends on a program.
// report receives every error-severity message produced while scoring.
type FitnessFunction interface {
	Score(ctx context.Context, code string, report func(message string)) (m.Score, error)
}

type compileTimeFitness struct {
	compiler adapter.CompilerAdapter
	analyze  *regexp.Regexp
	generate *regexp.Regexp
}

// NewCompileTimeFitness builds a FitnessFunction over compiler. Empty marker
// patterns select the defaults.
func NewCompileTimeFitness(compiler adapter.CompilerAdapter, analyzeMarker, generateMarker string) (FitnessFunction, error) {
	if analyzeMarker == "" {
		analyzeMarker = DefaultAnalyzeMarker
	}

	if generateMarker == "" {
		generateMarker = DefaultGenerateMarker
	}

	analyze, err := compileMarker(analyzeMarker)
	if err != nil {
		return nil, err
	}

	generate, err := compileMarker(generateMarker)
	if err != nil {
		return nil, err
	}

	return &compileTimeFitness{compiler: compiler, analyze: analyze, generate: generate}, nil
}

func compileMarker(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid marker %q: %w", pattern, err)
	}

	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("marker %q has no capture group", pattern)
	}

	return re, nil
}

func (f *compileTimeFitness) Score(ctx context.Context, code string, report func(string)) (m.Score, error) {
	result, err := f.compiler.Compile(ctx, code)
	if err != nil {
		return m.Score{}, fmt.Errorf("compile: %w", err)
	}

	analyze, aok := findMarker(f.analyze, result.Messages)
	generate, gok := findMarker(f.generate, result.Messages)

	errs := result.Errors()
	if report != nil {
		for _, msg := range errs {
			report(msg)
		}
	}

	if !aok || !gok {
		return m.Score{}, ErrMissingMarker
	}

	return m.Score{
		Analyze:  m.Timing{Mean: analyze},
		Generate: m.Timing{Mean: generate},
		Compiled: result.Success && len(errs) == 0,
	}, nil
}

func findMarker(re *regexp.Regexp, messages []adapter.CompilerMessage) (int, bool) {
	for _, msg := range messages {
		match := re.FindStringSubmatch(msg.Text)
		if match == nil {
			continue
		}

		v, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}

		return v, true
	}

	return 0, false
}

// ScoreAvg scores code n times and folds the results: timings become
// mean and population standard deviation (both truncated to whole
// milliseconds), Compiled holds only if every repeat compiled.
func ScoreAvg(ctx context.Context, f FitnessFunction, code string, n int, report func(string)) (m.Score, error) {
	if n < 1 {
		n = 1
	}

	analyze := make([]int, 0, n)
	generate := make([]int, 0, n)
	compiled := true

	for range n {
		score, err := f.Score(ctx, code, report)
		if err != nil {
			return m.Score{}, err
		}

		analyze = append(analyze, score.Analyze.Mean)
		generate = append(generate, score.Generate.Mean)
		compiled = compiled && score.Compiled
	}

	return m.Score{
		Analyze:  summarize(analyze),
		Generate: summarize(generate),
		Compiled: compiled,
	}, nil
}

func summarize(values []int) m.Timing {
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}

	// deviation is taken around the truncated mean
	mean := int(sum / float64(len(values)))

	var sq float64
	for _, v := range values {
		d := float64(v - mean)
		sq += d * d
	}

	return m.Timing{
		Mean:   mean,
		Stddev: int(math.Sqrt(sq / float64(len(values)))),
	}
}
