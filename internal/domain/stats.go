package domain

import (
	"maps"
	"sync"
	"time"

	m "sloth.dev/pkg/sloth/internal/model"
)

// runStats holds the counters of the current run. Counters only grow within
// a run; phase is overwritten.
type runStats struct {
	mu sync.Mutex

	runID        string
	startedAt    time.Time
	stoppedAt    time.Time
	generations  int
	compilations int
	successful   int
	mutations    int
	diagnostics  map[string]int
	phase        string
}

func (s *runStats) reset(runID string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runID = runID
	s.startedAt = now
	s.stoppedAt = time.Time{}
	s.generations = 0
	s.compilations = 0
	s.successful = 0
	s.mutations = 0
	s.diagnostics = make(map[string]int)
	s.phase = "Starting"
}

func (s *runStats) snapshotRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runID
}

// setPhase replaces the phase label and returns the previous one.
func (s *runStats) setPhase(phase string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.phase
	s.phase = phase

	return prev
}

func (s *runStats) stop(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stoppedAt = now
}

func (s *runStats) generationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.generations
}

func (s *runStats) nextGeneration() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generations++

	return s.generations
}

func (s *runStats) mutation() {
	s.mu.Lock()
	s.mutations++
	s.mu.Unlock()
}

func (s *runStats) compilation() {
	s.mu.Lock()
	s.compilations++
	s.mu.Unlock()
}

func (s *runStats) success() {
	s.mu.Lock()
	s.successful++
	s.mu.Unlock()
}

func (s *runStats) diagnostic(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.diagnostics == nil {
		s.diagnostics = make(map[string]int)
	}

	s.diagnostics[message]++
}

// Snapshot returns the run statistics.
func (e *Engine) Snapshot() m.Statistics {
	s := &e.stats

	s.mu.Lock()
	defer s.mu.Unlock()

	var uptime time.Duration

	if !s.startedAt.IsZero() {
		end := s.stoppedAt
		if end.IsZero() {
			end = e.now()
		}

		uptime = end.Sub(s.startedAt)
	}

	rate := 0.0
	if s.compilations > 0 {
		rate = float64(s.successful) / float64(s.compilations)
	}

	return m.Statistics{
		RunID:              s.runID,
		UptimeSeconds:      int64(uptime / time.Second),
		RunState:           e.State(),
		GenerationCount:    s.generations,
		CompileSuccessRate: rate,
		Phase:              s.phase,
		MutationCount:      s.mutations,
		Compilations:       s.compilations,
		Successful:         s.successful,
		PopulationSize:     len(e.Population()),
		Diagnostics:        maps.Clone(s.diagnostics),
	}
}
