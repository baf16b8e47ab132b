package model

import (
	"fmt"
	"strings"
)

// RunState is the engine state machine position.
type RunState int

const (
	// Stopped means no loop is running.
	Stopped RunState = iota
	// Started means the generational loop is running.
	Started
	// Paused means the loop is parked at its checkpoint.
	Paused
)

func (s RunState) String() string {
	switch s {
	case Stopped:
		return "Stop"
	case Started:
		return "Start"
	case Paused:
		return "Pause"
	default:
		return fmt.Sprintf("RunState(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s RunState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *RunState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Stop":
		*s = Stopped
	case "Start":
		*s = Started
	case "Pause":
		*s = Paused
	default:
		return fmt.Errorf("unknown run state %q", text)
	}

	return nil
}

// SortOrder selects the ranking used by generation listings.
type SortOrder string

// Available sort orders.
const (
	SortByScore      SortOrder = "score"
	SortByAnalyze    SortOrder = "analyze"
	SortByGenerate   SortOrder = "generate"
	SortByNodeCount  SortOrder = "nodes"
	SortByTextLength SortOrder = "length"
	SortByName       SortOrder = "name"
)

// SortOrders lists every accepted sort order.
var SortOrders = []SortOrder{
	SortByScore, SortByAnalyze, SortByGenerate, SortByNodeCount, SortByTextLength, SortByName,
}

// ParseSortOrder accepts the canonical names case-insensitively.
func ParseSortOrder(value string) (SortOrder, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return SortByScore, nil
	}

	for _, order := range SortOrders {
		if string(order) == v {
			return order, nil
		}
	}

	return "", fmt.Errorf("unknown sort order %q", value)
}

// Statistics is a point-in-time view of a run.
type Statistics struct {
	RunID              string         `json:"runId"`
	UptimeSeconds      int64          `json:"uptimeSeconds"`
	RunState           RunState       `json:"runState"`
	GenerationCount    int            `json:"generationCount"`
	CompileSuccessRate float64        `json:"compileSuccessRate"`
	Phase              string         `json:"phase"`
	MutationCount      int            `json:"mutationCount"`
	Compilations       int            `json:"compilations"`
	Successful         int            `json:"successful"`
	PopulationSize     int            `json:"populationSize"`
	Diagnostics        map[string]int `json:"diagnostics,omitempty"`
}

// Snippet is one row of a generation listing.
type Snippet struct {
	ID      string   `json:"id"`
	Metrics *Metrics `json:"metrics"`
	Value   float64  `json:"value"`
}

// LineageStep is one edge in the ancestry of a sample.
type LineageStep struct {
	ID       string `json:"id"`
	Mutation string `json:"mutation,omitempty"`
	Diff     string `json:"diff,omitempty"`
}

// SampleDetail is a sample with its ancestry.
type SampleDetail struct {
	Snippet
	Text    string        `json:"text"`
	Lineage []LineageStep `json:"lineage"`
}
