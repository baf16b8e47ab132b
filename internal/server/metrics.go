package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sloth.dev/pkg/sloth/internal/domain"
	m "sloth.dev/pkg/sloth/internal/model"
)

const metricsNamespace = "sloth"

// statCollector exports one Stat snapshot per scrape.
type statCollector struct {
	fuzzer domain.Fuzzer

	generations  *prometheus.Desc
	mutations    *prometheus.Desc
	compilations *prometheus.Desc
	successful   *prometheus.Desc
	successRate  *prometheus.Desc
	population   *prometheus.Desc
	uptime       *prometheus.Desc
	state        *prometheus.Desc
	diagnostics  *prometheus.Desc
}

func newStatCollector(fuzzer domain.Fuzzer) *statCollector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", name), help, labels, nil)
	}

	return &statCollector{
		fuzzer:       fuzzer,
		generations:  desc("generations_total", "Generations completed in the current run."),
		mutations:    desc("mutations_total", "Mutation attempts in the current run."),
		compilations: desc("compilations_total", "Compiler invocations for offspring."),
		successful:   desc("successful_compilations_total", "Offspring that compiled cleanly."),
		successRate:  desc("compile_success_rate", "Successful compilations divided by compilations."),
		population:   desc("population_size", "Samples in the current generation."),
		uptime:       desc("uptime_seconds", "Seconds since the current run started."),
		state:        desc("run_state", "1 for the current run state.", "state"),
		diagnostics:  desc("diagnostics_total", "Occurrences per distinct failure message.", "message"),
	}
}

func (c *statCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.generations
	ch <- c.mutations
	ch <- c.compilations
	ch <- c.successful
	ch <- c.successRate
	ch <- c.population
	ch <- c.uptime
	ch <- c.state
	ch <- c.diagnostics
}

func (c *statCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stat, err := c.fuzzer.Stat(ctx)
	if err != nil {
		slog.Warn("Failed to collect statistics", "error", err)
		return
	}

	counter := func(d *prometheus.Desc, v int) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}

	counter(c.generations, stat.GenerationCount)
	counter(c.mutations, stat.MutationCount)
	counter(c.compilations, stat.Compilations)
	counter(c.successful, stat.Successful)

	ch <- prometheus.MustNewConstMetric(c.successRate, prometheus.GaugeValue, stat.CompileSuccessRate)
	ch <- prometheus.MustNewConstMetric(c.population, prometheus.GaugeValue, float64(stat.PopulationSize))
	ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.GaugeValue, float64(stat.UptimeSeconds))

	for _, state := range []m.RunState{m.Stopped, m.Started, m.Paused} {
		v := 0.0
		if stat.RunState == state {
			v = 1
		}

		ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, v, state.String())
	}

	for msg, n := range stat.Diagnostics {
		ch <- prometheus.MustNewConstMetric(c.diagnostics, prometheus.CounterValue, float64(n), msg)
	}
}
