// Package metrics exposes Prometheus collectors for workflow runs. Each Engine
// owns its registry, so tests and concurrent runs never share counters.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "testgrid"

// Branch outcomes recorded by ObserveBranch.
const (
	BranchOK      = "ok"
	BranchFailed  = "failed"
	BranchSkipped = "skipped"
)

// Engine groups the collectors the executor and collaborators report to. A nil
// *Engine is valid and records nothing.
type Engine struct {
	registry     *prometheus.Registry
	nodeRuns     *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	branches     *prometheus.CounterVec
	generations  *prometheus.CounterVec
	written      prometheus.Counter
}

// New creates an Engine backed by a fresh registry.
func New() *Engine {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Engine{
		registry: reg,
		nodeRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_runs_total",
			Help:      "Node executions by graph, node and outcome.",
		}, []string{"graph", "node", "status"}),
		nodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Wall time spent in a node, subgraphs included.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"graph", "node"}),
		branches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fanout_branches_total",
			Help:      "Fan-out branches by target node and outcome.",
		}, []string{"graph", "node", "status"}),
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_calls_total",
			Help:      "Text generation calls by backend and outcome.",
		}, []string{"backend", "status"}),
		written: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_written_total",
			Help:      "Output artifacts persisted to storage.",
		}),
	}
}

// Registry returns the registry holding every collector.
func (e *Engine) Registry() *prometheus.Registry {
	if e == nil {
		return nil
	}
	return e.registry
}

// Branches exposes the fan-out branch counter, labelled graph, node, status.
func (e *Engine) Branches() *prometheus.CounterVec {
	return e.branches
}

// Written exposes the persisted artifact counter.
func (e *Engine) Written() prometheus.Counter {
	return e.written
}

// ObserveNode records one node execution.
func (e *Engine) ObserveNode(graph, node string, d time.Duration, err error) {
	if e == nil {
		return
	}
	e.nodeRuns.WithLabelValues(graph, node, status(err)).Inc()
	e.nodeDuration.WithLabelValues(graph, node).Observe(d.Seconds())
}

// ObserveBranch records the outcome of one fan-out branch.
func (e *Engine) ObserveBranch(graph, node, outcome string) {
	if e == nil {
		return
	}
	e.branches.WithLabelValues(graph, node, outcome).Inc()
}

// ObserveGeneration records one call to a text generation backend.
func (e *Engine) ObserveGeneration(backend string, err error) {
	if e == nil {
		return
	}
	e.generations.WithLabelValues(backend, status(err)).Inc()
}

// ObserveWritten records persisted artifacts.
func (e *Engine) ObserveWritten(n int) {
	if e == nil {
		return
	}
	e.written.Add(float64(n))
}

// WriteTextfile dumps every collector in the text exposition format, for
// pickup by a node_exporter textfile collector.
func (e *Engine) WriteTextfile(path string) error {
	if e == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, e.registry)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
