package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/specialistvlad/testgrid/internal/channel"
	"github.com/specialistvlad/testgrid/internal/ctxlog"
	"github.com/specialistvlad/testgrid/internal/graph"
	"github.com/specialistvlad/testgrid/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultMaxParallel bounds fan-out concurrency when no option is given.
const DefaultMaxParallel = 8

// Executor runs compiled graphs. It holds no per-run state and may be shared.
type Executor struct {
	maxParallel int
	metrics     *metrics.Engine
	tracer      trace.Tracer
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxParallel bounds how many branches of one fan-out run at once.
func WithMaxParallel(n int) Option {
	return func(e *Executor) {
		if n < 1 {
			n = 1
		}
		e.maxParallel = n
	}
}

// WithMetrics reports node and branch outcomes to m.
func WithMetrics(m *metrics.Engine) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithTracer wraps runs, nodes and branches in spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Executor) { e.tracer = t }
}

// New creates an Executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		maxParallel: DefaultMaxParallel,
		tracer:      noop.NewTracerProvider().Tracer("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes g once. input must provide a value for every input channel;
// the result holds every populated output channel.
func (e *Executor) Run(ctx context.Context, g *graph.Graph, input map[string]any) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx).With("graph", g.Name())
	logger.Info("🚀 Starting graph execution...", "nodes", len(g.Order()), "maxParallel", e.maxParallel)
	start := time.Now()

	out, err := e.runGraph(ctx, g, input)
	if err != nil {
		logger.Error("Graph execution failed.", "error", err, "elapsed", time.Since(start))
		return nil, err
	}

	logger.Info("🏁 Execution finished.", "elapsed", time.Since(start))
	return out, nil
}

// runGraph is Run without the top-level logging; subgraphs and branches go
// through here.
func (e *Executor) runGraph(ctx context.Context, g *graph.Graph, input map[string]any) (map[string]any, error) {
	ctx, span := e.tracer.Start(ctx, "graph "+g.Name(), trace.WithAttributes(attribute.String("graph", g.Name())))
	defer span.End()

	out, err := e.execute(ctx, g, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

func (e *Executor) execute(ctx context.Context, g *graph.Graph, input map[string]any) (map[string]any, error) {
	if err := g.CheckInputs(input, false); err != nil {
		return nil, err
	}
	state, err := g.NewState()
	if err != nil {
		return nil, graph.Mismatchf(g.Name(), "", "%v", err)
	}
	for _, name := range slices.Sorted(maps.Keys(input)) {
		spec, _ := state.Spec(name)
		if err := state.ApplyAll(name, spec.Reducer.Diff(nil, input[name])); err != nil {
			return nil, fmt.Errorf("seed graph '%s': %w", g.Name(), err)
		}
	}

	for _, name := range g.Order() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, _ := g.Node(name)
		if err := e.runNode(ctx, g, n, state); err != nil {
			return nil, err
		}
	}

	out := make(map[string]any)
	for _, spec := range g.Outputs() {
		if v, ok := state.Get(spec.Name); ok {
			out[spec.Name] = v
		}
	}
	return out, nil
}

func (e *Executor) runNode(ctx context.Context, g *graph.Graph, n *graph.Node, state *channel.State) error {
	ctx = ctxlog.With(ctx, "node", n.Name)
	logger := ctxlog.FromContext(ctx)

	ctx, span := e.tracer.Start(ctx, "node "+n.Name, trace.WithAttributes(
		attribute.String("graph", g.Name()),
		attribute.String("node", n.Name),
	))
	defer span.End()

	logger.Debug("Node started.")
	start := time.Now()

	var err error
	switch {
	case n.FanOut != nil:
		err = e.fanOut(ctx, g, n, state)
	case n.Sub != nil:
		err = e.runSubgraph(ctx, g, n, state)
	default:
		err = e.runFunc(ctx, g, n, state)
	}

	e.metrics.ObserveNode(g.Name(), n.Name, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Node execution failed.", "error", err)
		if be, ok := err.(*BranchError); ok && n.FanOut != nil {
			return be
		}
		return &NodeError{Graph: g.Name(), Node: n.Name, Err: err}
	}
	logger.Debug("Node execution succeeded.", "elapsed", time.Since(start))
	return nil
}

func (e *Executor) runFunc(ctx context.Context, g *graph.Graph, n *graph.Node, state *channel.State) error {
	if err := requirePopulated(state, n.Reads); err != nil {
		return err
	}
	upd, err := n.Func(ctx, state.View(n.Reads...))
	if err != nil {
		return err
	}
	for _, name := range slices.Sorted(maps.Keys(upd)) {
		if !slices.Contains(n.Writes, name) {
			return graph.Mismatchf(g.Name(), n.Name, "wrote undeclared channel '%s'", name)
		}
	}
	return state.Apply(upd)
}

func (e *Executor) runSubgraph(ctx context.Context, g *graph.Graph, n *graph.Node, state *channel.State) error {
	if err := requirePopulated(state, n.Reads); err != nil {
		return err
	}
	input := make(map[string]any, len(n.Reads))
	for _, name := range n.Reads {
		input[name], _ = state.Get(name)
	}
	out, err := e.runGraph(ctx, n.Sub, input)
	if err != nil {
		return err
	}
	return fold(state, n.Sub, input, out)
}

// fold merges a finished child run into the parent state. Each output is
// turned into deltas by the parent's reducer relative to what the child was
// seeded with, so a child that drops entries from a log it was handed drops
// them in the parent too.
func fold(state *channel.State, sub *graph.Graph, input, out map[string]any) error {
	for _, spec := range sub.Outputs() {
		after, ok := out[spec.Name]
		if !ok {
			continue
		}
		parent, _ := state.Spec(spec.Name)
		if err := state.ApplyAll(spec.Name, parent.Reducer.Diff(input[spec.Name], after)); err != nil {
			return err
		}
	}
	return nil
}

func requirePopulated(state *channel.State, names []string) error {
	for _, name := range names {
		if !state.Populated(name) {
			return fmt.Errorf("read '%s': %w", name, channel.ErrNotPopulated)
		}
	}
	return nil
}
