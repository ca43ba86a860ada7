package engine

import (
	"context"
	"errors"
	"maps"

	"github.com/specialistvlad/testgrid/internal/channel"
	"github.com/specialistvlad/testgrid/internal/ctxlog"
	"github.com/specialistvlad/testgrid/internal/graph"
	"github.com/specialistvlad/testgrid/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type branchResult struct {
	index int
	input map[string]any
	out   map[string]any
}

// fanOut evaluates the router, runs one isolated child per branch and commits
// the results in branch order. Returning is the barrier.
func (e *Executor) fanOut(ctx context.Context, g *graph.Graph, n *graph.Node, state *channel.State) error {
	logger := ctxlog.FromContext(ctx)

	if err := requirePopulated(state, n.FanOut.Reads); err != nil {
		return err
	}
	branches, err := n.FanOut.Router(state.View(n.FanOut.Reads...))
	if err != nil {
		return err
	}

	// Values every branch shares. Reducers never mutate, so handing the same
	// value to all branches is safe.
	shared := make(map[string]any)
	for _, spec := range n.Sub.Inputs() {
		if _, declared := g.Channel(spec.Name); !declared {
			continue
		}
		if v, ok := state.Get(spec.Name); ok {
			shared[spec.Name] = v
		}
	}

	inputs := make([]map[string]any, len(branches))
	for i, b := range branches {
		if err := g.CheckSeed(n.Name, b.Seed); err != nil {
			return err
		}
		in := maps.Clone(shared)
		maps.Copy(in, b.Seed)
		inputs[i] = in
	}

	if len(branches) == 0 {
		logger.Debug("Fan-out produced no branches, nothing to run.")
		return nil
	}
	logger.Debug("Fanning out.", "branches", len(branches), "maxParallel", e.maxParallel)

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(e.maxParallel)
	done := make(chan branchResult, len(branches))

	var waitErr error
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i, in := range inputs {
			grp.Go(func() error {
				if err := gctx.Err(); err != nil {
					logger.Debug("Skipping branch, fan-out already failed.", "branch", i)
					e.metrics.ObserveBranch(g.Name(), n.Name, metrics.BranchSkipped)
					return err
				}
				out, err := e.runBranch(gctx, g, n, i, in)
				if err != nil {
					e.metrics.ObserveBranch(g.Name(), n.Name, metrics.BranchFailed)
					return &BranchError{Graph: g.Name(), Node: n.Name, Index: i, Err: err}
				}
				e.metrics.ObserveBranch(g.Name(), n.Name, metrics.BranchOK)
				done <- branchResult{index: i, input: in, out: out}
				return nil
			})
		}
		waitErr = grp.Wait()
		close(done)
	}()

	// Reorder buffer: results arrive in completion order and are committed in
	// branch order.
	pending := make(map[int]branchResult)
	next := 0
	var commitErr error
	for res := range done {
		pending[res.index] = res
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if commitErr == nil {
				commitErr = fold(state, n.Sub, r.input, r.out)
			}
		}
	}
	<-finished

	if waitErr != nil {
		var be *BranchError
		if errors.As(waitErr, &be) {
			logger.Warn("Fan-out failed, remaining branches cancelled.", "branch", be.Index, "error", be.Err)
			return be
		}
		return waitErr
	}
	if commitErr != nil {
		return commitErr
	}
	logger.Debug("Fan-out barrier reached.", "branches", len(branches))
	return nil
}

func (e *Executor) runBranch(ctx context.Context, g *graph.Graph, n *graph.Node, index int, input map[string]any) (map[string]any, error) {
	ctx = ctxlog.With(ctx, "branch", index)
	ctx, span := e.tracer.Start(ctx, "branch "+n.Name, trace.WithAttributes(
		attribute.String("graph", g.Name()),
		attribute.String("node", n.Name),
		attribute.Int("branch", index),
	))
	defer span.End()

	out, err := e.runGraph(ctx, n.Sub, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return out, nil
}
