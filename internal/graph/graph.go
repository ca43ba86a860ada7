package graph

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/specialistvlad/testgrid/internal/channel"
)

// Start and End are the pseudo-nodes every graph begins and ends at.
const (
	Start = "__start__"
	End   = "__end__"
)

// NodeFunc is the body of a plain node. It receives a snapshot of the channels
// it declared as reads and returns deltas for the channels it declared as
// writes.
type NodeFunc func(ctx context.Context, in channel.View) (channel.Update, error)

// Branch is one instance of a fan-out target. Seed values are written into the
// branch's input channels before it runs.
type Branch struct {
	Seed map[string]any
}

// Router decides how many branches a fan-out spawns and what each one sees.
type Router func(in channel.View) ([]Branch, error)

// FanOut describes a computed edge into a subgraph node.
type FanOut struct {
	From   string
	Router Router
	Reads  []string
}

// Node is a compiled node. Exactly one of Func and Sub is set.
type Node struct {
	Name   string
	Func   NodeFunc
	Sub    *Graph
	Reads  []string
	Writes []string
	FanOut *FanOut
}

// Graph is an immutable, validated workflow.
type Graph struct {
	name     string
	inputs   []channel.Spec
	outputs  []channel.Spec
	internal []channel.Spec
	specs    map[string]channel.Spec
	nodes    map[string]*Node
	order    []string
}

// Name returns the graph's name.
func (g *Graph) Name() string { return g.name }

// Inputs returns the input schema.
func (g *Graph) Inputs() []channel.Spec { return slices.Clone(g.inputs) }

// Outputs returns the output schema.
func (g *Graph) Outputs() []channel.Spec { return slices.Clone(g.outputs) }

// Order returns node names in execution order.
func (g *Graph) Order() []string { return slices.Clone(g.order) }

// Node returns a compiled node by name.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Channel returns a declared channel by name.
func (g *Graph) Channel(name string) (channel.Spec, bool) {
	s, ok := g.specs[name]
	return s, ok
}

// NewState creates an empty state over every declared channel.
func (g *Graph) NewState() (*channel.State, error) {
	specs := make([]channel.Spec, 0, len(g.specs))
	for _, name := range slices.Sorted(maps.Keys(g.specs)) {
		specs = append(specs, g.specs[name])
	}
	return channel.NewState(specs...)
}

// IsInput reports whether name is part of the input schema.
func (g *Graph) IsInput(name string) bool {
	return slices.ContainsFunc(g.inputs, func(s channel.Spec) bool { return s.Name == name })
}

// CheckInputs verifies caller-supplied values against the input schema: every
// key must be an input and every value must fit the channel type. Missing
// inputs are reported too unless partial is set.
func (g *Graph) CheckInputs(values map[string]any, partial bool) error {
	for _, key := range slices.Sorted(maps.Keys(values)) {
		spec, ok := g.specs[key]
		if !ok || !g.IsInput(key) {
			return mismatchf(g.name, "", "'%s' is not an input", key)
		}
		if v := values[key]; v == nil || !reflect.TypeOf(v).AssignableTo(spec.Type) {
			return mismatchf(g.name, "", "input '%s' has type %T, want %s", key, values[key], spec.Type)
		}
	}
	if partial {
		return nil
	}
	for _, in := range g.inputs {
		if _, ok := values[in.Name]; !ok {
			return mismatchf(g.name, "", "input '%s' not provided", in.Name)
		}
	}
	return nil
}

// CheckSeed verifies a fan-out branch seed against the target subgraph's
// input schema.
func (g *Graph) CheckSeed(node string, seed map[string]any) error {
	n, ok := g.nodes[node]
	if !ok || n.Sub == nil {
		return mismatchf(g.name, node, "fan-out target is not a subgraph")
	}
	if err := n.Sub.CheckInputs(seed, true); err != nil {
		return mismatchf(g.name, node, "bad seed: %s", err.(*SchemaMismatchError).Msg)
	}
	return nil
}

func (g *Graph) String() string {
	return fmt.Sprintf("graph(%s, %d nodes)", g.name, len(g.nodes))
}
