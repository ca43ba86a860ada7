package graph

import (
	"errors"
	"slices"

	"github.com/specialistvlad/testgrid/internal/channel"
	"github.com/specialistvlad/testgrid/internal/dag"
)

// Builder accumulates a graph description. Problems are collected and
// reported together by Compile, so calls can be chained.
type Builder struct {
	name     string
	inputs   []channel.Spec
	outputs  []channel.Spec
	internal []channel.Spec
	nodes    []*Node
	edges    [][2]string
	fanouts  []FanOut
	targets  []string
	errs     []error
}

// NodeOption configures a plain node.
type NodeOption func(*Node)

// Reads declares the channels a node receives in its view.
func Reads(names ...string) NodeOption {
	return func(n *Node) { n.Reads = append(n.Reads, names...) }
}

// Writes declares the channels a node may return deltas for.
func Writes(names ...string) NodeOption {
	return func(n *Node) { n.Writes = append(n.Writes, names...) }
}

// New starts a builder for a graph with the given name.
func New(name string) *Builder {
	return &Builder{name: name}
}

// Input declares channels seeded by the caller.
func (b *Builder) Input(specs ...channel.Spec) *Builder {
	b.inputs = append(b.inputs, specs...)
	return b
}

// Output declares channels returned by the run.
func (b *Builder) Output(specs ...channel.Spec) *Builder {
	b.outputs = append(b.outputs, specs...)
	return b
}

// Internal declares channels private to this graph.
func (b *Builder) Internal(specs ...channel.Spec) *Builder {
	b.internal = append(b.internal, specs...)
	return b
}

// AddNode adds a plain node.
func (b *Builder) AddNode(name string, fn NodeFunc, opts ...NodeOption) *Builder {
	if fn == nil {
		b.errs = append(b.errs, mismatchf(b.name, name, "node function is nil"))
		return b
	}
	n := &Node{Name: name, Func: fn}
	for _, opt := range opts {
		opt(n)
	}
	b.nodes = append(b.nodes, n)
	return b
}

// AddSubgraph adds a compiled graph as a node. It reads the child's inputs
// from this graph and writes the child's outputs back.
func (b *Builder) AddSubgraph(name string, sub *Graph) *Builder {
	if sub == nil {
		b.errs = append(b.errs, mismatchf(b.name, name, "subgraph is nil"))
		return b
	}
	n := &Node{Name: name, Sub: sub}
	for _, s := range sub.inputs {
		n.Reads = append(n.Reads, s.Name)
	}
	for _, s := range sub.outputs {
		n.Writes = append(n.Writes, s.Name)
	}
	b.nodes = append(b.nodes, n)
	return b
}

// AddEdge adds a static edge. Start and End may be used as endpoints.
func (b *Builder) AddEdge(from, to string) *Builder {
	b.edges = append(b.edges, [2]string{from, to})
	return b
}

// AddFanOut adds a computed edge from one node into a subgraph node. reads
// lists the channels the router may look at.
func (b *Builder) AddFanOut(from, target string, route Router, reads ...string) *Builder {
	if route == nil {
		b.errs = append(b.errs, mismatchf(b.name, target, "fan-out router is nil"))
		return b
	}
	b.edges = append(b.edges, [2]string{from, target})
	b.fanouts = append(b.fanouts, FanOut{From: from, Router: route, Reads: reads})
	b.targets = append(b.targets, target)
	return b
}

// Compile validates the description and returns an immutable Graph. All
// problems found are returned joined; each is a *SchemaMismatchError.
func (b *Builder) Compile() (*Graph, error) {
	errs := slices.Clone(b.errs)
	fail := func(node, format string, args ...any) {
		errs = append(errs, mismatchf(b.name, node, format, args...))
	}

	g := &Graph{
		name:     b.name,
		inputs:   slices.Clone(b.inputs),
		outputs:  slices.Clone(b.outputs),
		internal: slices.Clone(b.internal),
		specs:    make(map[string]channel.Spec),
		nodes:    make(map[string]*Node, len(b.nodes)),
	}

	declare := func(group string, specs []channel.Spec) {
		for _, s := range specs {
			if prev, ok := g.specs[s.Name]; ok && !prev.Compatible(s) {
				fail("", "%s channel %s conflicts with %s", group, s, prev)
				continue
			}
			g.specs[s.Name] = s
		}
	}
	declare("input", b.inputs)
	declare("output", b.outputs)
	declare("internal", b.internal)

	topo := dag.New()
	topo.AddNode(Start)
	var compiled []*Node
	for _, src := range b.nodes {
		n := &Node{Name: src.Name, Func: src.Func, Sub: src.Sub, Reads: slices.Clone(src.Reads), Writes: slices.Clone(src.Writes)}
		if n.Name == Start || n.Name == End || n.Name == "" {
			fail(n.Name, "reserved or empty node name")
			continue
		}
		if topo.Has(n.Name) {
			fail(n.Name, "node declared twice")
			continue
		}
		topo.AddNode(n.Name)
		g.nodes[n.Name] = n
		compiled = append(compiled, n)
	}
	topo.AddNode(End)

	for i, fo := range b.fanouts {
		target := b.targets[i]
		n, ok := g.nodes[target]
		switch {
		case !ok:
			fail(target, "fan-out target not declared")
		case n.Sub == nil:
			fail(target, "fan-out target must be a subgraph")
		case n.FanOut != nil:
			fail(target, "node is the target of more than one fan-out")
		default:
			n.FanOut = &fo
			for _, ch := range fo.Reads {
				if _, ok := g.specs[ch]; !ok {
					fail(target, "fan-out router reads undeclared channel '%s'", ch)
				}
			}
		}
	}

	for _, n := range compiled {
		if n.Sub != nil {
			b.checkSubgraph(g, n, fail)
			continue
		}
		for _, ch := range n.Reads {
			if _, ok := g.specs[ch]; !ok {
				fail(n.Name, "reads undeclared channel '%s'", ch)
			}
		}
		for _, ch := range n.Writes {
			if _, ok := g.specs[ch]; !ok {
				fail(n.Name, "writes undeclared channel '%s'", ch)
			}
		}
	}

	for _, out := range b.outputs {
		if slices.ContainsFunc(b.inputs, func(s channel.Spec) bool { return s.Name == out.Name }) {
			continue
		}
		written := false
		for _, n := range g.nodes {
			if slices.Contains(n.Writes, out.Name) {
				written = true
				break
			}
		}
		if !written {
			fail("", "output channel '%s' is never written", out.Name)
		}
	}

	for _, e := range b.edges {
		if e[0] == End || e[1] == Start {
			fail("", "edge %s -> %s runs backwards through a pseudo-node", e[0], e[1])
			continue
		}
		if err := topo.AddEdge(e[0], e[1]); err != nil {
			fail("", "bad edge: %v", err)
		}
	}

	if err := topo.DetectCycles(); err != nil {
		fail("", "%v", err)
	} else {
		reach := topo.Reachable(Start)
		for _, id := range topo.Nodes() {
			if !reach[id] {
				fail(id, "unreachable from start")
				continue
			}
			if id == End {
				continue
			}
			next, _ := topo.Dependents(id)
			if len(next) == 0 {
				fail(id, "has no path to end")
			}
		}

		order, err := topo.TopologicalOrder()
		if err != nil {
			fail("", "%v", err)
		}
		for _, id := range order {
			if id != Start && id != End {
				g.order = append(g.order, id)
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return g, nil
}

// checkSubgraph verifies that a child's schema lines up with the parent's
// channels. Fan-out targets may take inputs the parent does not declare; those
// must then come from the branch seed.
func (b *Builder) checkSubgraph(g *Graph, n *Node, fail func(string, string, ...any)) {
	for _, in := range n.Sub.inputs {
		parent, ok := g.specs[in.Name]
		if !ok {
			if n.FanOut == nil {
				fail(n.Name, "subgraph '%s' input %s missing in parent", n.Sub.name, in)
			}
			continue
		}
		if !parent.Compatible(in) {
			fail(n.Name, "subgraph '%s' input %s does not match parent %s", n.Sub.name, in, parent)
		}
	}
	for _, out := range n.Sub.outputs {
		parent, ok := g.specs[out.Name]
		if !ok {
			fail(n.Name, "subgraph '%s' output %s missing in parent", n.Sub.name, out)
			continue
		}
		if !parent.Compatible(out) {
			fail(n.Name, "subgraph '%s' output %s does not match parent %s", n.Sub.name, out, parent)
		}
	}
}
