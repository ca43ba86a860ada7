// Package graph turns a declarative description of a workflow into an
// immutable, validated Graph that the engine can run.
//
// # Why Graph Package Exists
//
// Nodes in a workflow only ever talk to each other through channels. The
// builder is where that contract is checked: every channel a node reads or
// writes must be declared, every subgraph must agree with its parent on the
// channels they share, and the topology must be a DAG that starts at Start and
// drains into End. A graph that compiles can be run without further structural
// checks; what remains for run time is data (is the channel populated yet, do
// the fan-out seeds fit the target's inputs).
//
// # Schema
//
// A graph declares three groups of channels:
//   - **Input:** seeded by the caller (or the parent graph) before the run
//   - **Output:** returned to the caller and folded into the parent
//   - **Internal:** scratch channels visible only inside this graph
//
// A channel may appear in both Input and Output; this is how a subgraph
// refines a collection it was handed (e.g. drops items it could not process).
//
// # Nodes
//
// A node is either a NodeFunc or a compiled subgraph. NodeFunc nodes declare
// the channels they read and write. Subgraph nodes read their child's input
// schema from the parent and write the child's output schema back.
//
// # Fan-out
//
// AddFanOut attaches a Router to an edge whose target is a subgraph. When the
// target is reached, the router maps the parent state to zero or more
// branches, each seeding its own isolated copy of the subgraph:
//
//	b.AddFanOut("describe", "processor", func(in channel.View) ([]graph.Branch, error) {
//	    units, _ := channel.Entries[model.WorkUnit](in, "units")
//	    branches := make([]graph.Branch, len(units))
//	    for i, u := range units {
//	        branches[i] = graph.Branch{Seed: map[string]any{"unit": u}}
//	    }
//	    return branches, nil
//	}, "units")
//
// The target node itself is the barrier: nothing downstream runs until every
// branch has finished.
//
// # Ordering
//
// Graph.Order is a topological order in which ties are broken by the order
// nodes were added to the builder. Two compilations of the same builder calls
// always produce the same order.
package graph
