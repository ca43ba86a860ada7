// Package engine is the "Execution Layer" of the application. It runs a
// compiled graph.Graph against a fresh channel.State and returns the values of
// the graph's output channels.
//
// Nodes run one at a time in the graph's topological order. The only
// concurrency is inside a fan-out target: its branches run in parallel, each
// on an isolated copy of the target subgraph, bounded by WithMaxParallel.
// Branch results are committed back to the parent in the order the router
// produced them, whatever order they finish in, and nothing downstream of the
// target runs until every branch has finished.
//
// The first branch failure cancels the branches that have not started yet,
// waits for the ones in flight, and fails the run with a *BranchError.
package engine
