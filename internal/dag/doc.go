// Package dag holds the bare topology behind a compiled workflow graph: node
// ids, directed edges, cycle detection and a deterministic topological order.
// It knows nothing about channels or node functions; internal/graph layers
// those on top.
package dag
