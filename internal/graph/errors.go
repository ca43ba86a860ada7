package graph

import (
	"errors"
	"fmt"
)

// ErrSchemaMismatch is the kind of every SchemaMismatchError.
var ErrSchemaMismatch = errors.New("schema mismatch")

// SchemaMismatchError reports a structural problem with a graph: an
// undeclared channel, incompatible subgraph schemas, bad fan-out seeds or a
// broken topology.
type SchemaMismatchError struct {
	Graph string
	Node  string
	Msg   string
}

func (e *SchemaMismatchError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("graph '%s': %s: %s", e.Graph, ErrSchemaMismatch, e.Msg)
	}
	return fmt.Sprintf("graph '%s', node '%s': %s: %s", e.Graph, e.Node, ErrSchemaMismatch, e.Msg)
}

func (e *SchemaMismatchError) Unwrap() error { return ErrSchemaMismatch }

// Mismatchf builds a SchemaMismatchError. The engine uses it for checks that
// can only happen at run time.
func Mismatchf(graph, node, format string, args ...any) *SchemaMismatchError {
	return mismatchf(graph, node, format, args...)
}

func mismatchf(graph, node, format string, args ...any) *SchemaMismatchError {
	return &SchemaMismatchError{Graph: graph, Node: node, Msg: fmt.Sprintf(format, args...)}
}
