package engine

import "fmt"

// NodeError wraps the failure of a single node.
type NodeError struct {
	Graph string
	Node  string
	Err   error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("graph '%s', node '%s': %v", e.Graph, e.Node, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// BranchError wraps the first failing branch of a fan-out.
type BranchError struct {
	Graph string
	Node  string
	Index int
	Err   error
}

func (e *BranchError) Error() string {
	return fmt.Sprintf("graph '%s', fan-out '%s' branch %d: %v", e.Graph, e.Node, e.Index, e.Err)
}

func (e *BranchError) Unwrap() error { return e.Err }
