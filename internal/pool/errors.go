package pool

import (
	"fmt"
)

// NodeError records one failed attempt against a node.
type NodeError struct {
	Node string
	Err  error
}

func (e NodeError) Error() string {
	return fmt.Sprintf("node %s: %v", e.Node, e.Err)
}

// AllNodesFailedError is returned when every node rejected an operation.
// Unwrap yields the error of the last node attempted; Attempts keeps all of them
// in attempt order.
type AllNodesFailedError struct {
	Attempts []NodeError
}

func (e *AllNodesFailedError) Error() string {
	if len(e.Attempts) == 0 {
		return "all nodes failed"
	}
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("all %d nodes failed, last error: %v", len(e.Attempts), last)
}

// Unwrap returns the last attempt's error.
func (e *AllNodesFailedError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// Last returns the last failed attempt.
func (e *AllNodesFailedError) Last() NodeError {
	if len(e.Attempts) == 0 {
		return NodeError{}
	}
	return e.Attempts[len(e.Attempts)-1]
}
