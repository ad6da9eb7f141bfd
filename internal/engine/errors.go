package engine

import "errors"

var (
	// ErrTimeout indicates a dispatched operation exceeded its allotted
	// time and its worker slot was recycled.
	ErrTimeout = errors.New("operation timed out")

	// ErrCancelled indicates the run was cancelled before completion.
	ErrCancelled = errors.New("execution cancelled")

	// ErrUpstreamFailure indicates a node was skipped because a node it
	// depends on failed.
	ErrUpstreamFailure = errors.New("upstream node failed")

	// ErrUnschedulable indicates the planner could not order every
	// connected node, which means a cycle or dangling edge survived
	// validation.
	ErrUnschedulable = errors.New("graph is not schedulable")
)
