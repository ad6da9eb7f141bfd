// Package engine executes validated pipeline graphs. The planner layers a
// graph into waves of independent nodes, the dispatcher runs individual
// node operations on a fixed worker pool, and the coordinator drives the
// two across a whole run: wiring upstream outputs into downstream inputs,
// holding the wave barrier, applying the partial-failure policy, and
// keeping a pollable execution record current.
//
// The engine never interprets document bytes itself. Each node operation
// is an opaque call through the Runner interface; the operations package
// provides the production implementation.
package engine

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of one execution run.
// Pending -> Running -> (Completed | Failed); terminal states never
// transition again.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// NodeStatus is the lifecycle state of one node within a run.
type NodeStatus string

const (
	NodeIdle      NodeStatus = "idle"
	NodeRunning   NodeStatus = "running"
	NodeCompleted NodeStatus = "completed"
	NodeError     NodeStatus = "error"
)

// Terminal reports whether the node has settled.
func (s NodeStatus) Terminal() bool {
	return s == NodeCompleted || s == NodeError
}

// NodeState tracks one node's run within a single execution.
type NodeState struct {
	Status   NodeStatus `json:"status"`
	Progress int        `json:"progress"`
	Error    string     `json:"error,omitempty"`
}

// Record is the pollable state of one execution. Progress counts settled
// nodes against scheduled nodes, 0-100; it is non-decreasing and reaches
// exactly 100 when Status turns terminal. Only the coordinator mutates a
// Record; readers receive copies via Run.Snapshot.
type Record struct {
	ID          uuid.UUID            `json:"id"`
	WorkflowID  uuid.UUID            `json:"workflow_id"`
	Status      Status               `json:"status"`
	Progress    int                  `json:"progress"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	Error       string               `json:"error,omitempty"`
	Nodes       map[string]NodeState `json:"nodes"`
	OutputFiles []string             `json:"output_files"`
}
