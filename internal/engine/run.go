package engine

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run is one live execution. The coordinator is its only writer; status
// polls read consistent copies through Snapshot. Cancellation is a flag
// the coordinator observes between waves, never a hard kill.
type Run struct {
	mu        sync.Mutex
	record    Record
	cancelled bool
}

// NewRun creates a pending run for the given workflow.
func NewRun(id, workflowID uuid.UUID) *Run {
	return &Run{
		record: Record{
			ID:          id,
			WorkflowID:  workflowID,
			Status:      StatusPending,
			StartedAt:   time.Now().UTC(),
			Nodes:       map[string]NodeState{},
			OutputFiles: []string{},
		},
	}
}

// ID returns the run's execution id.
func (r *Run) ID() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record.ID
}

// Snapshot returns a consistent copy of the current record.
func (r *Run) Snapshot() Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copyRecord()
}

// Cancel requests cooperative cancellation: in-flight dispatches finish,
// no further wave starts, and the run finalizes as Failed. Cancelling a
// terminal run has no effect.
func (r *Run) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.record.Status.Terminal() {
		r.cancelled = true
	}
}

func (r *Run) cancelRequested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

// begin registers the scheduled nodes and moves the run to Running.
func (r *Run) begin(scheduled []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range scheduled {
		r.record.Nodes[id] = NodeState{Status: NodeIdle}
	}
	r.record.Status = StatusRunning
}

func (r *Run) markRunning(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node := r.record.Nodes[id]
	node.Status = NodeRunning
	r.record.Nodes[id] = node
}

// settle records one node's terminal result and recomputes overall
// progress. The first failure becomes the run's error.
func (r *Run) settle(id string, response Response) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node := r.record.Nodes[id]
	if response.Success {
		node.Status = NodeCompleted
		node.Progress = 100
	} else {
		node.Status = NodeError
		if response.Err != nil {
			node.Error = response.Err.Error()
		}
		if r.record.Error == "" {
			r.record.Error = fmt.Sprintf("node %s: %s", id, node.Error)
		}
	}
	r.record.Nodes[id] = node
	r.recomputeProgress()
}

// recomputeProgress derives overall progress from settled node count.
// Progress holds at 99 until finalize so that 100 coincides exactly with
// a terminal status, even in the window between the last settle and
// finalization. Caller holds the lock.
func (r *Run) recomputeProgress() {
	total := len(r.record.Nodes)
	if total == 0 {
		return
	}

	settled := 0
	for _, node := range r.record.Nodes {
		if node.Status.Terminal() {
			settled++
		}
	}

	progress := settled * 100 / total
	if progress >= 100 && !r.record.Status.Terminal() {
		progress = 99
	}
	r.record.Progress = progress
}

// addOutputs records the files an Output node produced, preferring
// storage keys over blob names.
func (r *Run) addOutputs(data Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range data.Names() {
		blob := data[name]
		if blob.Key != "" {
			r.record.OutputFiles = append(r.record.OutputFiles, blob.Key)
		} else {
			r.record.OutputFiles = append(r.record.OutputFiles, name)
		}
	}
}

// finalize settles every remaining node with its cause, fixes the
// terminal status, and returns the finished record. Progress lands at
// exactly 100: every scheduled node is terminal once finalize returns.
func (r *Run) finalize(causes map[string]string, cancelled bool) Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	failed := cancelled
	for id, node := range r.record.Nodes {
		if node.Status.Terminal() {
			if node.Status == NodeError {
				failed = true
			}
			continue
		}
		node.Status = NodeError
		node.Error = causes[id]
		r.record.Nodes[id] = node
		failed = true
	}

	if failed {
		r.record.Status = StatusFailed
	} else {
		r.record.Status = StatusCompleted
	}
	if cancelled && r.record.Error == "" {
		r.record.Error = ErrCancelled.Error()
	}

	now := time.Now().UTC()
	r.record.CompletedAt = &now
	r.record.Progress = 100
	return r.copyRecord()
}

// abort finalizes a run that never scheduled: planning failed before any
// node was registered.
func (r *Run) abort(message string) Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record.Status = StatusFailed
	r.record.Error = message
	now := time.Now().UTC()
	r.record.CompletedAt = &now
	r.record.Progress = 100
	return r.copyRecord()
}

func (r *Run) copyRecord() Record {
	record := r.record
	record.Nodes = maps.Clone(r.record.Nodes)
	record.OutputFiles = slices.Clone(r.record.OutputFiles)
	return record
}
