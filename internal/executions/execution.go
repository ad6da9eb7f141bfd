// Package executions implements the execution domain for Cascade. It
// submits stored workflows to the execution engine, tracks live runs in
// an in-memory store, and persists terminal records to Postgres. Poll
// reads consult the active store first so that running executions report
// fresh progress; finished executions are served from the table.
package executions

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/cascade/internal/engine"
)

// Execution is the pollable state of one workflow run. While the run is
// live this mirrors the engine record snapshot; once terminal it is the
// persisted row.
type Execution struct {
	ID          uuid.UUID                   `json:"id"`
	WorkflowID  uuid.UUID                   `json:"workflow_id"`
	Status      engine.Status               `json:"status"`
	Progress    int                         `json:"progress"`
	StartedAt   time.Time                   `json:"started_at"`
	CompletedAt *time.Time                  `json:"completed_at,omitempty"`
	Error       string                      `json:"error,omitempty"`
	Nodes       map[string]engine.NodeState `json:"nodes"`
	OutputFiles []string                    `json:"output_files"`
}

// SubmitCommand names the workflow to run and the registered documents
// that seed its input nodes.
type SubmitCommand struct {
	WorkflowID  uuid.UUID   `json:"workflow_id"`
	DocumentIDs []uuid.UUID `json:"document_ids"`
}

func fromRecord(record engine.Record) Execution {
	return Execution{
		ID:          record.ID,
		WorkflowID:  record.WorkflowID,
		Status:      record.Status,
		Progress:    record.Progress,
		StartedAt:   record.StartedAt,
		CompletedAt: record.CompletedAt,
		Error:       record.Error,
		Nodes:       record.Nodes,
		OutputFiles: record.OutputFiles,
	}
}
