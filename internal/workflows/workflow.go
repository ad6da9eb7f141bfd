// Package workflows implements the workflow domain for Cascade.
// A workflow is a named, persisted pipeline graph authored in the visual
// editor. The domain stores graphs as JSONB, validates them against the
// format capability registry on every create and update, and rejects
// structurally broken graphs before they ever reach the execution engine.
package workflows

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/cascade/internal/pipeline"
)

// Workflow is a persisted pipeline definition. Graph round-trips through
// JSONB exactly as authored; node and edge declaration order is preserved.
type Workflow struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Graph       pipeline.Graph `json:"graph"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CreateCommand carries the data needed to register a new workflow.
type CreateCommand struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Graph       pipeline.Graph `json:"graph"`
}

// UpdateCommand carries a full replacement definition for an existing workflow.
type UpdateCommand struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Graph       pipeline.Graph `json:"graph"`
}
