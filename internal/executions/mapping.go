package executions

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/JaimeStill/cascade/pkg/query"
	"github.com/JaimeStill/cascade/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "executions", "e").
	Project("id", "ID").
	Project("workflow_id", "WorkflowID").
	Project("status", "Status").
	Project("progress", "Progress").
	Project("started_at", "StartedAt").
	Project("completed_at", "CompletedAt").
	Project("error", "Error").
	Project("nodes", "Nodes").
	Project("output_files", "OutputFiles")

var defaultSort = query.SortField{
	Field:      "StartedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for execution queries.
// Nil fields are ignored; both use exact matching.
type Filters struct {
	Status     *string    `json:"status,omitempty"`
	WorkflowID *uuid.UUID `json:"workflow_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("WorkflowID", f.WorkflowID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if w := values.Get("workflow_id"); w != "" {
		if id, err := uuid.Parse(w); err == nil {
			f.WorkflowID = &id
		}
	}

	return f
}

func scanExecution(s repository.Scanner) (Execution, error) {
	var (
		e         Execution
		nodesJSON []byte
		filesJSON []byte
	)

	err := s.Scan(
		&e.ID,
		&e.WorkflowID,
		&e.Status,
		&e.Progress,
		&e.StartedAt,
		&e.CompletedAt,
		&e.Error,
		&nodesJSON,
		&filesJSON,
	)
	if err != nil {
		return e, err
	}

	if err := json.Unmarshal(nodesJSON, &e.Nodes); err != nil {
		return e, fmt.Errorf("decode execution nodes: %w", err)
	}
	if err := json.Unmarshal(filesJSON, &e.OutputFiles); err != nil {
		return e, fmt.Errorf("decode execution output files: %w", err)
	}
	return e, nil
}
