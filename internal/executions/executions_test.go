package executions_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/cascade/internal/executions"
	"github.com/JaimeStill/cascade/internal/validation"
)

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", executions.ErrNotFound, http.StatusNotFound},
		{"workflow not found", executions.ErrWorkflowNotFound, http.StatusNotFound},
		{"invalid graph", executions.ErrInvalidGraph, http.StatusUnprocessableEntity},
		{"not running", executions.ErrNotRunning, http.StatusConflict},
		{"invalid input", executions.ErrInvalidInput, http.StatusBadRequest},
		{"unknown error", errors.New("something else"), http.StatusInternalServerError},
		{"wrapped invalid input", fmt.Errorf("submit: %w", executions.ErrInvalidInput), http.StatusBadRequest},
		{
			"validation error unwraps to invalid graph",
			&executions.ValidationError{Report: validation.Report{}},
			http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := executions.MapHTTPStatus(tt.err)
			if got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	workflowID := uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")

	t.Run("all params present", func(t *testing.T) {
		values := url.Values{
			"status":      {"failed"},
			"workflow_id": {workflowID.String()},
		}

		f := executions.FiltersFromQuery(values)

		if f.Status == nil || *f.Status != "failed" {
			t.Errorf("Status = %v, want failed", f.Status)
		}
		if f.WorkflowID == nil || *f.WorkflowID != workflowID {
			t.Errorf("WorkflowID = %v, want %v", f.WorkflowID, workflowID)
		}
	})

	t.Run("invalid workflow_id ignored", func(t *testing.T) {
		f := executions.FiltersFromQuery(url.Values{"workflow_id": {"not-a-uuid"}})

		if f.WorkflowID != nil {
			t.Errorf("WorkflowID = %v, want nil for invalid input", f.WorkflowID)
		}
	})

	t.Run("empty params yield nil fields", func(t *testing.T) {
		f := executions.FiltersFromQuery(url.Values{})

		if f.Status != nil {
			t.Errorf("Status = %v, want nil", f.Status)
		}
		if f.WorkflowID != nil {
			t.Errorf("WorkflowID = %v, want nil", f.WorkflowID)
		}
	})
}
