package workflows

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JaimeStill/cascade/internal/validation"
)

// Domain errors for workflow operations.
var (
	ErrNotFound     = errors.New("workflow not found")
	ErrDuplicate    = errors.New("workflow already exists")
	ErrInvalidInput = errors.New("invalid workflow input")
	ErrInvalidGraph = errors.New("workflow graph failed validation")
)

// ValidationError carries the full validation report for a graph rejected
// at create or update. Handlers surface the report in the response body so
// the editor can mark up the offending nodes and edges.
type ValidationError struct {
	Report validation.Report
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %d error(s)", ErrInvalidGraph, len(e.Report.Errors))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidGraph
}

// MapHTTPStatus maps workflow domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidGraph) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
