package executions

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JaimeStill/cascade/internal/validation"
)

// Domain errors for execution operations.
var (
	ErrNotFound         = errors.New("execution not found")
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrInvalidInput     = errors.New("invalid execution input")
	ErrInvalidGraph     = errors.New("workflow graph failed validation for the submitted inputs")
	ErrNotRunning       = errors.New("execution already finished")
)

// ValidationError carries the validation report produced when a stored
// graph is checked against the submitted input documents. Submission is
// rejected with the report so the caller can see which input does not fit.
type ValidationError struct {
	Report validation.Report
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %d error(s)", ErrInvalidGraph, len(e.Report.Errors))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidGraph
}

// MapHTTPStatus maps execution domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrWorkflowNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidGraph) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, ErrNotRunning) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
