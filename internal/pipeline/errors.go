package pipeline

import "errors"

var (
	// ErrUnknownKind indicates a node kind outside the closed set.
	ErrUnknownKind = errors.New("unknown node kind")

	// ErrMissingConfig indicates a node whose kind requires configuration
	// carries none.
	ErrMissingConfig = errors.New("missing node configuration")

	// ErrInvalidConfig indicates a configuration payload that does not
	// satisfy its kind's variant.
	ErrInvalidConfig = errors.New("invalid node configuration")
)
