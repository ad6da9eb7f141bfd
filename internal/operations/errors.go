package operations

import "errors"

var (
	// ErrUnknownOperation indicates a dispatch for an operation no runner
	// is bound to.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrBadConfig indicates a request whose configuration is missing or
	// of the wrong variant for its operation.
	ErrBadConfig = errors.New("invalid operation configuration")

	// ErrEmptyInput indicates an operation that requires input received
	// an empty payload.
	ErrEmptyInput = errors.New("operation received no input")

	// ErrUnsupportedFormat indicates an input blob whose format the
	// operation cannot process.
	ErrUnsupportedFormat = errors.New("unsupported input format")

	// ErrUnsupportedConversion indicates a source/target pair outside the
	// capability table.
	ErrUnsupportedConversion = errors.New("unsupported conversion")
)
