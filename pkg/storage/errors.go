package storage

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound reports that no blob exists under the requested key.
	ErrNotFound = errors.New("blob not found")
	// ErrEmptyKey rejects operations on an empty storage key.
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidKey rejects keys that traverse outside the container.
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
)

// MapHTTPStatus resolves a storage error to the status code the blob
// endpoints respond with. Unknown errors surface as 500.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
