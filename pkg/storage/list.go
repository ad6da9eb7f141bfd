package storage

import (
	"fmt"
	"strconv"
	"time"
)

// MaxListCap bounds a single list page regardless of caller request.
const MaxListCap int32 = 5000

// ObjectMeta describes one stored blob.
type ObjectMeta struct {
	Key           string    `json:"key"`
	ContentType   string    `json:"content_type,omitempty"`
	ContentLength int64     `json:"content_length"`
	LastModified  time.Time `json:"last_modified"`
	ETag          string    `json:"etag,omitempty"`
}

// ListResult is one page of blob listings. A non-empty NextMarker means
// more blobs remain; pass it back as the marker of the next call.
type ListResult struct {
	Objects    []ObjectMeta `json:"objects"`
	NextMarker string       `json:"next_marker,omitempty"`
}

// ParseMaxResults interprets a max_results query value: empty selects the
// fallback, anything non-positive or non-numeric is rejected, and values
// beyond MaxListCap are clamped.
func ParseMaxResults(value string, fallback int32) (int32, error) {
	if value == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("max_results must be a positive integer: %q", value)
	}
	if n <= 0 {
		return 0, fmt.Errorf("max_results must be positive: %d", n)
	}

	return min(int32(n), MaxListCap), nil
}
