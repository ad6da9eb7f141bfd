// Package formats implements the format capability registry for Cascade.
// It answers which operations a document format supports and which formats
// it can be converted to, from a static capability table loaded once at
// process start. The registry is an explicitly constructed value passed to
// consumers; it is never a package-level mutable global, so concurrent
// validations cannot interfere through it.
package formats

import (
	"slices"
	"strings"
)

// Category groups formats by broad document family.
type Category string

// Valid format categories.
const (
	CategoryDocument    Category = "document"
	CategoryImage       Category = "image"
	CategorySpreadsheet Category = "spreadsheet"
	CategoryText        Category = "text"
)

// Format describes a file format's capability set: the operations it can
// participate in, the formats it can be converted to, and the content type
// its bytes are served under.
type Format struct {
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	MIME       string   `json:"mime"`
	Operations []string `json:"operations"`
	Targets    []string `json:"targets"`
}

// Supports reports whether the format supports the named operation.
func (f Format) Supports(operation string) bool {
	return slices.Contains(f.Operations, operation)
}

// Normalize canonicalizes a format name or file extension: lowercased,
// leading dot stripped, common aliases (jpeg, tif) collapsed.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))

	switch name {
	case "jpeg":
		return "jpg"
	case "tif":
		return "tiff"
	}

	return name
}
