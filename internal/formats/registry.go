package formats

import (
	_ "embed"
	"fmt"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

//go:embed formats.toml
var capabilityTable []byte

type formatEntry struct {
	Category   string   `toml:"category"`
	MIME       string   `toml:"mime"`
	Operations []string `toml:"operations"`
	Targets    []string `toml:"targets"`
}

type lossyEntry struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

type table struct {
	Formats map[string]formatEntry `toml:"formats"`
	Lossy   []lossyEntry           `toml:"lossy"`
}

// Registry resolves format names to their capability sets. Immutable after
// construction; safe for concurrent readers.
type Registry struct {
	formats map[string]Format
	lossy   map[string]map[string]bool
	names   []string
}

// Load builds a Registry from the embedded capability table.
func Load() (*Registry, error) {
	return Parse(capabilityTable)
}

// Parse builds a Registry from TOML capability table data.
func Parse(data []byte) (*Registry, error) {
	var t table
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse capability table: %w", err)
	}

	if len(t.Formats) == 0 {
		return nil, fmt.Errorf("capability table declares no formats")
	}

	r := &Registry{
		formats: make(map[string]Format, len(t.Formats)),
		lossy:   make(map[string]map[string]bool),
	}

	for name, entry := range t.Formats {
		name = Normalize(name)

		ops := slices.Clone(entry.Operations)
		slices.Sort(ops)

		targets := make([]string, 0, len(entry.Targets))
		for _, target := range entry.Targets {
			targets = append(targets, Normalize(target))
		}
		slices.Sort(targets)

		r.formats[name] = Format{
			Name:       name,
			Category:   Category(entry.Category),
			MIME:       entry.MIME,
			Operations: ops,
			Targets:    targets,
		}
		r.names = append(r.names, name)
	}
	slices.Sort(r.names)

	for _, pair := range t.Lossy {
		from, to := Normalize(pair.From), Normalize(pair.To)
		if r.lossy[from] == nil {
			r.lossy[from] = make(map[string]bool)
		}
		r.lossy[from][to] = true
	}

	return r, nil
}

// Lookup resolves a format name or file extension to its Format.
// The second return is false when the format is unknown.
func (r *Registry) Lookup(name string) (Format, bool) {
	f, ok := r.formats[Normalize(name)]
	return f, ok
}

// Supports reports whether the named format supports the given operation.
// Unknown formats support nothing.
func (r *Registry) Supports(format, operation string) bool {
	f, ok := r.Lookup(format)
	if !ok {
		return false
	}
	return f.Supports(operation)
}

// ConversionTargets returns the formats the named format can be converted
// to, sorted lexicographically. Unknown formats have no targets.
func (r *Registry) ConversionTargets(format string) []string {
	f, ok := r.Lookup(format)
	if !ok {
		return nil
	}
	return slices.Clone(f.Targets)
}

// Lossy reports whether converting from one format to another is known to
// discard information.
func (r *Registry) Lossy(from, to string) bool {
	return r.lossy[Normalize(from)][Normalize(to)]
}

// ContentType returns the MIME type registered for the named format, or
// application/octet-stream for unknown formats and formats without one.
func (r *Registry) ContentType(name string) string {
	f, ok := r.Lookup(name)
	if !ok || f.MIME == "" {
		return "application/octet-stream"
	}
	return f.MIME
}

// Formats returns all registered formats sorted by name.
func (r *Registry) Formats() []Format {
	result := make([]Format, 0, len(r.names))
	for _, name := range r.names {
		result = append(result, r.formats[name])
	}
	return result
}
