package engine

import (
	"maps"
	"slices"
)

// Blob is one named unit of data moving along a graph edge: the bytes of
// a produced file, its format, and the storage key once an Output node
// has persisted it.
type Blob struct {
	Format string
	Key    string
	Data   []byte
}

// Payload carries a node's inputs or outputs as named blobs. Blobs are
// treated as immutable once placed in a Payload; copies are shallow.
type Payload map[string]Blob

// Names returns the blob names in sorted order.
func (p Payload) Names() []string {
	names := slices.Collect(maps.Keys(p))
	slices.Sort(names)
	return names
}

// Clone returns a shallow copy of the payload.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	maps.Copy(out, p)
	return out
}

// MergePayloads unions payloads in argument order; on a name collision
// the later payload wins. Merging is how the coordinator assembles a
// node's input from its predecessors' outputs.
func MergePayloads(parts ...Payload) Payload {
	merged := make(Payload)
	for _, part := range parts {
		maps.Copy(merged, part)
	}
	return merged
}
