package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies a node's operation. The set is closed: JSON decoding
// rejects kinds outside it rather than deferring the failure to run time.
type Kind string

const (
	KindInput     Kind = "input"
	KindSplit     Kind = "split"
	KindMerge     Kind = "merge"
	KindExtract   Kind = "extract"
	KindConvert   Kind = "convert"
	KindCompress  Kind = "compress"
	KindOcr       Kind = "ocr"
	KindCondition Kind = "condition"
	KindOutput    Kind = "output"
)

// Kinds returns every node kind in canonical order.
func Kinds() []Kind {
	return []Kind{
		KindInput,
		KindSplit,
		KindMerge,
		KindExtract,
		KindConvert,
		KindCompress,
		KindOcr,
		KindCondition,
		KindOutput,
	}
}

// ParseKind maps a string onto a known Kind.
func ParseKind(value string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Kinds() {
		if kind == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, value)
}

func (k Kind) String() string {
	return string(k)
}

// Operation returns the capability-registry operation name this kind
// performs against a format.
func (k Kind) Operation() string {
	return string(k)
}

// RequiresConfig reports whether nodes of this kind must carry a
// configuration payload.
func (k Kind) RequiresConfig() bool {
	switch k {
	case KindSplit, KindExtract, KindConvert, KindCompress, KindOcr:
		return true
	}
	return false
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrUnknownKind, err)
	}
	parsed, err := ParseKind(raw)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Node is a single typed operation in a pipeline graph. Config holds the
// kind-specific payload as raw JSON; ParseConfig decodes it into the
// matching variant. InputFormats narrows which formats the node accepts,
// OutputFormat names what it emits when fixed (a Convert node's output is
// its config target instead), and SupportedFormats narrows an Input
// node's accepted uploads.
type Node struct {
	ID               string          `json:"id"`
	Kind             Kind            `json:"kind"`
	Label            string          `json:"label,omitempty"`
	Config           json.RawMessage `json:"config,omitempty"`
	InputFormats     []string        `json:"input_formats,omitempty"`
	OutputFormat     string          `json:"output_format,omitempty"`
	SupportedFormats []string        `json:"supported_formats,omitempty"`
}

// HasConfig reports whether the node carries a non-empty configuration
// payload.
func (n Node) HasConfig() bool {
	trimmed := strings.TrimSpace(string(n.Config))
	return trimmed != "" && trimmed != "null" && trimmed != "{}"
}

// ParseConfig decodes the node's raw configuration into the variant for
// its kind and validates the variant's fields. Kinds that never carry
// configuration return nil.
func (n Node) ParseConfig() (Config, error) {
	return DecodeConfig(n.Kind, n.Config)
}
