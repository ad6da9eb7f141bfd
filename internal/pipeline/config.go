package pipeline

import (
	"encoding/json"
	"fmt"
)

// Config is the decoded configuration payload of a node. Each configurable
// kind has exactly one variant; DecodeConfig selects it by kind so config
// shape errors surface at graph construction rather than mid-execution.
type Config interface {
	ConfigKind() Kind
	Validate() error
}

// SplitConfig breaks a document into one output per page range. Ranges are
// inclusive 1-based [first, last] pairs.
type SplitConfig struct {
	Ranges [][2]int `json:"ranges"`
}

func (c *SplitConfig) ConfigKind() Kind { return KindSplit }

func (c *SplitConfig) Validate() error {
	if len(c.Ranges) == 0 {
		return fmt.Errorf("%w: split requires at least one page range", ErrInvalidConfig)
	}
	for i, r := range c.Ranges {
		if r[0] < 1 {
			return fmt.Errorf("%w: split range %d starts at page %d, pages are 1-based", ErrInvalidConfig, i, r[0])
		}
		if r[1] < r[0] {
			return fmt.Errorf("%w: split range %d ends before it starts (%d-%d)", ErrInvalidConfig, i, r[0], r[1])
		}
	}
	return nil
}

// ExtractConfig pulls content out of a document: whole pages, raw text,
// or embedded images.
type ExtractConfig struct {
	Pages  []int  `json:"pages"`
	Target string `json:"target,omitempty"`
}

const (
	ExtractPages  = "pages"
	ExtractText   = "text"
	ExtractImages = "images"
)

func (c *ExtractConfig) ConfigKind() Kind { return KindExtract }

func (c *ExtractConfig) Validate() error {
	if len(c.Pages) == 0 {
		return fmt.Errorf("%w: extract requires at least one page", ErrInvalidConfig)
	}
	for i, page := range c.Pages {
		if page < 1 {
			return fmt.Errorf("%w: extract page %d is %d, pages are 1-based", ErrInvalidConfig, i, page)
		}
	}
	switch c.Target {
	case "", ExtractPages, ExtractText, ExtractImages:
		return nil
	}
	return fmt.Errorf("%w: unknown extract target %q", ErrInvalidConfig, c.Target)
}

// ConvertConfig transcodes a document into the target format. DPI applies
// to raster targets only; zero selects the converter default.
type ConvertConfig struct {
	Target string `json:"target"`
	DPI    int    `json:"dpi,omitempty"`
}

func (c *ConvertConfig) ConfigKind() Kind { return KindConvert }

func (c *ConvertConfig) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("%w: convert requires a target format", ErrInvalidConfig)
	}
	if c.DPI < 0 {
		return fmt.Errorf("%w: convert dpi %d is negative", ErrInvalidConfig, c.DPI)
	}
	return nil
}

// CompressConfig reduces document size. Quality is a 1-100 percentage.
type CompressConfig struct {
	Quality int `json:"quality"`
}

func (c *CompressConfig) ConfigKind() Kind { return KindCompress }

func (c *CompressConfig) Validate() error {
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("%w: compress quality %d outside 1-100", ErrInvalidConfig, c.Quality)
	}
	return nil
}

// OcrConfig recognizes text in a scanned document. Languages are hints for
// the recognition agent, most likely first.
type OcrConfig struct {
	Languages []string `json:"languages"`
}

func (c *OcrConfig) ConfigKind() Kind { return KindOcr }

func (c *OcrConfig) Validate() error {
	if len(c.Languages) == 0 {
		return fmt.Errorf("%w: ocr requires at least one language", ErrInvalidConfig)
	}
	for i, lang := range c.Languages {
		if lang == "" {
			return fmt.Errorf("%w: ocr language %d is empty", ErrInvalidConfig, i)
		}
	}
	return nil
}

// ConditionConfig gates a branch on a boolean expression evaluated against
// upstream results. A Condition node without configuration passes its
// input through unconditionally.
type ConditionConfig struct {
	Expression string `json:"expression"`
}

func (c *ConditionConfig) ConfigKind() Kind { return KindCondition }

func (c *ConditionConfig) Validate() error {
	if c.Expression == "" {
		return fmt.Errorf("%w: condition requires an expression", ErrInvalidConfig)
	}
	return nil
}

// DecodeConfig decodes raw configuration into the variant for the given
// kind and validates it. An empty payload yields nil for kinds whose
// configuration is optional and an error for kinds that require one.
// Payloads on kinds that take no configuration are ignored.
func DecodeConfig(kind Kind, raw json.RawMessage) (Config, error) {
	holder := Node{Kind: kind, Config: raw}
	if !holder.HasConfig() {
		if kind.RequiresConfig() {
			return nil, fmt.Errorf("%w: %s nodes require configuration", ErrMissingConfig, kind)
		}
		return nil, nil
	}

	var config Config
	switch kind {
	case KindSplit:
		config = &SplitConfig{}
	case KindExtract:
		config = &ExtractConfig{}
	case KindConvert:
		config = &ConvertConfig{}
	case KindCompress:
		config = &CompressConfig{}
	case KindOcr:
		config = &OcrConfig{}
	case KindCondition:
		config = &ConditionConfig{}
	default:
		return nil, nil
	}

	if err := json.Unmarshal(raw, config); err != nil {
		return nil, fmt.Errorf("%w: decode %s configuration: %w", ErrInvalidConfig, kind, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
