package operations

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/JaimeStill/cascade/internal/engine"
	"github.com/JaimeStill/cascade/internal/formats"
	"github.com/JaimeStill/cascade/internal/pipeline"
)

// conditionScope is the data a condition expression evaluates against: the
// shape of the node's input payload, not its contents.
type conditionScope struct {
	Count   int
	Names   []string
	Formats map[string]string
	Bytes   int64
}

// runCondition gates a branch. The expression is a text/template rendered
// against the payload's metadata; the input passes through only when it
// renders exactly "true", otherwise downstream nodes receive an empty
// payload. A condition without configuration always passes.
func (r *Registry) runCondition(ctx context.Context, req engine.Request) (engine.Payload, error) {
	if req.Config == nil {
		return req.Input.Clone(), nil
	}

	cfg, err := configAs[*pipeline.ConditionConfig](req)
	if err != nil {
		return nil, err
	}

	tpl, err := template.New("condition").Parse(cfg.Expression)
	if err != nil {
		return nil, fmt.Errorf("%w: parse expression: %w", ErrBadConfig, err)
	}

	scope := conditionScope{
		Count:   len(req.Input),
		Names:   req.Input.Names(),
		Formats: make(map[string]string, len(req.Input)),
	}
	for name, blob := range req.Input {
		scope.Formats[name] = formats.Normalize(blob.Format)
		scope.Bytes += int64(len(blob.Data))
	}

	var rendered strings.Builder
	if err := tpl.Execute(&rendered, scope); err != nil {
		return nil, fmt.Errorf("evaluate expression: %w", err)
	}

	pass := strings.TrimSpace(rendered.String()) == "true"
	r.logger.DebugContext(ctx, "condition evaluated",
		"node", req.NodeID,
		"pass", pass)

	if !pass {
		return engine.Payload{}, nil
	}
	return req.Input.Clone(), nil
}
