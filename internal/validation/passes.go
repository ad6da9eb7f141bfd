package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JaimeStill/cascade/internal/formats"
	"github.com/JaimeStill/cascade/internal/pipeline"
)

// checkNodes is validation pass two. Per node, in declaration order:
// required configuration is present and well-formed; an Input node
// accepts every declared input file; declared input formats actually
// support the node's operation per the capability registry.
func (v *Validator) checkNodes(graph *pipeline.Graph, report *Report) {
	for _, node := range graph.Nodes {
		v.checkNodeConfig(node, report)
		v.checkInputFiles(node, graph.InputFiles, report)
		v.checkOperationSupport(node, report)
	}
}

func (v *Validator) checkNodeConfig(node pipeline.Node, report *Report) {
	_, err := node.ParseConfig()
	if err == nil {
		return
	}

	message := fmt.Sprintf("%s node %s configuration is invalid: %v", node.Kind, describe(node), err)
	if errors.Is(err, pipeline.ErrMissingConfig) {
		message = fmt.Sprintf("%s node %s requires configuration before it can run", node.Kind, describe(node))
	}

	report.addError(Issue{
		TargetID: node.ID,
		Kind:     KindInvalidOperation,
		Message:  message,
	})
}

// checkInputFiles flags declared input files an Input node cannot accept.
// An Input node without a supported-formats declaration accepts anything.
func (v *Validator) checkInputFiles(node pipeline.Node, files []pipeline.InputFile, report *Report) {
	if node.Kind != pipeline.KindInput || len(node.SupportedFormats) == 0 {
		return
	}

	accepted := make(map[string]bool, len(node.SupportedFormats))
	for _, format := range node.SupportedFormats {
		accepted[formats.Normalize(format)] = true
	}

	var offending []string
	for _, file := range files {
		if !accepted[formats.Normalize(file.Format)] {
			offending = append(offending, file.Name)
		}
	}

	if len(offending) > 0 {
		report.addError(Issue{
			TargetID: node.ID,
			Kind:     KindFormatIncompatible,
			Message: fmt.Sprintf("input node %s does not accept %s",
				describe(node), strings.Join(offending, ", ")),
		})
	}
}

// checkOperationSupport warns when a declared input format does not
// support the node's operation. Input and Output nodes move bytes rather
// than transform them, so the capability table does not apply to them.
func (v *Validator) checkOperationSupport(node pipeline.Node, report *Report) {
	if node.Kind == pipeline.KindInput || node.Kind == pipeline.KindOutput {
		return
	}

	for _, format := range node.InputFormats {
		normalized := formats.Normalize(format)
		if v.registry.Supports(normalized, node.Kind.Operation()) {
			continue
		}

		message := fmt.Sprintf("format %s does not support %s; %s node %s may produce degraded results",
			normalized, node.Kind.Operation(), node.Kind, describe(node))
		if _, known := v.registry.Lookup(normalized); !known {
			message = fmt.Sprintf("format %s is not registered; %s node %s may produce degraded results",
				normalized, node.Kind, describe(node))
		}

		report.addWarning(Issue{
			TargetID: node.ID,
			Kind:     KindFormatSuboptimal,
			Message:  message,
		})
	}
}

// checkConnections is validation pass three. Per edge, in declaration
// order: the target must accept the source's output format. An
// incompatible edge is an error; when a registered conversion could
// bridge it, a suggestion to insert the Convert node follows, choosing
// the lexicographically first candidate so repeated validations agree.
// Independently, the transition the edge implies is checked against the
// lossy-conversion table, which fires even on compatible edges.
func (v *Validator) checkConnections(graph *pipeline.Graph, report *Report) {
	for _, edge := range graph.Edges {
		source, okSource := graph.Node(edge.SourceID)
		target, okTarget := graph.Node(edge.TargetID)
		if !okSource || !okTarget {
			report.addError(Issue{
				TargetID: edge.ID,
				Kind:     KindInvalidOperation,
				Message:  fmt.Sprintf("edge %s references a node that does not exist", edge.ID),
			})
			continue
		}

		sourceFormat := v.sourceFormat(source)
		if sourceFormat == "" {
			continue
		}

		consumed := sourceFormat
		if !acceptsFormat(target, sourceFormat) {
			report.addError(Issue{
				TargetID: edge.ID,
				Kind:     KindFormatIncompatible,
				Message: fmt.Sprintf("%s emits %s, which %s does not accept",
					describe(source), sourceFormat, describe(target)),
			})

			if candidates := v.bridgeCandidates(sourceFormat, target); len(candidates) > 0 {
				consumed = candidates[0]
				report.addSuggestion(Suggestion{
					EdgeID:    edge.ID,
					SourceID:  edge.SourceID,
					TargetID:  edge.TargetID,
					ConvertTo: candidates[0],
					Message: fmt.Sprintf("insert a convert node (%s -> %s) between %s and %s",
						sourceFormat, candidates[0], describe(source), describe(target)),
				})
			}
		}

		// A Convert target consumes the source format but produces its
		// configured target; quality loss is judged on that transition.
		if target.Kind == pipeline.KindConvert {
			if converted := convertTarget(target); converted != "" {
				consumed = converted
			}
		}

		if v.registry.Lossy(sourceFormat, consumed) {
			report.addWarning(Issue{
				TargetID: edge.ID,
				Kind:     KindQualityLoss,
				Message:  fmt.Sprintf("converting %s to %s discards information", sourceFormat, consumed),
			})
		}
	}
}

// sourceFormat resolves the format a node emits: a Convert node's
// configured target, an Input node's sole supported format, otherwise
// the node's declared output format. Empty means unknown, which skips
// compatibility checking for edges out of the node.
func (v *Validator) sourceFormat(node pipeline.Node) string {
	if node.Kind == pipeline.KindConvert {
		if converted := convertTarget(node); converted != "" {
			return converted
		}
	}
	if node.OutputFormat != "" {
		return formats.Normalize(node.OutputFormat)
	}
	if node.Kind == pipeline.KindInput && len(node.SupportedFormats) == 1 {
		return formats.Normalize(node.SupportedFormats[0])
	}
	return ""
}

func convertTarget(node pipeline.Node) string {
	config, err := node.ParseConfig()
	if err != nil {
		return ""
	}
	convert, ok := config.(*pipeline.ConvertConfig)
	if !ok {
		return ""
	}
	return formats.Normalize(convert.Target)
}

// acceptsFormat reports whether the target node consumes the format. A
// node without declared input formats accepts anything.
func acceptsFormat(node pipeline.Node, format string) bool {
	if len(node.InputFormats) == 0 {
		return true
	}
	for _, accepted := range node.InputFormats {
		if formats.Normalize(accepted) == format {
			return true
		}
	}
	return false
}

// bridgeCandidates returns the conversion targets of the source format
// that the target node accepts, in lexicographic order.
func (v *Validator) bridgeCandidates(sourceFormat string, target pipeline.Node) []string {
	accepted := make(map[string]bool, len(target.InputFormats))
	for _, format := range target.InputFormats {
		accepted[formats.Normalize(format)] = true
	}

	var candidates []string
	for _, candidate := range v.registry.ConversionTargets(sourceFormat) {
		if accepted[candidate] {
			candidates = append(candidates, candidate)
		}
	}
	return candidates
}

// checkCompleteness is validation pass four: the graph must contain at
// least one Input and one Output node, and every node should be touched
// by an edge. Disconnected nodes are dead weight rather than broken, so
// they warn instead of erroring.
func (v *Validator) checkCompleteness(graph *pipeline.Graph, report *Report) {
	if graph.CountKind(pipeline.KindInput) == 0 {
		report.addError(Issue{
			Kind:    KindInvalidOperation,
			Message: "pipeline has no input node",
		})
	}
	if graph.CountKind(pipeline.KindOutput) == 0 {
		report.addError(Issue{
			Kind:    KindInvalidOperation,
			Message: "pipeline has no output node",
		})
	}

	connected := graph.Connected()
	for _, node := range graph.Nodes {
		if !connected[node.ID] {
			report.addWarning(Issue{
				TargetID: node.ID,
				Kind:     KindPerformanceImpact,
				Message:  fmt.Sprintf("node %s is not connected and will not execute", describe(node)),
			})
		}
	}
}
