// Package validation statically checks pipeline graphs for structural and
// format soundness before execution. A Validator runs four independent
// passes (cycle detection, per-node checks, connection compatibility,
// completeness) and unions their issues into a single Report. Passes
// never short-circuit each other: a graph can simultaneously have a cycle
// and a missing output node, and both are reported.
//
// Validation is deterministic: the same graph always produces an
// identical Report, issue for issue, in the same order. Pass one runs
// first; the remaining passes walk nodes and edges in declaration order.
package validation

import (
	"github.com/JaimeStill/cascade/internal/formats"
	"github.com/JaimeStill/cascade/internal/pipeline"
)

// Severity ranks an issue's consequence. Errors block execution; warnings
// and suggestions never do.
type Severity string

const (
	SeverityError      Severity = "error"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

// Kind classifies an issue within the validation taxonomy.
type Kind string

const (
	KindCircularDependency Kind = "circular-dependency"
	KindFormatIncompatible Kind = "format-incompatible"
	KindInvalidOperation   Kind = "invalid-operation"
	KindMissingConversion  Kind = "missing-conversion"
	KindFormatSuboptimal   Kind = "format-suboptimal"
	KindQualityLoss        Kind = "quality-loss"
	KindPerformanceImpact  Kind = "performance-impact"
)

// Issue is one addressable validation finding. TargetID names the node or
// edge at fault; it is empty for graph-level findings such as a missing
// input node.
type Issue struct {
	TargetID string   `json:"target_id,omitempty"`
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Suggestion proposes a concrete graph edit that would resolve an
// incompatible edge: inserting a Convert node producing ConvertTo between
// the edge's source and target.
type Suggestion struct {
	EdgeID    string `json:"edge_id"`
	SourceID  string `json:"source_id"`
	TargetID  string `json:"target_id"`
	Kind      Kind   `json:"kind"`
	ConvertTo string `json:"convert_to"`
	Message   string `json:"message"`
}

// Report is the result of validating one graph. Valid is true iff Errors
// is empty; warnings and suggestions are advisory and never block
// submission.
type Report struct {
	Valid       bool         `json:"valid"`
	Errors      []Issue      `json:"errors"`
	Warnings    []Issue      `json:"warnings"`
	Suggestions []Suggestion `json:"suggestions"`
}

func (r *Report) addError(issue Issue) {
	issue.Severity = SeverityError
	r.Errors = append(r.Errors, issue)
}

func (r *Report) addWarning(issue Issue) {
	issue.Severity = SeverityWarning
	r.Warnings = append(r.Warnings, issue)
}

func (r *Report) addSuggestion(s Suggestion) {
	s.Kind = KindMissingConversion
	r.Suggestions = append(r.Suggestions, s)
}

// Validator checks graphs against a format capability registry. It holds
// no mutable state; one Validator serves concurrent validations.
type Validator struct {
	registry *formats.Registry
}

// New constructs a Validator over the given capability registry.
func New(registry *formats.Registry) *Validator {
	return &Validator{registry: registry}
}

// Validate runs all four passes over the graph and returns the combined
// report. The graph is only read, never modified.
func (v *Validator) Validate(graph *pipeline.Graph) Report {
	report := Report{
		Errors:      []Issue{},
		Warnings:    []Issue{},
		Suggestions: []Suggestion{},
	}

	v.detectCycles(graph, &report)
	v.checkNodes(graph, &report)
	v.checkConnections(graph, &report)
	v.checkCompleteness(graph, &report)

	report.Valid = len(report.Errors) == 0
	return report
}

// describe names a node for human-readable messages: its label when the
// editor assigned one, otherwise its id.
func describe(node pipeline.Node) string {
	if node.Label != "" {
		return node.Label
	}
	return node.ID
}
