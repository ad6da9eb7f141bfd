package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/JaimeStill/cascade/internal/pipeline"
)

type color uint8

const (
	white color = iota // unvisited
	gray               // on the current traversal stack
	black              // fully explored
)

// detectCycles is validation pass one: a three-color depth-first
// traversal rooted at every unvisited node in declaration order. An edge
// into a gray node closes a cycle and is reported against the node that
// closed it; black nodes are never re-entered, so cycles reachable only
// through already-explored regions are still found from their own roots.
// A self-loop is a one-node cycle.
func (v *Validator) detectCycles(graph *pipeline.Graph, report *Report) {
	successors := graph.Successors()
	colors := make(map[string]color, len(graph.Nodes))
	stack := make([]string, 0, len(graph.Nodes))

	var visit func(id string)
	visit = func(id string) {
		colors[id] = gray
		stack = append(stack, id)

		for _, next := range successors[id] {
			switch colors[next] {
			case white:
				visit(next)
			case gray:
				report.addError(Issue{
					TargetID: id,
					Kind:     KindCircularDependency,
					Message:  fmt.Sprintf("circular dependency: %s", cyclePath(stack, next)),
				})
			}
		}

		stack = stack[:len(stack)-1]
		colors[id] = black
	}

	for _, node := range graph.Nodes {
		if colors[node.ID] == white {
			visit(node.ID)
		}
	}
}

// cyclePath renders the closed cycle from the traversal stack: the
// segment from the re-entered node to the top, then back to the
// re-entered node.
func cyclePath(stack []string, reentry string) string {
	start := 0
	for i, id := range stack {
		if id == reentry {
			start = i
			break
		}
	}
	path := append(slices.Clone(stack[start:]), reentry)
	return strings.Join(path, " -> ")
}
