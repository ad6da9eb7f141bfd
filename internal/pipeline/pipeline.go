// Package pipeline defines the document pipeline graph model for Cascade.
// A pipeline is a directed graph of typed operation nodes plus the declared
// input files that flow into its Input nodes. Graphs are authored by the
// visual editor, validated by the validation package, and executed by the
// engine; the model itself enforces only shape (known kinds, well-formed
// configs), never structure. Acyclicity and completeness are validation
// concerns.
package pipeline

// InputFile declares a file that will flow into the graph's Input nodes.
type InputFile struct {
	Name   string `json:"name"`
	Format string `json:"format"`
}

// Edge is a directed dependency: the target node consumes the source
// node's output.
type Edge struct {
	ID       string `json:"id"`
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// Graph is a set of nodes and edges plus the declared input file list.
// Node and edge declaration order is preserved and meaningful: validation
// reports issues in declaration order.
type Graph struct {
	Nodes      []Node      `json:"nodes"`
	Edges      []Edge      `json:"edges"`
	InputFiles []InputFile `json:"input_files,omitempty"`
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Successors maps each node id to the ids of nodes consuming its output,
// in edge declaration order.
func (g *Graph) Successors() map[string][]string {
	out := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		out[e.SourceID] = append(out[e.SourceID], e.TargetID)
	}
	return out
}

// Predecessors maps each node id to the ids of nodes it consumes output
// from, in edge declaration order.
func (g *Graph) Predecessors() map[string][]string {
	in := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		in[e.TargetID] = append(in[e.TargetID], e.SourceID)
	}
	return in
}

// CountKind returns the number of nodes of the given kind.
func (g *Graph) CountKind(kind Kind) int {
	count := 0
	for _, n := range g.Nodes {
		if n.Kind == kind {
			count++
		}
	}
	return count
}

// Connected returns the set of node ids touched by at least one edge.
func (g *Graph) Connected() map[string]bool {
	touched := make(map[string]bool, len(g.Nodes))
	for _, e := range g.Edges {
		touched[e.SourceID] = true
		touched[e.TargetID] = true
	}
	return touched
}
