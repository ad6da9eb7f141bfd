package engine

import (
	"fmt"
	"slices"

	"github.com/JaimeStill/cascade/internal/pipeline"
)

// Wave is a set of node ids with no dependency between them, eligible to
// run concurrently. Ids within a wave are sorted; no ordering between
// siblings is guaranteed at run time.
type Wave []string

// Plan layers a validated graph into waves by Kahn's algorithm: every
// node whose remaining in-degree is zero joins the next wave, then its
// successors' in-degrees drop. Every dependency of a wave-k node sits in
// waves 0..k-1.
//
// Nodes untouched by any edge are not scheduled; validation already
// flagged them as dead weight, and executing them would contradict that.
// Plan trusts validation for acyclicity but still fails closed: if any
// connected node cannot be ordered, it returns ErrUnschedulable instead
// of a partial plan.
func Plan(graph *pipeline.Graph) ([]Wave, error) {
	connected := graph.Connected()

	participants := make([]string, 0, len(graph.Nodes))
	for _, node := range graph.Nodes {
		if connected[node.ID] {
			participants = append(participants, node.ID)
		}
	}

	known := make(map[string]bool, len(participants))
	for _, id := range participants {
		known[id] = true
	}

	indegree := make(map[string]int, len(participants))
	successors := make(map[string][]string, len(participants))
	for _, edge := range graph.Edges {
		if !known[edge.SourceID] || !known[edge.TargetID] {
			continue
		}
		indegree[edge.TargetID]++
		successors[edge.SourceID] = append(successors[edge.SourceID], edge.TargetID)
	}

	var waves []Wave
	remaining := make([]string, len(participants))
	copy(remaining, participants)

	for len(remaining) > 0 {
		var wave Wave
		var deferred []string
		for _, id := range remaining {
			if indegree[id] == 0 {
				wave = append(wave, id)
			} else {
				deferred = append(deferred, id)
			}
		}

		if len(wave) == 0 {
			return nil, fmt.Errorf("%w: %d nodes have unsatisfiable dependencies", ErrUnschedulable, len(remaining))
		}

		slices.Sort(wave)
		for _, id := range wave {
			for _, next := range successors[id] {
				indegree[next]--
			}
		}

		waves = append(waves, wave)
		remaining = deferred
	}

	return waves, nil
}

// Scheduled flattens a plan into the full set of node ids it will run.
func Scheduled(waves []Wave) []string {
	var ids []string
	for _, wave := range waves {
		ids = append(ids, wave...)
	}
	return ids
}
