package engine_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/JaimeStill/cascade/internal/engine"
	"github.com/JaimeStill/cascade/internal/pipeline"
)

func nodes(ids ...string) []pipeline.Node {
	out := make([]pipeline.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, pipeline.Node{ID: id, Kind: pipeline.KindMerge})
	}
	return out
}

func edges(pairs ...[2]string) []pipeline.Edge {
	out := make([]pipeline.Edge, 0, len(pairs))
	for i, pair := range pairs {
		out = append(out, pipeline.Edge{
			ID:       fmt.Sprintf("e%d", i+1),
			SourceID: pair[0],
			TargetID: pair[1],
		})
	}
	return out
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name  string
		graph *pipeline.Graph
		want  []engine.Wave
	}{
		{
			name: "linear chain",
			graph: &pipeline.Graph{
				Nodes: nodes("a", "b", "c"),
				Edges: edges([2]string{"a", "b"}, [2]string{"b", "c"}),
			},
			want: []engine.Wave{{"a"}, {"b"}, {"c"}},
		},
		{
			name: "diamond",
			graph: &pipeline.Graph{
				Nodes: nodes("a", "c", "b", "d"),
				Edges: edges(
					[2]string{"a", "c"},
					[2]string{"a", "b"},
					[2]string{"b", "d"},
					[2]string{"c", "d"},
				),
			},
			want: []engine.Wave{{"a"}, {"b", "c"}, {"d"}},
		},
		{
			name: "two independent chains",
			graph: &pipeline.Graph{
				Nodes: nodes("x1", "y1", "x2", "y2"),
				Edges: edges([2]string{"x1", "x2"}, [2]string{"y1", "y2"}),
			},
			want: []engine.Wave{{"x1", "y1"}, {"x2", "y2"}},
		},
		{
			name: "disconnected node excluded",
			graph: &pipeline.Graph{
				Nodes: nodes("a", "orphan", "b"),
				Edges: edges([2]string{"a", "b"}),
			},
			want: []engine.Wave{{"a"}, {"b"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			waves, err := engine.Plan(tc.graph)
			if err != nil {
				t.Fatalf("Plan returned error: %v", err)
			}
			if !reflect.DeepEqual(waves, tc.want) {
				t.Errorf("Plan = %v, want %v", waves, tc.want)
			}
		})
	}
}

func TestPlanWavesSorted(t *testing.T) {
	graph := &pipeline.Graph{
		Nodes: nodes("z", "m", "a", "sink"),
		Edges: edges(
			[2]string{"z", "sink"},
			[2]string{"m", "sink"},
			[2]string{"a", "sink"},
		),
	}

	waves, err := engine.Plan(graph)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	want := []engine.Wave{{"a", "m", "z"}, {"sink"}}
	if !reflect.DeepEqual(waves, want) {
		t.Errorf("Plan = %v, want %v", waves, want)
	}
}

func TestPlanRejectsCycle(t *testing.T) {
	graph := &pipeline.Graph{
		Nodes: nodes("a", "b"),
		Edges: edges([2]string{"a", "b"}, [2]string{"b", "a"}),
	}

	if _, err := engine.Plan(graph); !errors.Is(err, engine.ErrUnschedulable) {
		t.Fatalf("Plan error = %v, want ErrUnschedulable", err)
	}
}

func TestPlanDependenciesPrecedeDependents(t *testing.T) {
	graph := &pipeline.Graph{
		Nodes: nodes("in", "split", "ocr", "merge", "out"),
		Edges: edges(
			[2]string{"in", "split"},
			[2]string{"split", "ocr"},
			[2]string{"split", "merge"},
			[2]string{"ocr", "merge"},
			[2]string{"merge", "out"},
		),
	}

	waves, err := engine.Plan(graph)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}

	position := map[string]int{}
	for index, wave := range waves {
		for _, id := range wave {
			position[id] = index
		}
	}

	for _, edge := range graph.Edges {
		if position[edge.SourceID] >= position[edge.TargetID] {
			t.Errorf("edge %s -> %s: source wave %d, target wave %d",
				edge.SourceID, edge.TargetID, position[edge.SourceID], position[edge.TargetID])
		}
	}
}
