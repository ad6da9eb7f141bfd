package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/cascade/internal/engine"
	"github.com/JaimeStill/cascade/internal/pipeline"
)

func newCoordinator(t *testing.T, runner engine.Runner, cfg engine.DispatcherConfig) *engine.Coordinator {
	t.Helper()

	dispatcher := engine.NewDispatcher(runner, cfg, testLogger())
	t.Cleanup(dispatcher.Close)
	return engine.NewCoordinator(dispatcher, testLogger())
}

// splitPipeline builds Input(pdf) -> Split(ranges [[1,5]]) -> Output.
func splitPipeline() *pipeline.Graph {
	return &pipeline.Graph{
		Nodes: []pipeline.Node{
			{ID: "in", Kind: pipeline.KindInput, SupportedFormats: []string{"pdf"}, OutputFormat: "pdf"},
			{ID: "split", Kind: pipeline.KindSplit, Config: json.RawMessage(`{"ranges":[[1,5]]}`)},
			{ID: "out", Kind: pipeline.KindOutput},
		},
		Edges: []pipeline.Edge{
			{ID: "e1", SourceID: "in", TargetID: "split"},
			{ID: "e2", SourceID: "split", TargetID: "out"},
		},
		InputFiles: []pipeline.InputFile{{Name: "a.pdf", Format: "pdf"}},
	}
}

// diamondPipeline builds a -> {b, c} -> d.
func diamondPipeline() *pipeline.Graph {
	return &pipeline.Graph{
		Nodes: []pipeline.Node{
			{ID: "a", Kind: pipeline.KindInput, SupportedFormats: []string{"pdf"}},
			{ID: "b", Kind: pipeline.KindCompress, Config: json.RawMessage(`{"quality":80}`)},
			{ID: "c", Kind: pipeline.KindOcr, Config: json.RawMessage(`{"languages":["eng"]}`)},
			{ID: "d", Kind: pipeline.KindOutput},
		},
		Edges: []pipeline.Edge{
			{ID: "e1", SourceID: "a", TargetID: "b"},
			{ID: "e2", SourceID: "a", TargetID: "c"},
			{ID: "e3", SourceID: "b", TargetID: "d"},
			{ID: "e4", SourceID: "c", TargetID: "d"},
		},
	}
}

func TestExecuteLinearPipeline(t *testing.T) {
	runner := &stubRunner{
		results: map[string]engine.Payload{
			"out": {
				"a-1.pdf": {Format: "pdf", Key: "executions/run/a-1.pdf"},
				"a-2.pdf": {Format: "pdf", Key: "executions/run/a-2.pdf"},
			},
		},
	}
	coordinator := newCoordinator(t, runner, engine.DispatcherConfig{Workers: 2})

	run := engine.NewRun(uuid.New(), uuid.New())
	if got := run.Snapshot().Status; got != engine.StatusPending {
		t.Fatalf("initial status = %q, want %q", got, engine.StatusPending)
	}

	seed := engine.Payload{"a.pdf": {Format: "pdf", Data: []byte("%PDF-")}}
	record := coordinator.Execute(context.Background(), run, splitPipeline(), seed)

	if record.Status != engine.StatusCompleted {
		t.Fatalf("status = %q, want %q (error: %s)", record.Status, engine.StatusCompleted, record.Error)
	}
	if record.Progress != 100 {
		t.Errorf("progress = %d, want 100", record.Progress)
	}
	if record.CompletedAt == nil {
		t.Error("CompletedAt = nil for terminal run")
	}
	for _, id := range []string{"in", "split", "out"} {
		if got := record.Nodes[id].Status; got != engine.NodeCompleted {
			t.Errorf("node %s status = %q, want %q", id, got, engine.NodeCompleted)
		}
	}
	if len(record.OutputFiles) != 2 {
		t.Fatalf("OutputFiles = %v, want 2 storage keys", record.OutputFiles)
	}
	if record.OutputFiles[0] != "executions/run/a-1.pdf" {
		t.Errorf("OutputFiles[0] = %q, want %q", record.OutputFiles[0], "executions/run/a-1.pdf")
	}
}

func TestExecuteWiresUpstreamOutputs(t *testing.T) {
	runner := &stubRunner{
		results: map[string]engine.Payload{
			"b": {"b.pdf": {Format: "pdf", Data: []byte("from-b")}},
			"c": {"c.pdf": {Format: "pdf", Data: []byte("from-c")}},
		},
	}
	coordinator := newCoordinator(t, runner, engine.DispatcherConfig{Workers: 2})

	run := engine.NewRun(uuid.New(), uuid.New())
	record := coordinator.Execute(context.Background(), run, diamondPipeline(), engine.Payload{
		"doc.pdf": {Format: "pdf", Data: []byte("%PDF-")},
	})
	if record.Status != engine.StatusCompleted {
		t.Fatalf("status = %q, want completed (error: %s)", record.Status, record.Error)
	}

	input := runner.inputFor("d")
	if input == nil {
		t.Fatal("node d was never dispatched")
	}
	for _, name := range []string{"b.pdf", "c.pdf"} {
		if _, ok := input[name]; !ok {
			t.Errorf("d input missing %q; got %v", name, input.Names())
		}
	}
}

func TestExecutePartialFailure(t *testing.T) {
	failure := errors.New("compression failed")
	runner := &stubRunner{
		fail:  map[string]error{"b": failure},
		delay: map[string]time.Duration{"c": 30 * time.Millisecond},
	}
	coordinator := newCoordinator(t, runner, engine.DispatcherConfig{Workers: 2})

	run := engine.NewRun(uuid.New(), uuid.New())
	record := coordinator.Execute(context.Background(), run, diamondPipeline(), engine.Payload{
		"doc.pdf": {Format: "pdf", Data: []byte("%PDF-")},
	})

	if record.Status != engine.StatusFailed {
		t.Fatalf("status = %q, want %q", record.Status, engine.StatusFailed)
	}
	if record.Progress != 100 {
		t.Errorf("progress = %d, want 100 at terminal status", record.Progress)
	}
	if !strings.Contains(record.Error, "node b") {
		t.Errorf("record error %q does not name the failing node", record.Error)
	}

	if got := record.Nodes["b"].Status; got != engine.NodeError {
		t.Errorf("node b status = %q, want %q", got, engine.NodeError)
	}
	// The sibling already in flight finishes its own wave.
	if got := record.Nodes["c"].Status; got != engine.NodeCompleted {
		t.Errorf("node c status = %q, want %q", got, engine.NodeCompleted)
	}
	// The dependent is marked without ever dispatching.
	if runner.called("d") {
		t.Error("node d was dispatched after upstream failure")
	}
	if got := record.Nodes["d"].Status; got != engine.NodeError {
		t.Errorf("node d status = %q, want %q", got, engine.NodeError)
	}
	if msg := record.Nodes["d"].Error; !strings.Contains(msg, "upstream") {
		t.Errorf("node d error = %q, want upstream failure cause", msg)
	}
}

func TestExecuteCancellation(t *testing.T) {
	runner := &stubRunner{}
	coordinator := newCoordinator(t, runner, engine.DispatcherConfig{Workers: 2})
	run := engine.NewRun(uuid.New(), uuid.New())

	// Cancel while the first wave is in flight; the second never starts.
	runner.hook = func(nodeID string) {
		if nodeID == "in" {
			run.Cancel()
		}
	}

	record := coordinator.Execute(context.Background(), run, splitPipeline(), engine.Payload{
		"a.pdf": {Format: "pdf", Data: []byte("%PDF-")},
	})

	if record.Status != engine.StatusFailed {
		t.Fatalf("status = %q, want %q", record.Status, engine.StatusFailed)
	}
	if record.Error != "execution cancelled" {
		t.Errorf("record error = %q, want %q", record.Error, "execution cancelled")
	}
	if got := record.Nodes["in"].Status; got != engine.NodeCompleted {
		t.Errorf("node in status = %q, want %q (in-flight dispatch finishes)", got, engine.NodeCompleted)
	}
	if runner.called("split") {
		t.Error("node split was dispatched after cancellation")
	}
	for _, id := range []string{"split", "out"} {
		if got := record.Nodes[id].Status; got != engine.NodeError {
			t.Errorf("node %s status = %q, want %q", id, got, engine.NodeError)
		}
	}
	if record.Progress != 100 {
		t.Errorf("progress = %d, want 100", record.Progress)
	}
}

func TestExecuteProgressMonotonic(t *testing.T) {
	runner := &stubRunner{delay: map[string]time.Duration{
		"in":    10 * time.Millisecond,
		"split": 10 * time.Millisecond,
		"out":   10 * time.Millisecond,
	}}
	coordinator := newCoordinator(t, runner, engine.DispatcherConfig{Workers: 2})
	run := engine.NewRun(uuid.New(), uuid.New())

	done := make(chan engine.Record, 1)
	go func() {
		done <- coordinator.Execute(context.Background(), run, splitPipeline(), engine.Payload{
			"a.pdf": {Format: "pdf", Data: []byte("%PDF-")},
		})
	}()

	var observed []engine.Record
	for {
		snapshot := run.Snapshot()
		observed = append(observed, snapshot)
		if snapshot.Status.Terminal() {
			break
		}
		time.Sleep(time.Millisecond)
	}
	record := <-done

	previous := -1
	for _, snapshot := range observed {
		if snapshot.Progress < previous {
			t.Fatalf("progress regressed: %d after %d", snapshot.Progress, previous)
		}
		previous = snapshot.Progress
		if snapshot.Progress == 100 && !snapshot.Status.Terminal() {
			t.Fatalf("progress 100 with non-terminal status %q", snapshot.Status)
		}
		if snapshot.Status.Terminal() && snapshot.Progress != 100 {
			t.Fatalf("terminal status %q with progress %d", snapshot.Status, snapshot.Progress)
		}
	}
	if record.Status != engine.StatusCompleted {
		t.Fatalf("status = %q, want completed (error: %s)", record.Status, record.Error)
	}
}

func TestExecuteFiltersSeedByInputFormats(t *testing.T) {
	runner := &stubRunner{}
	coordinator := newCoordinator(t, runner, engine.DispatcherConfig{Workers: 1})
	run := engine.NewRun(uuid.New(), uuid.New())

	seed := engine.Payload{
		"a.pdf": {Format: "pdf", Data: []byte("%PDF-")},
		"b.png": {Format: "png", Data: []byte{0x89, 0x50}},
	}
	record := coordinator.Execute(context.Background(), run, splitPipeline(), seed)
	if record.Status != engine.StatusCompleted {
		t.Fatalf("status = %q, want completed (error: %s)", record.Status, record.Error)
	}

	input := runner.inputFor("in")
	if _, ok := input["a.pdf"]; !ok {
		t.Errorf("input node seed missing a.pdf: %v", input.Names())
	}
	if _, ok := input["b.png"]; ok {
		t.Error("input node received b.png despite pdf-only support")
	}
}

func TestExecuteUndecodableConfigFailsWithoutDispatch(t *testing.T) {
	runner := &stubRunner{}
	coordinator := newCoordinator(t, runner, engine.DispatcherConfig{Workers: 1})
	run := engine.NewRun(uuid.New(), uuid.New())

	graph := splitPipeline()
	graph.Nodes[1].Config = nil // split now lacks its required config

	record := coordinator.Execute(context.Background(), run, graph, engine.Payload{
		"a.pdf": {Format: "pdf", Data: []byte("%PDF-")},
	})

	if record.Status != engine.StatusFailed {
		t.Fatalf("status = %q, want %q", record.Status, engine.StatusFailed)
	}
	if runner.called("split") {
		t.Error("split dispatched despite missing configuration")
	}
	if got := record.Nodes["split"].Status; got != engine.NodeError {
		t.Errorf("split status = %q, want %q", got, engine.NodeError)
	}
	if runner.called("out") {
		t.Error("out dispatched after configuration failure")
	}
}

func TestExecuteEmptyPlanCompletesImmediately(t *testing.T) {
	runner := &stubRunner{}
	coordinator := newCoordinator(t, runner, engine.DispatcherConfig{Workers: 1})
	run := engine.NewRun(uuid.New(), uuid.New())

	graph := &pipeline.Graph{
		Nodes: []pipeline.Node{
			{ID: "in", Kind: pipeline.KindInput},
			{ID: "out", Kind: pipeline.KindOutput},
		},
	}

	record := coordinator.Execute(context.Background(), run, graph, nil)
	if record.Status != engine.StatusCompleted {
		t.Fatalf("status = %q, want %q", record.Status, engine.StatusCompleted)
	}
	if record.Progress != 100 {
		t.Errorf("progress = %d, want 100", record.Progress)
	}
	if len(runner.callOrder()) != 0 {
		t.Errorf("calls = %v, want none for edgeless graph", runner.callOrder())
	}
}
