package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/cascade/internal/formats"
	"github.com/JaimeStill/cascade/internal/pipeline"
)

// Coordinator drives executions: it plans the graph, dispatches each wave
// through the worker pool, holds the wave barrier, and finalizes the run
// record. One Coordinator serves concurrent runs; all per-run state lives
// in the Run.
type Coordinator struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewCoordinator wires a coordinator to its dispatcher.
func NewCoordinator(dispatcher *Dispatcher, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		dispatcher: dispatcher,
		logger:     logger.With("system", "engine"),
	}
}

// Close releases the dispatcher's worker pool. No Execute may be in
// flight when Close is called.
func (c *Coordinator) Close() {
	c.dispatcher.Close()
}

// Execute runs a validated graph to its terminal state and returns the
// finished record. The seed payload carries the submitted input files;
// each Input node receives the subset matching its supported formats.
//
// Failure semantics: a node failure lets already-dispatched siblings in
// the same wave settle, but no later wave starts; nodes downstream of the
// failure and nodes stranded by the abort are marked Error at finalize,
// so progress still reaches 100. Cancellation is observed between waves.
// Execute never returns a non-terminal record.
func (c *Coordinator) Execute(ctx context.Context, run *Run, graph *pipeline.Graph, seed Payload) Record {
	waves, err := Plan(graph)
	if err != nil {
		c.logger.ErrorContext(ctx, "execution planning failed",
			"execution", run.ID(),
			"error", err)
		return run.abort(fmt.Sprintf("plan execution: %v", err))
	}

	scheduled := Scheduled(waves)
	run.begin(scheduled)
	c.logger.InfoContext(ctx, "execution started",
		"execution", run.ID(),
		"waves", len(waves),
		"nodes", len(scheduled))

	predecessors := graph.Predecessors()
	outputs := make(map[string]Payload, len(scheduled))
	var failures []string
	cancelled := false

	for index, wave := range waves {
		if run.cancelRequested() || ctx.Err() != nil {
			cancelled = true
			break
		}
		if len(failures) > 0 {
			break
		}

		replies := make(chan Response, len(wave))
		dispatched := 0
		for _, id := range wave {
			node, _ := graph.Node(id)
			config, err := node.ParseConfig()
			if err != nil {
				run.settle(id, Response{NodeID: id, Err: err})
				failures = append(failures, id)
				continue
			}

			run.markRunning(id)
			c.dispatcher.Dispatch(ctx, Request{
				RunID:     run.ID(),
				NodeID:    id,
				Operation: node.Kind.Operation(),
				Config:    config,
				Input:     gatherInput(node, predecessors[id], outputs, seed),
			}, replies)
			dispatched++
		}

		// Wave barrier: every dispatch settles before the next wave.
		for i := 0; i < dispatched; i++ {
			response := <-replies
			run.settle(response.NodeID, response)

			if !response.Success {
				failures = append(failures, response.NodeID)
				c.logger.WarnContext(ctx, "node failed",
					"execution", run.ID(),
					"wave", index,
					"node", response.NodeID,
					"error", response.Err)
				continue
			}

			outputs[response.NodeID] = response.Data
			if node, ok := graph.Node(response.NodeID); ok && node.Kind == pipeline.KindOutput {
				run.addOutputs(response.Data)
			}
		}
	}

	record := run.finalize(finalCauses(graph, scheduled, failures, cancelled), cancelled)
	c.logger.InfoContext(ctx, "execution finished",
		"execution", record.ID,
		"status", record.Status,
		"error", record.Error)
	return record
}

// gatherInput assembles a node's input payload: the merged outputs of its
// predecessors in declaration order, or for a source node its share of
// the seed. The coordinator owns this wiring; workers only ever see their
// own inputs.
func gatherInput(node pipeline.Node, predecessors []string, outputs map[string]Payload, seed Payload) Payload {
	if len(predecessors) == 0 {
		if node.Kind == pipeline.KindInput {
			return filterSeed(seed, node.SupportedFormats)
		}
		return Payload{}
	}

	parts := make([]Payload, 0, len(predecessors))
	for _, id := range predecessors {
		parts = append(parts, outputs[id])
	}
	return MergePayloads(parts...)
}

// filterSeed narrows the submitted files to the formats an Input node
// accepts; an unrestricted node takes everything.
func filterSeed(seed Payload, supported []string) Payload {
	if len(supported) == 0 {
		return seed.Clone()
	}

	accepted := make(map[string]bool, len(supported))
	for _, format := range supported {
		accepted[formats.Normalize(format)] = true
	}

	filtered := make(Payload)
	for _, name := range seed.Names() {
		blob := seed[name]
		if accepted[formats.Normalize(blob.Format)] {
			filtered[name] = blob
		}
	}
	return filtered
}

// finalCauses explains every node the run never settled: downstream of a
// failure, stranded by the abort, or cancelled.
func finalCauses(graph *pipeline.Graph, scheduled, failures []string, cancelled bool) map[string]string {
	successors := graph.Successors()

	// Transitive closure downstream of each failure; the first failed
	// ancestor in failure order names the cause.
	blame := make(map[string]string)
	for _, failed := range failures {
		frontier := []string{failed}
		for len(frontier) > 0 {
			id := frontier[0]
			frontier = frontier[1:]
			for _, next := range successors[id] {
				if _, seen := blame[next]; seen {
					continue
				}
				blame[next] = failed
				frontier = append(frontier, next)
			}
		}
	}

	causes := make(map[string]string, len(scheduled))
	for _, id := range scheduled {
		switch {
		case blame[id] != "":
			causes[id] = fmt.Sprintf("%s: %s", ErrUpstreamFailure, blame[id])
		case cancelled:
			causes[id] = ErrCancelled.Error()
		case len(failures) > 0:
			causes[id] = "not dispatched: run aborted after failure"
		}
	}
	return causes
}
