// Package operations implements the execution backend for pipeline nodes.
// Each node kind maps to a runner that performs its transformation: blob
// transfer through storage, PDF manipulation through pdfcpu, rendering
// through ImageMagick, and text recognition through a vision agent. The
// engine sees only its Runner interface and treats every runner as an
// opaque, possibly slow, possibly failing collaborator.
package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/cascade/internal/engine"
	"github.com/JaimeStill/cascade/internal/formats"
	"github.com/JaimeStill/cascade/internal/pipeline"
	"github.com/JaimeStill/cascade/pkg/storage"
)

// Runtime bundles the dependencies the operation runners require.
// It is constructed by higher-level composition code from Infrastructure
// and configuration.
type Runtime struct {
	Storage storage.System
	Formats *formats.Registry
	Agent   gaconfig.AgentConfig
	Logger  *slog.Logger

	// OutputPrefix is the blob key prefix for persisted results.
	// Empty selects "executions".
	OutputPrefix string
}

type runnerFunc func(ctx context.Context, req engine.Request) (engine.Payload, error)

// Registry routes dispatch requests to the runner for their operation.
// Like the format registry it is an explicit value constructed once at
// startup; immutable afterward and safe for concurrent workers.
type Registry struct {
	storage      storage.System
	formats      *formats.Registry
	agent        gaconfig.AgentConfig
	logger       *slog.Logger
	outputPrefix string
	runners      map[string]runnerFunc
}

// New builds the registry with every built-in runner bound.
func New(rt *Runtime) *Registry {
	prefix := rt.OutputPrefix
	if prefix == "" {
		prefix = "executions"
	}

	r := &Registry{
		storage:      rt.Storage,
		formats:      rt.Formats,
		agent:        rt.Agent,
		logger:       rt.Logger.With("system", "operations"),
		outputPrefix: prefix,
	}

	r.runners = map[string]runnerFunc{
		pipeline.KindInput.Operation():     r.runInput,
		pipeline.KindSplit.Operation():     r.runSplit,
		pipeline.KindMerge.Operation():     r.runMerge,
		pipeline.KindExtract.Operation():   r.runExtract,
		pipeline.KindConvert.Operation():   r.runConvert,
		pipeline.KindCompress.Operation():  r.runCompress,
		pipeline.KindOcr.Operation():       r.runOcr,
		pipeline.KindCondition.Operation(): r.runCondition,
		pipeline.KindOutput.Operation():    r.runOutput,
	}

	return r
}

// Run implements engine.Runner.
func (r *Registry) Run(ctx context.Context, req engine.Request) (engine.Payload, error) {
	runner, ok := r.runners[req.Operation]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, req.Operation)
	}
	return runner(ctx, req)
}

// configAs asserts the decoded configuration attached to a request. The
// validator guarantees the shape for graphs it passed, so a mismatch here
// means the request was built outside the normal submission path.
func configAs[T pipeline.Config](req engine.Request) (T, error) {
	cfg, ok := req.Config.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s requires %T", ErrBadConfig, req.Operation, zero)
	}
	return cfg, nil
}

// stem returns a blob name without its extension.
func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
