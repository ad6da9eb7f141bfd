package api

import (
	"github.com/JaimeStill/cascade/internal/documents"
	"github.com/JaimeStill/cascade/internal/engine"
	"github.com/JaimeStill/cascade/internal/executions"
	"github.com/JaimeStill/cascade/internal/operations"
	"github.com/JaimeStill/cascade/internal/validation"
	"github.com/JaimeStill/cascade/internal/workflows"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents  documents.System
	Workflows  workflows.System
	Executions executions.System
}

// NewDomain creates all domain systems from the API runtime. One format
// registry, one validator, and one execution engine are shared by every
// system; the engine's worker pool is released through the lifecycle
// coordinator when the executions system drains.
func NewDomain(runtime *Runtime) *Domain {
	validator := validation.New(runtime.Formats)

	runners := operations.New(&operations.Runtime{
		Storage:      runtime.Storage,
		Formats:      runtime.Formats,
		Agent:        runtime.Agent,
		Logger:       runtime.Logger,
		OutputPrefix: runtime.OutputPrefix,
	})

	dispatcher := engine.NewDispatcher(runners, runtime.Engine, runtime.Logger)
	coordinator := engine.NewCoordinator(dispatcher, runtime.Logger)

	docsSystem := documents.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Formats,
		runtime.Logger,
		runtime.Pagination,
	)

	flowsSystem := workflows.New(
		runtime.Database.Connection(),
		validator,
		runtime.Logger,
		runtime.Pagination,
	)

	execsSystem := executions.New(
		runtime.Database.Connection(),
		coordinator,
		flowsSystem,
		docsSystem,
		runtime.Lifecycle,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Documents:  docsSystem,
		Workflows:  flowsSystem,
		Executions: execsSystem,
	}
}
