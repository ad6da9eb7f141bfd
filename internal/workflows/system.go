package workflows

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/cascade/internal/pipeline"
	"github.com/JaimeStill/cascade/internal/validation"
	"github.com/JaimeStill/cascade/pkg/pagination"
)

// System defines the public contract for workflow domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Workflow], error)

	Find(ctx context.Context, id uuid.UUID) (*Workflow, error)
	Create(ctx context.Context, cmd CreateCommand) (*Workflow, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Workflow, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Validate(graph *pipeline.Graph) validation.Report
}
