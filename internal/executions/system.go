package executions

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/cascade/pkg/pagination"
)

// System defines the public contract for execution domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Execution], error)

	Find(ctx context.Context, id uuid.UUID) (*Execution, error)
	Submit(ctx context.Context, cmd SubmitCommand) (*Execution, error)
	Cancel(ctx context.Context, id uuid.UUID) (*Execution, error)
}
