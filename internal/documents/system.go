package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/cascade/pkg/pagination"
)

// System defines the public contract for document domain operations.
// Document content lives in blob storage while its metadata row lives
// in Postgres; Create and Delete keep the two in step.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id uuid.UUID) (*Document, error)

	// Create stores the blob, then the metadata row. The blob is
	// removed again when the insert fails.
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)

	// Delete removes the metadata row, then the blob. A blob delete
	// failure is logged, not returned.
	Delete(ctx context.Context, id uuid.UUID) error
}
