package runs

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/gaslens/gaslens/pkg/flow"
	"github.com/gaslens/gaslens/pkg/pagination"
)

// System defines the public contract for run domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Run], error)

	Find(ctx context.Context, id uuid.UUID) (*Run, error)

	// Execute launches a run and blocks until it reaches a terminal status.
	// The returned run carries the final state and any failure descriptor.
	Execute(ctx context.Context, cmd ExecuteCommand) (*Run, error)

	// Stream launches a run and returns the created record alongside a
	// channel of workflow events. Execution semantics match Execute; the
	// channel closes after the final event, once the result is persisted.
	Stream(ctx context.Context, cmd ExecuteCommand) (*Run, <-chan flow.Event, error)

	// Report returns the archived report for a finished run. The caller
	// must close the reader.
	Report(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
