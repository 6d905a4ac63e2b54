package journal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docriver/pkg/pagination"
)

// System defines the journal operations.
type System interface {
	Handler() *Handler

	Record(ctx context.Context, cmd RecordCommand) (*Entry, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Entry], error)
	Find(ctx context.Context, id uuid.UUID) (*Entry, error)
	Purge(ctx context.Context, before time.Time) (int64, error)
}
