package scores

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/pagination"
)

// System defines the public contract for the score store.
type System interface {
	Handler() *Handler

	// Submit writes the acting judge's score for one grid cell. created
	// reports whether the cell was new.
	Submit(ctx context.Context, categoryID uuid.UUID, cmd SubmitCommand, judge auth.Identity) (score *Score, created bool, err error)

	List(
		ctx context.Context,
		categoryID uuid.UUID,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Score], error)

	Status(ctx context.Context, categoryID uuid.UUID) (*Status, error)
}
