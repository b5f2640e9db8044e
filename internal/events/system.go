package events

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/pagination"
)

// System defines the public contract for event setup, locking, and archiving.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Event], error)

	Find(ctx context.Context, id uuid.UUID) (*EventDetail, error)
	Create(ctx context.Context, cmd CreateCommand, actor auth.Identity) (*Event, error)
	CreateContest(ctx context.Context, eventID uuid.UUID, cmd CreateContestCommand, actor auth.Identity) (*Contest, error)
	CreateCategory(ctx context.Context, contestID uuid.UUID, cmd CreateCategoryCommand, actor auth.Identity) (*Category, error)
	FindCategory(ctx context.Context, id uuid.UUID) (*Category, error)

	// Lock requires a Board certification on every contest of the event.
	// Locking a locked event succeeds without changes; changed reports
	// whether this call performed the lock.
	Lock(ctx context.Context, id uuid.UUID, actor auth.Identity) (evt *Event, changed bool, err error)
	Unlock(ctx context.Context, id uuid.UUID, actor auth.Identity) (*Event, error)
	Archive(ctx context.Context, id uuid.UUID, actor auth.Identity) (*Event, error)
	Restore(ctx context.Context, id uuid.UUID, actor auth.Identity) (*Event, error)
}
