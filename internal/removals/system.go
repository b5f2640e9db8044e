package removals

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/pagination"
)

// System manages the score removal request workflow.
type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Request], error)
	Find(ctx context.Context, id uuid.UUID) (*Request, error)
	Create(ctx context.Context, cmd CreateCommand, actor auth.Identity) (*Request, error)
	Sign(ctx context.Context, id uuid.UUID, cmd SignCommand, actor auth.Identity) (*SignResult, error)
	Reject(ctx context.Context, id uuid.UUID, cmd RejectCommand, actor auth.Identity) (*Request, error)
	Execute(ctx context.Context, id uuid.UUID, actor auth.Identity) (*ExecuteResult, error)
}
