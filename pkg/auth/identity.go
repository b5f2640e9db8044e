package auth

import (
	"context"
	"net/http"

	"github.com/JaimeStill/certify/pkg/apperr"
)

// Identity is the authenticated caller attached to each request.
type Identity struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	TenantID string `json:"tenantId,omitempty"`
}

// DisplayName returns Name, falling back to ID.
func (i *Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.ID
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	return id, ok && id != nil
}

// FromRequest returns the request's identity or an Unauthorized error.
func FromRequest(r *http.Request) (*Identity, error) {
	id, ok := FromContext(r.Context())
	if !ok {
		return nil, apperr.ErrUnauthorized
	}
	return id, nil
}
