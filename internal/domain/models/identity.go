package models

import (
	"context"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
)

// Identity is the authenticated caller as reported by the identity service.
// The pipeline never resolves identities beyond this snapshot.
type Identity struct {
	ID    int64      `json:"id"`
	Email string     `json:"email"`
	Role  types.Role `json:"role"`
}

// AnonymousIdentity represents an unauthenticated caller.
var AnonymousIdentity = &Identity{}

func (i *Identity) IsAnonymous() bool {
	return i == AnonymousIdentity
}

type identityCtxKey struct{}

var identityKey = identityCtxKey{}

// WithIdentity injects the authenticated identity into the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity set by the auth middleware,
// or nil when the request never passed through it.
func IdentityFromContext(ctx context.Context) *Identity {
	id, ok := ctx.Value(identityKey).(*Identity)
	if !ok {
		return nil
	}
	return id
}
