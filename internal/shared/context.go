package shared

import "context"

// Identity describes the authenticated actor attached to a request.
type Identity struct {
	UserID   int64
	Username string
	Role     string
}

type contextKey string

const identityKey contextKey = "wareline.identity"

// ContextWithIdentity returns a context carrying the identity.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
