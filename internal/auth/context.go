package auth

import "context"

// Owner identifies whose cart, wishlist and orders a request works on.
type Owner struct {
	ID   string
	Role string
	// Anonymous marks an owner taken from a client-chosen session id instead of a signed token.
	Anonymous bool
}

func (o Owner) IsAdmin() bool { return o.Role == RoleAdmin }

type ownerKey struct{}

func WithOwner(ctx context.Context, o Owner) context.Context {
	return context.WithValue(ctx, ownerKey{}, o)
}

func OwnerFromContext(ctx context.Context) (Owner, bool) {
	o, ok := ctx.Value(ownerKey{}).(Owner)
	return o, ok && o.ID != ""
}
