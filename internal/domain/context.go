package domain

import "context"

type principalKey struct{}

// ContextPrincipal carries the authenticated identity through request context.
// Name doubles as the owner key for uploaded analyzer files.
type ContextPrincipal struct {
	Name  string
	Email string
}

// WithPrincipal stores a ContextPrincipal in the context.
func WithPrincipal(ctx context.Context, p ContextPrincipal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the ContextPrincipal from the context.
func PrincipalFromContext(ctx context.Context) (ContextPrincipal, bool) {
	p, ok := ctx.Value(principalKey{}).(ContextPrincipal)
	return p, ok
}
