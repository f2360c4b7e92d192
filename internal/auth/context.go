package auth

import (
	"context"

	"github.com/spendwise/spendwise/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// principalKey is the context key for storing the authenticated Principal.
const principalKey contextKey = "principal"

// ContextWithPrincipal adds a Principal to the context.
func ContextWithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the Principal from the context.
// Returns nil if the request is unauthenticated.
func PrincipalFromContext(ctx context.Context) *model.Principal {
	p, ok := ctx.Value(principalKey).(*model.Principal)
	if !ok {
		return nil
	}
	return p
}

// UserIDFromContext is a convenience function to get the user ID from context.
// Returns empty string if not authenticated.
func UserIDFromContext(ctx context.Context) string {
	p := PrincipalFromContext(ctx)
	if p == nil {
		return ""
	}
	return p.UserID
}
