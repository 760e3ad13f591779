package auth

import "context"

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Admin  bool
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// Helper to extract user ID in handlers
func UserID(ctx context.Context) string {
	p, _ := PrincipalFrom(ctx)
	return p.UserID
}

func IsAdmin(ctx context.Context) bool {
	p, _ := PrincipalFrom(ctx)
	return p.Admin
}
