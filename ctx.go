package auth

import (
	"context"
)

var authCtxKey = &contextKey{"auth"}

type contextKey struct {
	name string
}

// AuthContext is the per request result of a successful authentication.
// It is never shared across requests.
type AuthContext struct {
	User        *User
	Authorities []string
	Claims      *JWTClaims
}

// Identifier returns the authenticated identifier
func (a *AuthContext) Identifier() string {
	if a == nil {
		return ""
	}
	return a.User.Identifier()
}

// HasAuthority reports whether the context carries the authority
func (a *AuthContext) HasAuthority(name string) bool {
	if a == nil {
		return false
	}
	for _, auth := range a.Authorities {
		if auth == name {
			return true
		}
	}
	return false
}

// WithAuthContext sets the AuthContext in the given context
func WithAuthContext(ctx context.Context, ac *AuthContext) context.Context {
	return context.WithValue(ctx, authCtxKey, ac)
}

// FromContext finds the AuthContext in the context.
func FromContext(ctx context.Context) (*AuthContext, bool) {
	if ctx == nil {
		return nil, false
	}
	raw, ok := ctx.Value(authCtxKey).(*AuthContext)
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

// UserFromContext finds the authenticated user in the context.
func UserFromContext(ctx context.Context) (*User, bool) {
	ac, ok := FromContext(ctx)
	if !ok || ac.User == nil {
		return nil, false
	}
	return ac.User, true
}
