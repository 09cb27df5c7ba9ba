package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims carries the required registered claims plus an optional
// extension map. Extensions never override sub, iat or exp.
type JWTClaims struct {
	jwt.RegisteredClaims
	Extra map[string]any `json:"ext,omitempty"`
}

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	if c == nil {
		return ""
	}
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c == nil || c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c == nil || c.RegisteredClaims.IssuedAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.IssuedAt.Time
}

// ExpiredAt reports whether the token is expired at the given instant.
// A token is expired once now reaches the expiration time.
func (c *JWTClaims) ExpiredAt(now time.Time) bool {
	exp := c.Expires()
	if exp.IsZero() {
		return true
	}
	return !now.Before(exp)
}

// Claim returns an extension claim by name
func (c *JWTClaims) Claim(name string) (any, bool) {
	if c == nil || c.Extra == nil {
		return nil, false
	}
	v, ok := c.Extra[name]
	return v, ok
}

func copyExtra(extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]any, len(extra))
	for k, v := range extra {
		out[k] = v
	}
	return out
}
