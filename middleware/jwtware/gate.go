package jwtware

import (
	"net/http"

	"github.com/goliatone/go-router"

	auth "github.com/goliatone/go-jwt-auth"
)

// GateConfig configures the authorization gate
type GateConfig struct {
	ContextKey string
	// Unauthorized builds the response for rejected requests. The default
	// returns auth.ErrUnauthenticated to the application error handler.
	Unauthorized router.HandlerFunc
}

// Gate rejects requests to routes that require authentication when no
// context is attached.
func Gate(policy *auth.Policy, config ...GateConfig) router.MiddlewareFunc {
	var cfg GateConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.Unauthorized == nil {
		cfg.Unauthorized = func(ctx router.Context) error {
			return auth.ErrUnauthenticated
		}
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if ctx.Method() == http.MethodOptions {
				return ctx.Next()
			}

			ac, _ := Current(ctx, cfg.ContextKey)
			if policy.Allows(ctx.Path(), ac) {
				return ctx.Next()
			}

			return cfg.Unauthorized(ctx)
		}
	}
}
