package jwtware

import (
	"context"
	"time"

	"github.com/goliatone/go-router"

	auth "github.com/goliatone/go-jwt-auth"
)

// DefaultContextKey is the locals key holding the *auth.AuthContext
const DefaultContextKey = "auth"

// Config configures the authentication middleware
type Config struct {
	// Filter skips the middleware when it returns true
	Filter func(router.Context) bool
	// Authenticator is required
	Authenticator *auth.RequestAuthenticator
	// ContextKey is the locals key for the attached context
	ContextKey string
	// TokenLookup is the request header carrying the token
	TokenLookup string
	// FailureHandler receives unexpected failures. The default logs the error
	// and continues unauthenticated. Returning the error hands it to the
	// application error handler.
	FailureHandler router.ErrorHandler
	Logger         auth.Logger
}

// New creates the per request authentication middleware. It never rejects a
// request itself; use Gate for that.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			existing, _ := Current(ctx, cfg.ContextKey)

			ac, outcome, err := cfg.Authenticator.Authenticate(ctx.Context(), ctx.Header(cfg.TokenLookup), existing)
			if outcome == auth.OutcomeFailed {
				return cfg.FailureHandler(ctx, err)
			}

			if outcome == auth.OutcomeAuthenticated {
				Attach(ctx, cfg.ContextKey, ac)
			}

			return ctx.Next()
		}
	}
}

// GetDefaultConfig fills in defaults and panics on a missing authenticator
func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Authenticator == nil {
		panic("AUTH: JWT middleware configuration: Authenticator is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = router.HeaderAuthorization
	}

	if cfg.Logger == nil {
		cfg.Logger = auth.NewZapLogger(nil)
	}

	if cfg.FailureHandler == nil {
		logger := cfg.Logger
		cfg.FailureHandler = func(ctx router.Context, err error) error {
			logger.Warn("request authentication failed, continuing unauthenticated",
				"path", ctx.Path(),
				"error", err,
			)
			return ctx.Next()
		}
	}

	return cfg
}

// Attach stores the context in the request locals and in the request context
func Attach(ctx router.Context, key string, ac *auth.AuthContext) {
	if ac == nil {
		return
	}
	if key == "" {
		key = DefaultContextKey
	}
	ctx.Locals(key, ac)
	ctx.SetContext(auth.WithAuthContext(ctx.Context(), ac))
}

// Current returns the context attached to the request, if any
func Current(ctx router.Context, key string) (*auth.AuthContext, bool) {
	if key == "" {
		key = DefaultContextKey
	}
	if ac, ok := ctx.Locals(key).(*auth.AuthContext); ok && ac != nil {
		return ac, true
	}
	return auth.FromContext(ctx.Context())
}

// RequestTimeout bounds the request context so store lookups made during
// authentication observe cancellation.
func RequestTimeout(d time.Duration) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if d <= 0 {
				return ctx.Next()
			}
			c, cancel := context.WithTimeout(ctx.Context(), d)
			defer cancel()
			ctx.SetContext(c)
			return ctx.Next()
		}
	}
}
