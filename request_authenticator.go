package auth

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// BearerScheme is the Authorization header scheme carrying tokens
const BearerScheme = "Bearer"

// Outcome describes the result of one authentication pass
type Outcome int

const (
	// OutcomeNoToken means the request carried no bearer token
	OutcomeNoToken Outcome = iota
	// OutcomeAlreadyAuthenticated means a context was already attached
	OutcomeAlreadyAuthenticated
	// OutcomeRejected means the token failed verification or validity checks
	OutcomeRejected
	// OutcomeUnknownIdentity means the token subject has no stored user
	OutcomeUnknownIdentity
	// OutcomeAuthenticated means a context was attached
	OutcomeAuthenticated
	// OutcomeFailed means an unexpected error or cancellation aborted the pass
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoToken:
		return "no_token"
	case OutcomeAlreadyAuthenticated:
		return "already_authenticated"
	case OutcomeRejected:
		return "rejected"
	case OutcomeUnknownIdentity:
		return "unknown_identity"
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RequestAuthenticator turns a bearer token into an AuthContext. Apart from
// OutcomeFailed it never returns an error: requests without a valid token
// simply proceed unauthenticated.
type RequestAuthenticator struct {
	tokens      *TokenService
	store       UserStore
	scheme      string
	authorities func(*User) []string
	logger      Logger
	metrics     *Metrics
}

// RequestAuthenticatorOption configures a RequestAuthenticator
type RequestAuthenticatorOption func(*RequestAuthenticator)

// WithAuthScheme overrides the Authorization header scheme
func WithAuthScheme(scheme string) RequestAuthenticatorOption {
	return func(a *RequestAuthenticator) {
		if s := strings.TrimSpace(scheme); s != "" {
			a.scheme = s
		}
	}
}

// WithAuthorities sets the function deriving authorities for a user
func WithAuthorities(fn func(*User) []string) RequestAuthenticatorOption {
	return func(a *RequestAuthenticator) {
		if fn != nil {
			a.authorities = fn
		}
	}
}

// WithRequestLogger sets the logger
func WithRequestLogger(l Logger) RequestAuthenticatorOption {
	return func(a *RequestAuthenticator) {
		a.logger = resolveLogger(l)
	}
}

// WithRequestMetrics records outcomes
func WithRequestMetrics(m *Metrics) RequestAuthenticatorOption {
	return func(a *RequestAuthenticator) {
		a.metrics = m
	}
}

// NewRequestAuthenticator creates a new RequestAuthenticator
func NewRequestAuthenticator(tokens *TokenService, store UserStore, opts ...RequestAuthenticatorOption) *RequestAuthenticator {
	a := &RequestAuthenticator{
		tokens:      tokens,
		store:       store,
		scheme:      BearerScheme,
		authorities: noAuthorities,
		logger:      defLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// BearerToken extracts the token from an Authorization header value.
func (a *RequestAuthenticator) BearerToken(header string) (string, bool) {
	prefix := a.scheme + " "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}

	return token, true
}

// Authenticate runs a single authentication pass. existing is the context
// already attached to the request, if any.
func (a *RequestAuthenticator) Authenticate(ctx context.Context, header string, existing *AuthContext) (ac *AuthContext, outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			ac, outcome, err = nil, OutcomeFailed, goerrors.New(fmt.Sprintf("authentication panic: %v", r), goerrors.CategoryInternal)
		}
		a.metrics.RequestAuthentication(outcome)
	}()

	if existing != nil {
		return existing, OutcomeAlreadyAuthenticated, nil
	}

	token, ok := a.BearerToken(header)
	if !ok {
		return nil, OutcomeNoToken, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, OutcomeFailed, err
	}

	// the subject of a correctly signed token is trusted for the lookup,
	// expiration and ownership are confirmed afterwards
	claims, verr := a.tokens.Inspect(token)
	if verr != nil && !IsTokenExpiredError(verr) {
		a.logger.Debug("bearer token rejected", "error", verr)
		return nil, OutcomeRejected, nil
	}

	user, err := a.store.FindByEmail(ctx, claims.Subject())
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, OutcomeFailed, ctxErr
	}

	if err != nil {
		if IsIdentityNotFoundError(err) {
			a.logger.Debug("token subject has no identity")
			return nil, OutcomeUnknownIdentity, nil
		}
		return nil, OutcomeFailed, goerrors.Wrap(err, goerrors.CategoryInternal, "identity lookup failed")
	}

	if user == nil {
		return nil, OutcomeUnknownIdentity, nil
	}

	if verr != nil || !a.tokens.owns(claims, user) {
		a.logger.Debug("bearer token not valid for identity", "error", verr)
		return nil, OutcomeRejected, nil
	}

	return &AuthContext{
		User:        user,
		Authorities: a.authorities(user),
		Claims:      claims,
	}, OutcomeAuthenticated, nil
}

func noAuthorities(*User) []string {
	return []string{}
}
