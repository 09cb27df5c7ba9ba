package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenService issues and verifies HS256 signed, time bounded tokens.
// It holds no mutable state and is safe for concurrent use.
type TokenService struct {
	signingKey []byte
	lifetime   time.Duration
	now        Clock
	logger     Logger
	metrics    *Metrics
	parser     *jwt.Parser
}

// TokenOption configures a TokenService
type TokenOption func(*TokenService)

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenOption {
	return func(ts *TokenService) {
		ts.logger = resolveLogger(logger)
	}
}

// WithClock overrides the time source, used for issuedAt and expiration checks
func WithClock(clock Clock) TokenOption {
	return func(ts *TokenService) {
		if clock != nil {
			ts.now = clock
		}
	}
}

// WithTokenMetrics records issuance and verification outcomes
func WithTokenMetrics(m *Metrics) TokenOption {
	return func(ts *TokenService) {
		ts.metrics = m
	}
}

// NewTokenService creates a new TokenService instance. The key is copied
// and never exposed again.
func NewTokenService(signingKey []byte, lifetime time.Duration, opts ...TokenOption) (*TokenService, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}

	if lifetime <= 0 {
		return nil, ErrInvalidTokenLifetime
	}

	key := make([]byte, len(signingKey))
	copy(key, signingKey)

	ts := &TokenService{
		signingKey: key,
		lifetime:   lifetime,
		now:        time.Now,
		logger:     defLogger(),
		// expiration is checked by the service itself so that the subject of
		// an expired token can still be read after signature verification
		parser: jwt.NewParser(
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
		),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// Lifetime returns the configured token lifetime
func (ts *TokenService) Lifetime() time.Duration {
	return ts.lifetime
}

// ExpiresInMillis returns the token lifetime in milliseconds
func (ts *TokenService) ExpiresInMillis() int64 {
	return ts.lifetime.Milliseconds()
}

// Issue creates a signed token for the identity. Extra claims are stored
// under the "ext" claim.
func (ts *TokenService) Issue(identity Identity, extra map[string]any) (string, error) {
	if identity == nil || identity.Identifier() == "" {
		return "", ErrEmptySubject
	}

	now := ts.now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Identifier(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt(now, ts.lifetime)),
		},
		Extra: copyExtra(extra),
	}

	return ts.SignClaims(claims)
}

// expiresAt rounds issuedAt + lifetime up to the whole second, the
// resolution of the exp claim, so a token never expires before its lifetime
// has elapsed.
func expiresAt(issuedAt time.Time, lifetime time.Duration) time.Time {
	exp := issuedAt.Add(lifetime)
	if whole := exp.Truncate(time.Second); !whole.Equal(exp) {
		return whole.Add(time.Second)
	}
	return exp
}

// SignClaims signs the given claims with the configured key.
func (ts *TokenService) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	ts.metrics.TokenIssued()

	return signed, nil
}

// Verify checks signature first and expiration second.
func (ts *TokenService) Verify(raw string) (*JWTClaims, error) {
	claims, err := ts.Inspect(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Inspect verifies the signature and the expiration of the token. Claims of
// a correctly signed but expired token are returned along with
// ErrTokenExpired. Every call records one verification result.
func (ts *TokenService) Inspect(raw string) (*JWTClaims, error) {
	claims, err := ts.decode(raw)
	if err == nil && claims.ExpiredAt(ts.now()) {
		err = ErrTokenExpired
	}

	ts.metrics.TokenVerification(verificationResult(err))

	if err != nil && !IsTokenExpiredError(err) {
		return nil, err
	}

	return claims, err
}

// ExtractSubject returns the subject of a correctly signed token. Expiration
// is not checked so the claimed identity can be looked up before IsValid.
func (ts *TokenService) ExtractSubject(raw string) (string, error) {
	claims, err := ts.decode(raw)
	if err != nil {
		return "", err
	}

	return claims.Subject(), nil
}

// IsValid is true when the token subject matches the identity and the
// token has not expired.
func (ts *TokenService) IsValid(raw string, identity Identity) bool {
	if identity == nil {
		return false
	}

	claims, err := ts.Inspect(raw)
	if err != nil {
		return false
	}

	return ts.owns(claims, identity)
}

func (ts *TokenService) owns(claims *JWTClaims, identity Identity) bool {
	if claims.Subject() != identity.Identifier() {
		ts.logger.Debug("token subject does not match identity")
		return false
	}
	return true
}

func (ts *TokenService) decode(raw string) (*JWTClaims, error) {
	claims := &JWTClaims{}

	if _, err := ts.parser.ParseWithClaims(raw, claims, ts.keyFunc); err != nil {
		return nil, ts.classify(raw, err)
	}

	if claims.ExpiresAt == nil {
		return nil, wrapAs(ErrTokenMalformed, "token is missing the exp claim", nil)
	}

	if claims.Subject() == "" {
		return nil, wrapAs(ErrTokenMalformed, "token is missing the sub claim", nil)
	}

	return claims, nil
}

func (ts *TokenService) keyFunc(t *jwt.Token) (any, error) {
	if t.Method == nil || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		ts.logger.Warn("token uses unexpected signing method", "alg", t.Header["alg"])
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return ts.signingKey, nil
}

// classify maps parser errors to the package taxonomy. A token whose header
// and payload decode but whose signature segment does not is reported as an
// invalid signature.
func (ts *TokenService) classify(raw string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return wrapAs(ErrInvalidSignature, "", err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		if _, _, uerr := ts.parser.ParseUnverified(raw, &JWTClaims{}); uerr == nil {
			return wrapAs(ErrInvalidSignature, "", err)
		}
		return wrapAs(ErrTokenMalformed, "", err)
	default:
		return wrapAs(ErrTokenMalformed, "", err)
	}
}

func verificationResult(err error) string {
	switch {
	case err == nil:
		return "valid"
	case IsTokenExpiredError(err):
		return "expired"
	case IsInvalidSignatureError(err):
		return "invalid_signature"
	default:
		return "malformed"
	}
}
