package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// Options is the service configuration read from the environment
type Options struct {
	SigningKey         string        `env:"JWT_SECRET_KEY,required"`
	ExpirationMillis   int64         `env:"JWT_EXPIRATION_TIME,required"`
	HTTPAddr           string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBDriver           string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN              string        `env:"DB_DSN" envDefault:"file::memory:?cache=shared"`
	CORSAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:8080"`
	BcryptCost         int           `env:"BCRYPT_COST" envDefault:"10"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	UseHashedIDs       bool          `env:"USE_HASHED_IDS" envDefault:"false"`
	Debug              bool          `env:"DEBUG" envDefault:"false"`
	ContextKey         string        `env:"AUTH_CONTEXT_KEY" envDefault:"auth"`
	AuthScheme         string        `env:"AUTH_SCHEME" envDefault:"Bearer"`
}

var _ Config = Options{}

// LoadOptions reads an optional .env file and parses the environment
func LoadOptions() (Options, error) {
	// the .env file is optional
	_ = godotenv.Load()

	var opts Options
	if err := env.Parse(&opts); err != nil {
		return Options{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "config: failed to parse environment")
	}

	if err := opts.Validate(); err != nil {
		return Options{}, goerrors.Wrap(err, goerrors.CategoryValidation, "config: invalid options")
	}

	return opts, nil
}

// Validate checks the signing key, token lifetime and bcrypt cost
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.SigningKey, validation.Required, validation.By(validBase64Key)),
		validation.Field(&o.ExpirationMillis, validation.Required, validation.Min(int64(1))),
		validation.Field(&o.DBDriver, validation.In("sqlite", "postgres")),
		validation.Field(&o.BcryptCost, validation.Min(MinBcryptCost), validation.Max(MaxBcryptCost)),
		validation.Field(&o.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
}

// SigningKeyBytes decodes the base64 signing key
func (o Options) SigningKeyBytes() ([]byte, error) {
	return decodeSigningKey(o.SigningKey)
}

// TokenLifetime returns the configured lifetime
func (o Options) TokenLifetime() time.Duration {
	return time.Duration(o.ExpirationMillis) * time.Millisecond
}

// AllowedOrigins returns the CORS origins in the form expected by fiber
func (o Options) AllowedOrigins() string {
	parts := strings.Split(o.CORSAllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}

func (o Options) GetSigningKey() string {
	return o.SigningKey
}

func (o Options) GetTokenExpiration() time.Duration {
	return o.TokenLifetime()
}

func (o Options) GetContextKey() string {
	return o.ContextKey
}

func (o Options) GetAuthScheme() string {
	return o.AuthScheme
}

// NewTokenServiceFromConfig decodes the configured key and builds a TokenService
func NewTokenServiceFromConfig(cfg Config, opts ...TokenOption) (*TokenService, error) {
	key, err := decodeSigningKey(cfg.GetSigningKey())
	if err != nil {
		return nil, err
	}
	return NewTokenService(key, cfg.GetTokenExpiration(), opts...)
}

func decodeSigningKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingSigningKey
	}

	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "signing key is not valid base64")
	}

	if len(key) == 0 {
		return nil, ErrMissingSigningKey
	}

	return key, nil
}

func validBase64Key(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := decodeSigningKey(s); err != nil {
		return errors.New("must be a base64 encoded key")
	}
	return nil
}
