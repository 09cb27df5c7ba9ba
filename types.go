package auth

import (
	"context"
	"time"
)

// Logger is the logging contract used across the package. Messages are
// followed by alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity holds the attributes of an identity
type Identity interface {
	Identifier() string
	DisplayName() string
	CredentialHash() string
}

// UserStore persists and retrieves users. FindByEmail must return
// ErrIdentityNotFound when no record matches.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, user *User) (*User, error)
	List(ctx context.Context) ([]*User, error)
}

// PasswordHasher hashes and verifies credentials
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// CredentialVerifier validates an identifier and secret pair.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, identifier, password string) error
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() time.Duration
	GetContextKey() string
	GetAuthScheme() string
}

// Clock returns the current time
type Clock func() time.Time
