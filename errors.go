package auth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeTokenMalformed      = "auth_token_malformed"
	TextCodeInvalidSignature    = "auth_token_invalid_signature"
	TextCodeTokenExpired        = "auth_token_expired"
	TextCodeInvalidCredentials  = "auth_invalid_credentials"
	TextCodeIdentityNotFound    = "auth_identity_not_found"
	TextCodeIdentityExists      = "auth_identity_exists"
	TextCodeUnauthenticated     = "auth_unauthenticated"
	TextCodeMissingSigningKey   = "auth_missing_signing_key"
	TextCodeInvalidLifetime     = "auth_invalid_token_lifetime"
	TextCodeEmptyPassword       = "auth_empty_password"
	TextCodePasswordMismatch    = "auth_password_mismatch"
	TextCodeEmptySubject        = "auth_empty_subject"
	TextCodeInvalidRequestInput = "auth_invalid_request"
)

// ErrTokenMalformed is returned when a token cannot be decoded or uses an
// unsupported algorithm
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidSignature is returned when the token signature does not match
var ErrInvalidSignature = goerrors.New("token signature is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidSignature).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for correctly signed tokens past expiration
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredentials is the generic login failure
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrIdentityExists is returned by stores when the identifier is already taken
var ErrIdentityExists = goerrors.New("identity already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeIdentityExists).
	WithCode(goerrors.CodeConflict)

// ErrUnauthenticated is returned when a protected route has no auth context
var ErrUnauthenticated = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrMissingSigningKey signals a missing signing secret
var ErrMissingSigningKey = goerrors.New("signing key is required", goerrors.CategoryBadInput).
	WithTextCode(TextCodeMissingSigningKey)

// ErrInvalidTokenLifetime signals a missing or non positive lifetime
var ErrInvalidTokenLifetime = goerrors.New("token lifetime must be positive", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidLifetime)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is returned when a password does not match
var ErrMismatchedHashAndPassword = goerrors.New("password does not match hash", goerrors.CategoryAuth).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmptySubject is returned when issuing a token for an identity without identifier
var ErrEmptySubject = goerrors.New("identity identifier must not be empty", goerrors.CategoryBadInput).
	WithTextCode(TextCodeEmptySubject)

// wrapAs returns a new error carrying the category and codes of base with
// base as its source, so errors.Is keeps matching the sentinel. The cause,
// when present, is kept in the metadata.
func wrapAs(base *goerrors.Error, message string, cause error) *goerrors.Error {
	if message == "" {
		message = base.Message
	}

	rich := goerrors.Wrap(base, base.Category, message).
		WithTextCode(base.TextCode).
		WithCode(base.Code)

	if cause != nil {
		rich.WithMetadata(map[string]any{"cause": cause.Error()})
	}

	return rich
}

// HasTextCode walks the rich error chain looking for code
func HasTextCode(err error, code string) bool {
	for err != nil {
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) {
			return false
		}
		if rich.TextCode == code {
			return true
		}
		err = rich.Source
	}
	return false
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	return errors.Is(err, ErrTokenExpired) || HasTextCode(err, TextCodeTokenExpired)
}

// IsMalformedError will check for malformed tokens
func IsMalformedError(err error) bool {
	return errors.Is(err, ErrTokenMalformed) || HasTextCode(err, TextCodeTokenMalformed)
}

// IsInvalidSignatureError will check for tokens with a bad signature
func IsInvalidSignatureError(err error) bool {
	return errors.Is(err, ErrInvalidSignature) || HasTextCode(err, TextCodeInvalidSignature)
}

// IsIdentityNotFoundError will check for missing identities
func IsIdentityNotFoundError(err error) bool {
	return errors.Is(err, ErrIdentityNotFound) || HasTextCode(err, TextCodeIdentityNotFound)
}

// IsIdentityExistsError will check for duplicate identities
func IsIdentityExistsError(err error) bool {
	return errors.Is(err, ErrIdentityExists) || HasTextCode(err, TextCodeIdentityExists)
}

// IsAuthenticationError reports errors that should surface as a generic
// authentication failure
func IsAuthenticationError(err error) bool {
	return goerrors.IsAuth(err) || IsIdentityNotFoundError(err)
}
