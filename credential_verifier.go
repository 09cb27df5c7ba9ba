package auth

import (
	"context"
	"errors"
)

// timingPassword is hashed once so unknown identifiers cost one comparison
const timingPassword = "go-jwt-auth timing equalizer"

// StoreCredentialVerifier checks credentials against the stored hash.
// Every failure is reported as ErrInvalidCredentials so callers cannot tell
// an unknown identifier from a wrong password.
type StoreCredentialVerifier struct {
	store     UserStore
	hasher    PasswordHasher
	logger    Logger
	dummyHash string
}

var _ CredentialVerifier = (*StoreCredentialVerifier)(nil)

// NewCredentialVerifier will create a new StoreCredentialVerifier
func NewCredentialVerifier(store UserStore, hasher PasswordHasher) *StoreCredentialVerifier {
	v := &StoreCredentialVerifier{
		store:  store,
		hasher: hasher,
		logger: defLogger(),
	}

	// a failed hash leaves the comparison running against an empty hash,
	// which still goes through the hasher
	if hash, err := hasher.HashPassword(timingPassword); err == nil {
		v.dummyHash = hash
	}

	return v
}

// WithLogger sets the logger
func (v *StoreCredentialVerifier) WithLogger(l Logger) *StoreCredentialVerifier {
	v.logger = resolveLogger(l)
	return v
}

// VerifyCredentials finds the user and compares the password to its hash
func (v *StoreCredentialVerifier) VerifyCredentials(ctx context.Context, identifier, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	user, err := v.store.FindByEmail(ctx, identifier)
	if err != nil {
		v.equalize(password)
		if IsIdentityNotFoundError(err) {
			return ErrInvalidCredentials
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		v.logger.Error("credential lookup failed", "error", err)
		return ErrInvalidCredentials
	}

	if err := v.hasher.ComparePasswordAndHash(password, user.CredentialHash()); err != nil {
		if !errors.Is(err, ErrMismatchedHashAndPassword) {
			v.logger.Warn("credential comparison failed", "error", err)
		}
		return ErrInvalidCredentials
	}

	return nil
}

// equalize spends a hash comparison when there is no stored hash to check
func (v *StoreCredentialVerifier) equalize(password string) {
	_ = v.hasher.ComparePasswordAndHash(password, v.dummyHash)
}
