package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-jwt-auth"
)

func TestAuthenticationService_SignupLoginRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	service := auth.NewAuthenticationService(store, plainHasher{}, auth.WithServiceClock(fixedClock(issuedAt)))

	user, err := service.Signup(ctx, auth.RegisterRequest{
		FullName: " Ada Lovelace ",
		Email:    "ada@example.com",
		Password: "analytical-engine",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "Ada Lovelace", user.FullName)
	assert.Equal(t, "plain:analytical-engine", user.PasswordHash)
	assert.True(t, user.CreatedAt.Equal(issuedAt))

	logged, err := service.Login(ctx, auth.LoginRequest{Email: "ada@example.com", Password: "analytical-engine"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
}

func TestAuthenticationService_SignupWithBcrypt(t *testing.T) {
	ctx := context.Background()
	hasher, err := auth.NewBcryptHasher(auth.MinBcryptCost)
	require.NoError(t, err)

	service := auth.NewAuthenticationService(newMemoryStore(), hasher)

	user, err := service.Signup(ctx, auth.RegisterRequest{FullName: "Ada", Email: "ada@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.NotEqual(t, "secret", user.PasswordHash)

	_, err = service.Login(ctx, auth.LoginRequest{Email: "ada@example.com", Password: "secret"})
	assert.NoError(t, err)
}

func TestAuthenticationService_LoginFailures(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	service := auth.NewAuthenticationService(store, plainHasher{})

	_, err := service.Signup(ctx, auth.RegisterRequest{FullName: "Ada", Email: "ada@example.com", Password: "secret"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input auth.LoginRequest
	}{
		{name: "wrong password", input: auth.LoginRequest{Email: "ada@example.com", Password: "nope"}},
		{name: "unknown email", input: auth.LoginRequest{Email: "ghost@example.com", Password: "secret"}},
		{name: "empty password", input: auth.LoginRequest{Email: "ada@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := service.Login(ctx, tt.input)
			assert.Nil(t, user)
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		})
	}
}

func TestAuthenticationService_VerifiedButMissingIdentity(t *testing.T) {
	ctx := context.Background()

	store := new(MockUserStore)
	store.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, auth.ErrIdentityNotFound)

	verifier := new(MockCredentialVerifier)
	verifier.On("VerifyCredentials", mock.Anything, "ada@example.com", "secret").Return(nil)

	service := auth.NewAuthenticationService(store, plainHasher{}, auth.WithCredentialVerifier(verifier))

	_, err := service.Login(ctx, auth.LoginRequest{Email: "ada@example.com", Password: "secret"})
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)

	store.AssertExpectations(t)
	verifier.AssertExpectations(t)
}

func TestAuthenticationService_StoreErrorsSurface(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	store := new(MockUserStore)
	store.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, boom)

	verifier := new(MockCredentialVerifier)
	verifier.On("VerifyCredentials", mock.Anything, "ada@example.com", "secret").Return(nil)

	service := auth.NewAuthenticationService(store, plainHasher{}, auth.WithCredentialVerifier(verifier))

	_, err := service.Login(ctx, auth.LoginRequest{Email: "ada@example.com", Password: "secret"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticationService_SignupErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty password", func(t *testing.T) {
		store := new(MockUserStore)
		service := auth.NewAuthenticationService(store, plainHasher{})

		_, err := service.Signup(ctx, auth.RegisterRequest{FullName: "Ada", Email: "ada@example.com"})
		assert.ErrorIs(t, err, auth.ErrNoEmptyString)
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("duplicate email", func(t *testing.T) {
		service := auth.NewAuthenticationService(newMemoryStore(), plainHasher{})
		input := auth.RegisterRequest{FullName: "Ada", Email: "ada@example.com", Password: "secret"}

		_, err := service.Signup(ctx, input)
		require.NoError(t, err)

		_, err = service.Signup(ctx, input)
		assert.ErrorIs(t, err, auth.ErrIdentityExists)
	})
}

func TestAuthenticationService_HashedIDs(t *testing.T) {
	ctx := context.Background()
	service := auth.NewAuthenticationService(newMemoryStore(), plainHasher{}, auth.WithHashedIDs(true))

	user, err := service.Signup(ctx, auth.RegisterRequest{FullName: "Ada", Email: "ada@example.com", Password: "secret"})
	require.NoError(t, err)

	expected, err := hashid.NewUUID("ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, expected, user.ID)
}

func TestAuthenticationService_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := new(MockUserStore)
	service := auth.NewAuthenticationService(store, plainHasher{})

	_, err := service.Signup(ctx, auth.RegisterRequest{FullName: "Ada", Email: "ada@example.com", Password: "secret"})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = service.Login(ctx, auth.LoginRequest{Email: "ada@example.com", Password: "secret"})
	assert.ErrorIs(t, err, context.Canceled)

	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestAuthenticationService_AllUsers(t *testing.T) {
	ctx := context.Background()
	service := auth.NewAuthenticationService(newMemoryStore(), plainHasher{})

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := service.Signup(ctx, auth.RegisterRequest{FullName: "U", Email: email, Password: "secret"})
		require.NoError(t, err)
	}

	users, err := service.AllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestCredentialVerifier(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	_, err := store.Save(ctx, &auth.User{Email: "ada@example.com", PasswordHash: "plain:secret"})
	require.NoError(t, err)

	verifier := auth.NewCredentialVerifier(store, plainHasher{})

	assert.NoError(t, verifier.VerifyCredentials(ctx, "ada@example.com", "secret"))
	assert.ErrorIs(t, verifier.VerifyCredentials(ctx, "ada@example.com", "wrong"), auth.ErrInvalidCredentials)
	assert.ErrorIs(t, verifier.VerifyCredentials(ctx, "ghost@example.com", "secret"), auth.ErrInvalidCredentials)

	broken := new(MockUserStore)
	broken.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, errors.New("timeout"))
	assert.ErrorIs(t,
		auth.NewCredentialVerifier(broken, plainHasher{}).VerifyCredentials(ctx, "ada@example.com", "secret"),
		auth.ErrInvalidCredentials,
	)
}

func TestCredentialVerifier_UnknownIdentityComparesDummyHash(t *testing.T) {
	ctx := context.Background()

	hasher := new(MockPasswordHasher)
	hasher.On("HashPassword", mock.Anything).Return("dummy-hash", nil).Once()
	hasher.On("ComparePasswordAndHash", "secret", "dummy-hash").Return(auth.ErrMismatchedHashAndPassword)

	store := new(MockUserStore)
	store.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, auth.ErrIdentityNotFound)
	store.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, errors.New("timeout"))

	verifier := auth.NewCredentialVerifier(store, hasher)

	assert.ErrorIs(t, verifier.VerifyCredentials(ctx, "ghost@example.com", "secret"), auth.ErrInvalidCredentials)
	assert.ErrorIs(t, verifier.VerifyCredentials(ctx, "ada@example.com", "secret"), auth.ErrInvalidCredentials)

	hasher.AssertNumberOfCalls(t, "HashPassword", 1)
	hasher.AssertNumberOfCalls(t, "ComparePasswordAndHash", 2)
	hasher.AssertExpectations(t)
	store.AssertExpectations(t)
}
