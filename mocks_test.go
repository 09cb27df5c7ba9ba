package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	auth "github.com/goliatone/go-jwt-auth"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

// MockUserStore implements auth.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) Save(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) List(ctx context.Context) ([]*auth.User, error) {
	args := m.Called(ctx)
	if u := args.Get(0); u != nil {
		return u.([]*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockCredentialVerifier implements auth.CredentialVerifier
type MockCredentialVerifier struct {
	mock.Mock
}

func (m *MockCredentialVerifier) VerifyCredentials(ctx context.Context, identifier, password string) error {
	args := m.Called(ctx, identifier, password)
	return args.Error(0)
}

// MockPasswordHasher implements auth.PasswordHasher
type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) HashPassword(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) ComparePasswordAndHash(password, hash string) error {
	args := m.Called(password, hash)
	return args.Error(0)
}

// MockLogger implements auth.Logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, args ...any) { m.Called(msg, args) }
func (m *MockLogger) Info(msg string, args ...any)  { m.Called(msg, args) }
func (m *MockLogger) Warn(msg string, args ...any)  { m.Called(msg, args) }
func (m *MockLogger) Error(msg string, args ...any) { m.Called(msg, args) }

// memoryStore is a map backed auth.UserStore
type memoryStore struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: map[string]*auth.User{}}
}

func (s *memoryStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, auth.ErrIdentityNotFound
	}
	return u, nil
}

func (s *memoryStore) Save(_ context.Context, user *auth.User) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return nil, auth.ErrIdentityExists
	}
	s.users[user.Email] = user
	return user, nil
}

func (s *memoryStore) List(_ context.Context) ([]*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*auth.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

// plainHasher skips bcrypt work in tests
type plainHasher struct{}

func (plainHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", auth.ErrNoEmptyString
	}
	return "plain:" + password, nil
}

func (plainHasher) ComparePasswordAndHash(password, hash string) error {
	if "plain:"+password != hash {
		return auth.ErrMismatchedHashAndPassword
	}
	return nil
}

func fixedClock(t time.Time) auth.Clock {
	return func() time.Time { return t }
}
