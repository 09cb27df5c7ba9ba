package auth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-command/runner"
	goerrors "github.com/goliatone/go-errors"
)

// DefaultCommandTimeout bounds a single command run
const DefaultCommandTimeout = 10 * time.Second

// AuthenticationService handles signup and login
type AuthenticationService struct {
	store     UserStore
	hasher    PasswordHasher
	verifier  CredentialVerifier
	logger    Logger
	metrics   *Metrics
	now       Clock
	hashedIDs bool
	register  *RegisterUserHandler
	runner    *runner.Handler
}

// ServiceOption configures an AuthenticationService
type ServiceOption func(*AuthenticationService)

// WithServiceLogger sets the logger
func WithServiceLogger(l Logger) ServiceOption {
	return func(s *AuthenticationService) {
		s.logger = resolveLogger(l)
	}
}

// WithCredentialVerifier replaces the default store backed verifier
func WithCredentialVerifier(v CredentialVerifier) ServiceOption {
	return func(s *AuthenticationService) {
		if v != nil {
			s.verifier = v
		}
	}
}

// WithServiceMetrics records signup and login outcomes
func WithServiceMetrics(m *Metrics) ServiceOption {
	return func(s *AuthenticationService) {
		s.metrics = m
	}
}

// WithServiceClock overrides the time source for record timestamps
func WithServiceClock(clock Clock) ServiceOption {
	return func(s *AuthenticationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithHashedIDs derives new user IDs from their email address
func WithHashedIDs(enabled bool) ServiceOption {
	return func(s *AuthenticationService) {
		s.hashedIDs = enabled
	}
}

// NewAuthenticationService creates a new service
func NewAuthenticationService(store UserStore, hasher PasswordHasher, opts ...ServiceOption) *AuthenticationService {
	s := &AuthenticationService{
		store:  store,
		hasher: hasher,
		logger: defLogger(),
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.verifier == nil {
		s.verifier = NewCredentialVerifier(store, hasher).WithLogger(s.logger)
	}

	s.register = NewRegisterUserHandler(store, hasher, s.logger, s.now)
	s.runner = runner.NewHandler(
		runner.WithTimeout(DefaultCommandTimeout),
		// failures are returned to the caller
		runner.WithErrorHandler(func(error) {}),
	)

	return s
}

// Signup hashes the password and stores a new user through the register
// command. Uniqueness of the email is left to the store.
func (s *AuthenticationService) Signup(ctx context.Context, input RegisterRequest) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &RegisterUserResult{}
	msg := RegisterUserMessage{
		FullName:  input.FullName,
		Email:     input.Email,
		Password:  input.Password,
		UseHashid: s.hashedIDs,
		Result:    result,
	}

	if err := runner.RunCommand(ctx, s.runner, s.register, msg); err != nil {
		s.metrics.Signup("error")
		return nil, err
	}

	s.metrics.Signup("success")
	s.logger.Info("user registered", "user_id", result.User.ID.String())

	return result.User, nil
}

// Login verifies credentials and returns the stored user
func (s *AuthenticationService) Login(ctx context.Context, input LoginRequest) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(input.GetIdentifier())

	if err := s.verifier.VerifyCredentials(ctx, email, input.GetPassword()); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.metrics.Login("invalid_credentials")
		s.logger.Debug("login credentials rejected")
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if IsIdentityNotFoundError(err) {
			s.metrics.Login("identity_not_found")
			s.logger.Error("verified credentials have no matching identity")
			return nil, ErrIdentityNotFound
		}
		s.metrics.Login("error")
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "login: failed to load identity")
	}

	if user == nil {
		s.metrics.Login("identity_not_found")
		return nil, ErrIdentityNotFound
	}

	s.metrics.Login("success")

	return user, nil
}

// AllUsers returns every stored user
func (s *AuthenticationService) AllUsers(ctx context.Context) ([]*User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list users")
	}
	return users, nil
}
