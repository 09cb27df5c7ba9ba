package auth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

// RegisterUserMessage asks for a new user to be stored. When Result is set
// it receives the saved record.
type RegisterUserMessage struct {
	FullName  string              `json:"fullName"`
	Email     string              `json:"email"`
	Password  string              `json:"password"`
	UseHashid bool                `json:"-"`
	Result    *RegisterUserResult `json:"-"`
}

// RegisterUserResult holds the user stored by RegisterUserHandler
type RegisterUserResult struct {
	User *User
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate checks the identifier. Password rules belong to the hasher.
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// RegisterUserHandler hashes the password and saves the user
type RegisterUserHandler struct {
	store  UserStore
	hasher PasswordHasher
	logger Logger
	now    Clock
}

var _ command.Commander[RegisterUserMessage] = (*RegisterUserHandler)(nil)

// NewRegisterUserHandler creates the handler
func NewRegisterUserHandler(store UserStore, hasher PasswordHasher, logger Logger, now Clock) *RegisterUserHandler {
	if now == nil {
		now = time.Now
	}
	return &RegisterUserHandler{
		store:  store,
		hasher: hasher,
		logger: resolveLogger(logger),
		now:    now,
	}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := event.Validate(); err != nil {
		return err
	}

	hash, err := h.hasher.HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided").
				WithTextCode(richErr.TextCode).
				WithCode(richErr.Code)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	email := strings.TrimSpace(event.Email)
	user := &User{
		FullName:     strings.TrimSpace(event.FullName),
		Email:        email,
		PasswordHash: hash,
	}

	if event.UseHashid {
		if id, err := hashid.NewUUID(email); err == nil {
			user.ID = id
		} else {
			h.logger.Warn("hashed id generation failed, using random id", "error", err)
		}
	}

	user.PrepareDefaults(h.now())

	if err := ctx.Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "context cancelled during user registration")
	}

	saved, err := h.store.Save(ctx, user)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
	}

	if event.Result != nil {
		event.Result.User = saved
	}

	return nil
}
