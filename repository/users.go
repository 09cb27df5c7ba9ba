package repository

import (
	"context"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-jwt-auth"
)

// Users is the bun backed auth.UserStore
type Users struct {
	repository.Repository[*auth.User]
	db *bun.DB
}

var _ auth.UserStore = (*Users)(nil)

// NewUsers creates the users store
func NewUsers(db *bun.DB) *Users {
	repo := repository.NewRepository[*auth.User](db, repository.ModelHandlers[*auth.User]{
		NewRecord: func() *auth.User { return &auth.User{} },
		GetID: func(u *auth.User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *auth.User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &Users{Repository: repo, db: db}
}

// FindByEmail returns auth.ErrIdentityNotFound when no user has the email
func (u *Users) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return u.FindByEmailTx(ctx, u.db, email)
}

// FindByEmailTx is FindByEmail within tx
func (u *Users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*auth.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, auth.ErrIdentityNotFound
	}

	record, err := u.GetByIdentifierTx(ctx, tx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, auth.ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "find user by email")
	}

	return record, nil
}

// Save inserts a new user
func (u *Users) Save(ctx context.Context, user *auth.User) (*auth.User, error) {
	return u.SaveTx(ctx, u.db, user)
}

// SaveTx is Save within tx
func (u *Users) SaveTx(ctx context.Context, tx bun.IDB, user *auth.User) (*auth.User, error) {
	if user == nil {
		return nil, goerrors.New("user must not be nil", goerrors.CategoryBadInput)
	}

	record, err := u.CreateTx(ctx, tx, user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, auth.ErrIdentityExists
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "save user")
	}

	return record, nil
}

// List returns every user ordered by creation time
func (u *Users) List(ctx context.Context) ([]*auth.User, error) {
	records := []*auth.User{}

	err := u.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "list users")
	}

	return records, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// CreateSchema creates the users table when missing
func (u *Users) CreateSchema(ctx context.Context) error {
	return CreateSchema(ctx, u.db)
}
