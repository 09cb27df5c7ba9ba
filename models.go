package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the stored identity record. Email is the unique identifier
// carried as the token subject.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id"`
	FullName     string    `bun:"full_name,notnull" json:"fullName"`
	Email        string    `bun:"email,notnull,unique" json:"email"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

var _ Identity = (*User)(nil)

// Identifier returns the unique identifier used as token subject
func (u *User) Identifier() string {
	if u == nil {
		return ""
	}
	return u.Email
}

// DisplayName returns the user full name
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	return u.FullName
}

// CredentialHash returns the stored password hash
func (u *User) CredentialHash() string {
	if u == nil {
		return ""
	}
	return u.PasswordHash
}

// PrepareDefaults fills the ID and timestamps of a new record.
func (u *User) PrepareDefaults(now time.Time) {
	if u == nil {
		return
	}

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}

	u.UpdatedAt = now
}
