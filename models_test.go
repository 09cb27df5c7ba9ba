package auth_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-jwt-auth"
)

func TestUser_PrepareDefaults(t *testing.T) {
	u := &auth.User{Email: "ada@example.com"}
	u.PrepareDefaults(issuedAt)

	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.True(t, u.CreatedAt.Equal(issuedAt))
	assert.True(t, u.UpdatedAt.Equal(issuedAt))

	id := u.ID
	later := issuedAt.Add(time.Minute)
	u.PrepareDefaults(later)
	assert.Equal(t, id, u.ID)
	assert.True(t, u.CreatedAt.Equal(issuedAt))
	assert.True(t, u.UpdatedAt.Equal(later))
}

func TestUser_Identity(t *testing.T) {
	u := &auth.User{Email: "ada@example.com", FullName: "Ada", PasswordHash: "hash"}
	assert.Equal(t, "ada@example.com", u.Identifier())
	assert.Equal(t, "Ada", u.DisplayName())
	assert.Equal(t, "hash", u.CredentialHash())

	var empty *auth.User
	assert.Equal(t, "", empty.Identifier())
	assert.Equal(t, "", empty.DisplayName())
	assert.Equal(t, "", empty.CredentialHash())
}

func TestUser_JSONHidesHash(t *testing.T) {
	raw, err := json.Marshal(&auth.User{Email: "ada@example.com", PasswordHash: "secret-hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-hash")
	assert.Contains(t, string(raw), `"email":"ada@example.com"`)
}

func TestJWTClaims_ExpiredAt(t *testing.T) {
	var missing auth.JWTClaims
	assert.True(t, missing.ExpiredAt(issuedAt))

	var nilClaims *auth.JWTClaims
	assert.Equal(t, "", nilClaims.Subject())
	_, ok := nilClaims.Claim("x")
	assert.False(t, ok)
}
