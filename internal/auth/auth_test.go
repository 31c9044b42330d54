// internal/auth/auth_test.go
package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple", nil)
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordRejectsGarbage(t *testing.T) {
	_, err := VerifyPassword("x", "not-a-hash")
	require.Error(t, err)
}

func TestJWTRoundTrip(t *testing.T) {
	require.NoError(t, Init())

	token, err := CreateJWT("user-123", RolePlayer)
	require.NoError(t, err)

	identity, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", identity.Subject)
	assert.Equal(t, RolePlayer, identity.Role)
}

func TestJWTAdminRole(t *testing.T) {
	require.NoError(t, Init())

	token, err := CreateJWT("admin-1", RoleAdmin)
	require.NoError(t, err)
	identity, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, identity.Role)
}

func TestJWTRejectsTampering(t *testing.T) {
	require.NoError(t, Init())

	token, err := CreateJWT("user-123", RolePlayer)
	require.NoError(t, err)

	_, err = AuthenticateJWT(token + "x")
	require.Error(t, err)

	// A token signed under a discarded key must not verify.
	require.NoError(t, Init())
	_, err = AuthenticateJWT(token)
	require.Error(t, err)
}
