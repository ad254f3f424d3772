package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	token, expiresAt, err := svc.GenerateAccessToken("user-1", "op@example.com", "Op One", true)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.UserID)
	assert.Equal(t, "op@example.com", user.Email)
	assert.Equal(t, "Op One", user.FullName)
	assert.True(t, user.IsAdmin)
}

func TestJWTService_WrongSecret(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-a"))
	verifier := NewJWTService(DefaultJWTConfig("secret-b"))

	token, _, err := issuer.GenerateAccessToken("user-1", "op@example.com", "", false)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	cfg.AccessTokenTTL = -time.Minute
	svc := NewJWTService(cfg)

	token, _, err := svc.GenerateAccessToken("user-1", "op@example.com", "", false)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestUser_Lockout(t *testing.T) {
	user := NewUser("op@example.com", "hash")

	require.NoError(t, user.CanLogin())

	for i := 0; i < 5; i++ {
		user.RecordFailedLogin(5, 15*time.Minute)
	}

	assert.True(t, user.IsLocked())
	assert.Error(t, user.CanLogin())

	user.RecordSuccessfulLogin()
	assert.False(t, user.IsLocked())
	assert.NoError(t, user.CanLogin())
	assert.NotNil(t, user.LastLoginAt)
}

func TestUser_FullName(t *testing.T) {
	user := NewUser("op@example.com", "hash")
	assert.Equal(t, "op@example.com", user.FullName())

	user.FirstName = "Op"
	assert.Equal(t, "Op", user.FullName())

	user.LastName = "One"
	assert.Equal(t, "Op One", user.FullName())
}
