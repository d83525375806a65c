package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret")

	token, err := tm.GenerateAccessToken(42, "amina", "manager")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "amina", claims.Username)
	assert.Equal(t, "manager", claims.Role)
	assert.Equal(t, "kichaka-backend", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(AccessTokenTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestRefreshTokenCarriesOnlyUserID(t *testing.T) {
	tm := NewTokenManager("test-secret")

	token, err := tm.GenerateRefreshToken(42)
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Empty(t, claims.Username)
	assert.Empty(t, claims.Role)
	assert.Equal(t, "kichaka-backend-refresh", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(RefreshTokenTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a").GenerateAccessToken(1, "amina", "manager")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b").ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret")

	_, err := tm.ValidateToken("not.a.token")
	assert.Error(t, err)

	_, err = tm.ValidateToken("")
	assert.Error(t, err)
}
