package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(expiry time.Duration) *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret-key",
		Expiry:        expiry,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "learnhub-test",
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	manager := newTestManager(time.Hour)

	token, jti, err := manager.GenerateAccessToken(42, "user@learnhub.test", "user")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, jti)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "user@learnhub.test", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, "learnhub-test", claims.Issuer)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	manager := newTestManager(time.Hour)

	_, err := manager.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	manager := newTestManager(time.Hour)
	other := NewJWTManager(JWTConfig{
		Secret: "a-different-secret",
		Expiry: time.Hour,
		Issuer: "learnhub-test",
	})

	token, _, err := other.GenerateAccessToken(1, "user@learnhub.test", "user")
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	manager := newTestManager(-time.Minute)

	token, _, err := manager.GenerateAccessToken(1, "user@learnhub.test", "user")
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRefreshAccessToken(t *testing.T) {
	manager := newTestManager(time.Hour)

	refresh, _, err := manager.GenerateRefreshToken(7, "user@learnhub.test", "admin")
	require.NoError(t, err)

	access, jti, err := manager.RefreshAccessToken(refresh)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := manager.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "access", claims.TokenType)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	manager := newTestManager(time.Hour)

	access, _, err := manager.GenerateAccessToken(7, "user@learnhub.test", "user")
	require.NoError(t, err)

	_, _, err = manager.RefreshAccessToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGetTokenExpiryAndJTI(t *testing.T) {
	manager := newTestManager(time.Hour)

	token, jti, err := manager.GenerateAccessToken(1, "user@learnhub.test", "user")
	require.NoError(t, err)

	expiry, err := manager.GetTokenExpiry(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, time.Minute)

	extracted, err := manager.GetJTI(token)
	require.NoError(t, err)
	assert.Equal(t, jti, extracted)
}
