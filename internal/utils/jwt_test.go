package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndExtract(t *testing.T) {
	service := NewJWTService("test-secret")

	token, err := service.GenerateToken("8f14e45f-ea0a-4a1c-9d2b-02b5f3f1a001")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := service.ExtractUserID(token)
	require.NoError(t, err)
	assert.Equal(t, "8f14e45f-ea0a-4a1c-9d2b-02b5f3f1a001", userID)
}

func TestExtractUserIDWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a").GenerateToken("user-1")
	require.NoError(t, err)

	_, err = NewJWTService("secret-b").ExtractUserID(token)
	assert.Error(t, err)
}

func TestExtractUserIDGarbage(t *testing.T) {
	_, err := NewJWTService("test-secret").ExtractUserID("not-a-token")
	assert.Error(t, err)
}

func TestExtractUserIDMissingClaim(t *testing.T) {
	// Токен подписан верно, но без user_id
	claims := jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = NewJWTService("test-secret").ExtractUserID(signed)
	assert.Error(t, err)
}
