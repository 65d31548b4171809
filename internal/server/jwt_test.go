package server

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	service := NewJWTService("secret", 1)
	userID := uuid.New()

	token, err := service.GenerateToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID, claims.GetUserID())
}

func TestJWTValidation(t *testing.T) {
	service := NewJWTService("secret", 1)

	_, err := service.ValidateToken("")
	assert.Error(t, err)

	_, err = service.ValidateToken("not.a.token")
	assert.Error(t, err)

	// Token signed with a different secret must be rejected.
	other := NewJWTService("other-secret", 1)
	token, err := other.GenerateToken(uuid.New())
	require.NoError(t, err)
	_, err = service.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTDefaultExpiration(t *testing.T) {
	service := NewJWTService("secret", 0)
	assert.Equal(t, 24, service.expirationHours)
}
