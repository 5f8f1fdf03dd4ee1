// internal/utils/jwt_test.go
package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	SetJWTSecret("test-secret")

	userID := uuid.New()
	token, err := GenerateJWT(userID, "joes_pizza", "franchisee", 1)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := ValidateJWT(token)
	assert.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "joes_pizza", claims.Username)
	assert.Equal(t, "franchisee", claims.UserRole)
}

func TestValidateJWTRejectsTampered(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT(uuid.New(), "user", "admin", 1)
	assert.NoError(t, err)

	_, err = ValidateJWT(token + "x")
	assert.Error(t, err)
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	SetJWTSecret("secret-a")
	token, err := GenerateJWT(uuid.New(), "user", "admin", 1)
	assert.NoError(t, err)

	SetJWTSecret("secret-b")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	userID := uuid.New()
	token, err := GenerateRefreshToken(userID, 24)
	assert.NoError(t, err)

	subject, err := ValidateRefreshToken(token)
	assert.NoError(t, err)
	assert.Equal(t, userID.String(), subject)
}
