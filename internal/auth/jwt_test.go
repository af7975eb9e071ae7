package auth_test

import (
	"testing"
	"time"

	"github.com/gmfinance/compliance-api/internal/auth"
	"github.com/gmfinance/compliance-api/internal/config"
	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-signing"

func newTestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(&config.AuthConfig{
		JWTSecret:     testSecret,
		TokenTTLHours: 1,
	})
}

func testUser() *domain.User {
	return &domain.User{
		BaseModel: domain.BaseModel{ID: uuid.New()},
		Email:     "secretary@example.com",
		Role:      domain.RoleCompanySecretary,
	}
}

func TestTokenManager_IssueAndValidate(t *testing.T) {
	tm := newTestTokenManager()
	user := testUser()

	token, err := tm.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	tm := newTestTokenManager()

	claims := jwt.MapClaims{
		"sub": uuid.NewString(),
		"iss": "gmfinance-compliance-api",
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = tm.Validate(signed)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	tm := newTestTokenManager()
	other := auth.NewTokenManager(&config.AuthConfig{JWTSecret: "a-different-secret", TokenTTLHours: 1})

	token, err := other.Issue(testUser())
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_RejectsWrongIssuer(t *testing.T) {
	tm := newTestTokenManager()

	claims := jwt.MapClaims{
		"sub": uuid.NewString(),
		"iss": "someone-else",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = tm.Validate(signed)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_RejectsNonStringSubject(t *testing.T) {
	tm := newTestTokenManager()

	claims := jwt.MapClaims{
		"sub": 12345,
		"iss": "gmfinance-compliance-api",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = tm.Validate(signed)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_RejectsMalformedSubject(t *testing.T) {
	tm := newTestTokenManager()

	claims := jwt.MapClaims{
		"sub": "not-a-uuid",
		"iss": "gmfinance-compliance-api",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = tm.Validate(signed)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	tm := newTestTokenManager()

	_, err := tm.Validate("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.True(t, auth.CheckPassword(hash, "correct horse battery"))
	assert.False(t, auth.CheckPassword(hash, "wrong password"))
}

func TestPasswordHashing_TooShort(t *testing.T) {
	_, err := auth.HashPassword("short")
	assert.Error(t, err)
}
