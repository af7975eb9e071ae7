package service_test

import (
	"context"
	"testing"

	"github.com/gmfinance/compliance-api/internal/auth"
	"github.com/gmfinance/compliance-api/internal/config"
	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/gmfinance/compliance-api/internal/repository"
	"github.com/gmfinance/compliance-api/internal/service"
	"github.com/gmfinance/compliance-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAuthService(db *gorm.DB) *service.AuthService {
	tokens := auth.NewTokenManager(&config.AuthConfig{JWTSecret: "test-secret", TokenTTLHours: 1})
	return service.NewAuthService(repository.NewUserRepository(db), tokens, zap.NewNop())
}

func TestAuthService_Register(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newAuthService(db)

	t.Run("registers a company secretary", func(t *testing.T) {
		dto, err := svc.Register(context.Background(), &domain.RegisterRequest{
			Email:    "New.Secretary@Example.COM",
			Password: "password123",
			FullName: "New Secretary",
			PAN:      "abcde1234f",
		})
		require.NoError(t, err)

		assert.Equal(t, "new.secretary@example.com", dto.Email)
		assert.Equal(t, domain.RoleCompanySecretary, dto.Role)
		assert.Equal(t, "ABCDE1234F", dto.PAN)
		assert.True(t, dto.IsActive)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		_, err := svc.Register(context.Background(), &domain.RegisterRequest{
			Email:    "new.secretary@example.com",
			Password: "password123",
		})
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("rejects malformed PAN", func(t *testing.T) {
		_, err := svc.Register(context.Background(), &domain.RegisterRequest{
			Email:    "another@example.com",
			Password: "password123",
			PAN:      "NOT-A-PAN!",
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("rejects malformed GSTIN", func(t *testing.T) {
		_, err := svc.Register(context.Background(), &domain.RegisterRequest{
			Email:    "another@example.com",
			Password: "password123",
			GSTIN:    "00ABCDE1234F0Z!",
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestAuthService_Login(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newAuthService(db)

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email:    "login@example.com",
		Password: "password123",
		FullName: "Login User",
	})
	require.NoError(t, err)

	t.Run("issues a token on success", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), &domain.LoginRequest{
			Email:    "login@example.com",
			Password: "password123",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "login@example.com", resp.User.Email)
	})

	t.Run("records last login", func(t *testing.T) {
		var user domain.User
		require.NoError(t, db.Where("email = ?", "login@example.com").First(&user).Error)
		assert.NotNil(t, user.LastLogin)
	})

	t.Run("same error for unknown email and wrong password", func(t *testing.T) {
		_, unknownErr := svc.Login(context.Background(), &domain.LoginRequest{
			Email:    "ghost@example.com",
			Password: "password123",
		})
		_, wrongErr := svc.Login(context.Background(), &domain.LoginRequest{
			Email:    "login@example.com",
			Password: "wrong-password",
		})

		assert.ErrorIs(t, unknownErr, service.ErrInvalidCredentials)
		assert.ErrorIs(t, wrongErr, service.ErrInvalidCredentials)
	})

	t.Run("rejects deactivated account", func(t *testing.T) {
		require.NoError(t, db.Model(&domain.User{}).
			Where("email = ?", "login@example.com").
			Update("is_active", false).Error)

		_, err := svc.Login(context.Background(), &domain.LoginRequest{
			Email:    "login@example.com",
			Password: "password123",
		})
		assert.ErrorIs(t, err, service.ErrAccountDisabled)
	})
}

func TestAuthService_Me(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newAuthService(db)

	user := testutil.CreateTestUser(t, db, domain.RoleAccountant)

	dto, err := svc.Me(testutil.ContextForUser(user))
	require.NoError(t, err)
	assert.Equal(t, user.Email, dto.Email)
	assert.Equal(t, domain.RoleAccountant, dto.Role)

	_, err = svc.Me(context.Background())
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}
