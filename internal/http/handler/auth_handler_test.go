package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gmfinance/compliance-api/internal/auth"
	"github.com/gmfinance/compliance-api/internal/config"
	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/gmfinance/compliance-api/internal/http/handler"
	"github.com/gmfinance/compliance-api/internal/repository"
	"github.com/gmfinance/compliance-api/internal/service"
	"github.com/gmfinance/compliance-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAuthHandler(db *gorm.DB) *handler.AuthHandler {
	logger := zap.NewNop()
	userRepo := repository.NewUserRepository(db)
	tokens := auth.NewTokenManager(&config.AuthConfig{JWTSecret: "test-secret", TokenTTLHours: 1})
	authService := service.NewAuthService(userRepo, tokens, logger)
	auditService := service.NewAuditLogService(repository.NewAuditLogRepository(db), logger)
	return handler.NewAuthHandler(authService, auditService, logger)
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestAuthHandler_Register(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newAuthHandler(db)

	t.Run("creates a secretary", func(t *testing.T) {
		rec := postJSON(t, h.Register, "/api/v1/auth/register", domain.RegisterRequest{
			Email:    "reg@example.com",
			Password: "password123",
			FullName: "Reg User",
		})

		require.Equal(t, http.StatusCreated, rec.Code)

		var dto domain.UserDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		assert.Equal(t, "reg@example.com", dto.Email)
		assert.Equal(t, domain.RoleCompanySecretary, dto.Role)
	})

	t.Run("validates the payload", func(t *testing.T) {
		rec := postJSON(t, h.Register, "/api/v1/auth/register", domain.RegisterRequest{
			Email:    "not-an-email",
			Password: "short",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate email returns conflict", func(t *testing.T) {
		rec := postJSON(t, h.Register, "/api/v1/auth/register", domain.RegisterRequest{
			Email:    "reg@example.com",
			Password: "password123",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newAuthHandler(db)

	rec := postJSON(t, h.Register, "/api/v1/auth/register", domain.RegisterRequest{
		Email:    "login@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("returns a token", func(t *testing.T) {
		rec := postJSON(t, h.Login, "/api/v1/auth/login", domain.LoginRequest{
			Email:    "login@example.com",
			Password: "password123",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp domain.LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "login@example.com", resp.User.Email)
	})

	t.Run("wrong password is unauthorized and audited", func(t *testing.T) {
		rec := postJSON(t, h.Login, "/api/v1/auth/login", domain.LoginRequest{
			Email:    "login@example.com",
			Password: "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newAuthHandler(db)
	user := testutil.CreateTestUser(t, db, domain.RoleAccountant)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req = req.WithContext(testutil.ContextForUser(user))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var dto domain.UserDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, user.Email, dto.Email)

	// without a user context the endpoint is unauthorized
	rec = httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
