package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gmfinance/compliance-api/internal/auth"
	"github.com/gmfinance/compliance-api/internal/config"
	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/gmfinance/compliance-api/internal/repository"
	"github.com/gmfinance/compliance-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newMiddlewareFixture(t *testing.T) (*auth.Middleware, *auth.TokenManager, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	tokens := auth.NewTokenManager(&config.AuthConfig{JWTSecret: testSecret, TokenTTLHours: 1})
	mw := auth.NewMiddleware(tokens, repository.NewUserRepository(db), zap.NewNop())
	return mw, tokens, db
}

func okHandler(t *testing.T, sawUser **auth.UserContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userCtx, ok := auth.FromContext(r.Context()); ok && sawUser != nil {
			*sawUser = userCtx
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_Authenticate(t *testing.T) {
	mw, tokens, db := newMiddlewareFixture(t)
	user := testutil.CreateTestUser(t, db, domain.RoleCompanySecretary)

	token, err := tokens.Issue(&domain.User{BaseModel: domain.BaseModel{ID: user.ID}, Email: user.Email, Role: user.Role})
	require.NoError(t, err)

	t.Run("valid token builds the user context", func(t *testing.T) {
		var seen *auth.UserContext
		handler := mw.Authenticate(okHandler(t, &seen))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, user.ID, seen.UserID)
		assert.Equal(t, user.Email, seen.Email)
		assert.Equal(t, domain.RoleCompanySecretary, seen.Role)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mw.Authenticate(okHandler(t, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		mw.Authenticate(okHandler(t, nil)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("stale token for a deleted user", func(t *testing.T) {
		ghost := testutil.CreateTestUser(t, db, domain.RoleAccountant)
		ghostToken, err := tokens.Issue(ghost)
		require.NoError(t, err)
		require.NoError(t, db.Delete(&domain.User{}, "id = ?", ghost.ID).Error)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+ghostToken)
		rec := httptest.NewRecorder()
		mw.Authenticate(okHandler(t, nil)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("deactivation takes effect on existing tokens", func(t *testing.T) {
		require.NoError(t, db.Model(&domain.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		mw.Authenticate(okHandler(t, nil)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestMiddleware_RoleGates(t *testing.T) {
	mw, _, db := newMiddlewareFixture(t)
	admin := testutil.CreateTestUser(t, db, domain.RoleSuperAdmin)
	accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)

	serve := func(h http.Handler, user *domain.User) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if user != nil {
			req = req.WithContext(testutil.ContextForUser(user))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("RequireAdmin", func(t *testing.T) {
		h := mw.RequireAdmin(okHandler(t, nil))
		assert.Equal(t, http.StatusOK, serve(h, admin))
		assert.Equal(t, http.StatusForbidden, serve(h, accountant))
		assert.Equal(t, http.StatusForbidden, serve(h, nil))
	})

	t.Run("RequireRole", func(t *testing.T) {
		h := mw.RequireRole(domain.RoleAccountant)(okHandler(t, nil))
		assert.Equal(t, http.StatusOK, serve(h, accountant))
		assert.Equal(t, http.StatusForbidden, serve(h, admin))
	})
}
