package service_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/gmfinance/compliance-api/internal/repository"
	"github.com/gmfinance/compliance-api/internal/service"
	"github.com/gmfinance/compliance-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAuditService(db *gorm.DB) *service.AuditLogService {
	return service.NewAuditLogService(repository.NewAuditLogRepository(db), zap.NewNop())
}

func TestAuditLogService_Record(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newAuditService(db)
	user := testutil.CreateTestUser(t, db, domain.RoleSuperAdmin)
	ctx := testutil.ContextForUser(user)

	t.Run("captures caller and request metadata", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/entities", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		req.Header.Set("User-Agent", "test-agent")

		svc.Record(ctx, req, service.LogEntry{
			Action:       domain.ActionCreateEntity,
			ResourceType: "entity",
		})

		var log domain.AuditLog
		require.NoError(t, db.Where("action = ?", domain.ActionCreateEntity).First(&log).Error)
		assert.Equal(t, user.ID.String(), log.UserID)
		assert.Equal(t, "203.0.113.7", log.IPAddress)
		assert.Equal(t, "test-agent", log.UserAgent)
	})

	t.Run("explicit user id wins over the context", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
		svc.Record(ctx, req, service.LogEntry{
			Action:  domain.ActionLoginFailed,
			Details: "ghost@example.com",
			UserID:  "anonymous",
		})

		var log domain.AuditLog
		require.NoError(t, db.Where("action = ?", domain.ActionLoginFailed).First(&log).Error)
		assert.Equal(t, "anonymous", log.UserID)
		assert.Equal(t, "ghost@example.com", log.Details)
	})
}

func TestAuditLogService_Queries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newAuditService(db)
	alice := testutil.CreateTestUser(t, db, domain.RoleSuperAdmin)
	bob := testutil.CreateTestUser(t, db, domain.RoleAccountant)

	svc.Record(testutil.ContextForUser(alice), httptest.NewRequest("POST", "/x", nil), service.LogEntry{Action: domain.ActionLogin})
	svc.Record(testutil.ContextForUser(alice), httptest.NewRequest("POST", "/x", nil), service.LogEntry{Action: domain.ActionCreateUser, ResourceType: "user"})
	svc.Record(testutil.ContextForUser(bob), httptest.NewRequest("POST", "/x", nil), service.LogEntry{Action: domain.ActionLogin})

	t.Run("filter by user", func(t *testing.T) {
		logs, err := svc.List(testutil.ContextForUser(alice), service.AuditLogQueryParams{UserID: alice.ID.String()})
		require.NoError(t, err)
		assert.Len(t, logs, 2)
	})

	t.Run("filter by action", func(t *testing.T) {
		action := domain.ActionLogin
		logs, err := svc.List(testutil.ContextForUser(alice), service.AuditLogQueryParams{Action: &action})
		require.NoError(t, err)
		assert.Len(t, logs, 2)
	})

	t.Run("filter by resource type", func(t *testing.T) {
		logs, err := svc.List(testutil.ContextForUser(alice), service.AuditLogQueryParams{ResourceType: "user"})
		require.NoError(t, err)
		assert.Len(t, logs, 1)
	})

	t.Run("own trail only", func(t *testing.T) {
		logs, err := svc.GetOwn(testutil.ContextForUser(bob))
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, bob.ID.String(), logs[0].UserID)
	})
}
