package service_test

import (
	"context"
	"testing"

	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/gmfinance/compliance-api/internal/repository"
	"github.com/gmfinance/compliance-api/internal/service"
	"github.com/gmfinance/compliance-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newNotificationService(db *gorm.DB) *service.NotificationService {
	return service.NewNotificationService(repository.NewNotificationRepository(db), zap.NewNop())
}

func TestNotificationService_NotifyAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newNotificationService(db)
	user := testutil.CreateTestUser(t, db, domain.RoleCompanySecretary)
	ctx := testutil.ContextForUser(user)

	entityID := uuid.New()
	require.NoError(t, svc.Notify(context.Background(), user.ID, domain.NotificationTypeEntityApproved, "Entity approved", "Acme has been approved", &entityID))
	require.NoError(t, svc.Notify(context.Background(), user.ID, domain.NotificationTypeDocumentUploaded, "Document uploaded", "Acme received GST Return", nil))

	t.Run("lists own notifications", func(t *testing.T) {
		resp, err := svc.GetForCurrentUser(ctx, 1, 20, false, "")
		require.NoError(t, err)
		assert.EqualValues(t, 2, resp.Total)
	})

	t.Run("filters by type", func(t *testing.T) {
		resp, err := svc.GetForCurrentUser(ctx, 1, 20, false, string(domain.NotificationTypeEntityApproved))
		require.NoError(t, err)
		assert.EqualValues(t, 1, resp.Total)

		dtos, ok := resp.Data.([]domain.NotificationDTO)
		require.True(t, ok)
		require.Len(t, dtos, 1)
		assert.Equal(t, entityID, *dtos[0].EntityID)
	})

	t.Run("other users see nothing", func(t *testing.T) {
		stranger := testutil.CreateTestUser(t, db, domain.RoleAccountant)
		resp, err := svc.GetForCurrentUser(testutil.ContextForUser(stranger), 1, 20, false, "")
		require.NoError(t, err)
		assert.EqualValues(t, 0, resp.Total)
	})

	t.Run("requires a user context", func(t *testing.T) {
		_, err := svc.GetForCurrentUser(context.Background(), 1, 20, false, "")
		assert.ErrorIs(t, err, service.ErrUserContextRequired)
	})
}

func TestNotificationService_ReadTracking(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newNotificationService(db)
	user := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	ctx := testutil.ContextForUser(user)

	require.NoError(t, svc.Notify(context.Background(), user.ID, domain.NotificationTypeEntityAssigned, "Entity assigned", "first", nil))
	require.NoError(t, svc.Notify(context.Background(), user.ID, domain.NotificationTypeEntityAssigned, "Entity assigned", "second", nil))

	var first domain.Notification
	require.NoError(t, db.Where("user_id = ? AND message = ?", user.ID, "first").First(&first).Error)

	t.Run("unread count", func(t *testing.T) {
		count, err := svc.GetUnreadCount(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count.Count)
	})

	t.Run("mark one as read", func(t *testing.T) {
		require.NoError(t, svc.MarkAsRead(ctx, first.ID))

		count, err := svc.GetUnreadCount(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count.Count)

		// idempotent
		require.NoError(t, svc.MarkAsRead(ctx, first.ID))
	})

	t.Run("only the owner can mark", func(t *testing.T) {
		stranger := testutil.CreateTestUser(t, db, domain.RoleAccountant)
		err := svc.MarkAsRead(testutil.ContextForUser(stranger), first.ID)
		assert.ErrorIs(t, err, service.ErrNotificationNotOwned)
	})

	t.Run("unknown notification", func(t *testing.T) {
		err := svc.MarkAsRead(ctx, uuid.New())
		assert.ErrorIs(t, err, service.ErrNotificationNotFound)
	})

	t.Run("mark all as read", func(t *testing.T) {
		require.NoError(t, svc.MarkAllAsReadForUser(ctx))

		count, err := svc.GetUnreadCount(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count.Count)
	})
}

func TestNotificationService_NotifyMany(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newNotificationService(db)

	a := testutil.CreateTestUser(t, db, domain.RoleSuperAdmin)
	b := testutil.CreateTestUser(t, db, domain.RoleSuperAdmin)

	require.NoError(t, svc.NotifyMany(context.Background(), []uuid.UUID{a.ID, b.ID}, domain.NotificationTypeEntityPending, "Entity pending", "Acme awaits review", nil))

	var count int64
	require.NoError(t, db.Model(&domain.Notification{}).Where("type = ?", domain.NotificationTypeEntityPending).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	// empty recipient list is a no-op
	require.NoError(t, svc.NotifyMany(context.Background(), nil, domain.NotificationTypeEntityPending, "x", "y", nil))
}
