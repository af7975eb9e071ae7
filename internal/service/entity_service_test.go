package service_test

import (
	"strings"
	"testing"

	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/gmfinance/compliance-api/internal/repository"
	"github.com/gmfinance/compliance-api/internal/service"
	"github.com/gmfinance/compliance-api/internal/storage"
	"github.com/gmfinance/compliance-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newEntityService(t *testing.T, db *gorm.DB) *service.EntityService {
	t.Helper()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	logger := zap.NewNop()
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), logger)
	return service.NewEntityService(
		db,
		repository.NewEntityRepository(db),
		repository.NewUserRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewDocumentRepository(db),
		notifications,
		store,
		logger,
	)
}

func validEntityRequest() *domain.CreateEntityRequest {
	return &domain.CreateEntityRequest{
		CompanyName:       "Acme Industries Pvt Ltd",
		PAN:               "AAACA9999A",
		GSTIN:             "29AAACA9999A1Z5",
		CompanyType:       "Private Limited",
		Address:           "12 Industrial Estate, Bengaluru",
		IncorporationDate: "2019-06-15",
		OwnerName:         "R. Sharma",
	}
}

func TestEntityService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newEntityService(t, db)
	secretary := testutil.CreateTestUser(t, db, domain.RoleCompanySecretary)
	admin := testutil.CreateTestUser(t, db, domain.RoleSuperAdmin)
	ctx := testutil.ContextForUser(secretary)

	t.Run("creates a pending entity with documents", func(t *testing.T) {
		uploads := []service.PermanentUpload{
			{
				Category:    "Incorporation Documents",
				Filename:    "certificate.pdf",
				ContentType: "application/pdf",
				Data:        strings.NewReader("%PDF-1.4 fake"),
			},
		}

		dto, err := svc.Create(ctx, validEntityRequest(), uploads)
		require.NoError(t, err)

		assert.Equal(t, domain.EntityStatusPendingApproval, dto.Status)
		assert.Equal(t, secretary.ID, dto.CreatedBy)
		require.NotNil(t, dto.IncorporationDate)
		assert.Equal(t, "2019-06-15", *dto.IncorporationDate)

		var docCount int64
		require.NoError(t, db.Model(&domain.PermanentDocument{}).
			Where("entity_id = ?", dto.ID).Count(&docCount).Error)
		assert.EqualValues(t, 1, docCount)

		// registration notifies every super admin
		var notif domain.Notification
		require.NoError(t, db.Where("user_id = ?", admin.ID).First(&notif).Error)
		assert.Equal(t, domain.NotificationTypeEntityPending, notif.Type)
	})

	t.Run("rejects duplicate PAN", func(t *testing.T) {
		req := validEntityRequest()
		req.GSTIN = "27AAACA9999A2Z5"

		_, err := svc.Create(ctx, req, nil)
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("rejects unknown document category", func(t *testing.T) {
		req := validEntityRequest()
		req.PAN = "AAACB8888B"
		req.GSTIN = "29AAACB8888B1Z5"

		uploads := []service.PermanentUpload{
			{Category: "Memes", Filename: "a.pdf", Data: strings.NewReader("x")},
		}
		_, err := svc.Create(ctx, req, uploads)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("accountants cannot create entities", func(t *testing.T) {
		accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)
		_, err := svc.Create(testutil.ContextForUser(accountant), validEntityRequest(), nil)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})
}

func TestEntityService_ApprovalLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newEntityService(t, db)
	secretary := testutil.CreateTestUser(t, db, domain.RoleCompanySecretary)
	admin := testutil.CreateTestUser(t, db, domain.RoleSuperAdmin)
	adminCtx := testutil.ContextForUser(admin)

	t.Run("approve moves pending to active", func(t *testing.T) {
		entity := testutil.CreateTestEntity(t, db, secretary.ID, domain.EntityStatusPendingApproval)

		dto, err := svc.Approve(adminCtx, entity.ID, "looks good")
		require.NoError(t, err)

		assert.Equal(t, domain.EntityStatusActive, dto.Status)
		require.NotNil(t, dto.ApprovedBy)
		assert.Equal(t, admin.ID, *dto.ApprovedBy)
		assert.Equal(t, "looks good", dto.AdminRemarks)

		var stored domain.Entity
		require.NoError(t, db.First(&stored, "id = ?", entity.ID).Error)
		assert.NotNil(t, stored.ApprovedAt)

		// creator is notified of the decision
		var notif domain.Notification
		require.NoError(t, db.Where("user_id = ? AND entity_id = ?", secretary.ID, entity.ID).First(&notif).Error)
		assert.Equal(t, domain.NotificationTypeEntityApproved, notif.Type)
	})

	t.Run("reject appends remarks to the message", func(t *testing.T) {
		entity := testutil.CreateTestEntity(t, db, secretary.ID, domain.EntityStatusPendingApproval)

		dto, err := svc.Reject(adminCtx, entity.ID, "PAN mismatch")
		require.NoError(t, err)
		assert.Equal(t, domain.EntityStatusRejected, dto.Status)

		// rejection records the reviewer but no approval timestamp
		var stored domain.Entity
		require.NoError(t, db.First(&stored, "id = ?", entity.ID).Error)
		require.NotNil(t, stored.ApprovedBy)
		assert.Equal(t, admin.ID, *stored.ApprovedBy)
		assert.Nil(t, stored.ApprovedAt)

		var notif domain.Notification
		require.NoError(t, db.Where("user_id = ? AND entity_id = ?", secretary.ID, entity.ID).First(&notif).Error)
		assert.Equal(t, domain.NotificationTypeEntityRejected, notif.Type)
		assert.Contains(t, notif.Message, "PAN mismatch")
	})

	t.Run("decided entities cannot be reviewed again", func(t *testing.T) {
		entity := testutil.CreateTestEntity(t, db, secretary.ID, domain.EntityStatusActive)

		_, err := svc.Approve(adminCtx, entity.ID, "")
		assert.ErrorIs(t, err, service.ErrInvalidStateTransition)

		_, err = svc.Reject(adminCtx, entity.ID, "")
		assert.ErrorIs(t, err, service.ErrInvalidStateTransition)
	})

	t.Run("secretaries cannot review", func(t *testing.T) {
		entity := testutil.CreateTestEntity(t, db, secretary.ID, domain.EntityStatusPendingApproval)

		_, err := svc.Approve(testutil.ContextForUser(secretary), entity.ID, "")
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("unknown entity", func(t *testing.T) {
		_, err := svc.Approve(adminCtx, uuid.New(), "")
		assert.ErrorIs(t, err, service.ErrEntityNotFound)
	})
}

func TestEntityService_Visibility(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newEntityService(t, db)

	owner := testutil.CreateTestUser(t, db, domain.RoleCompanySecretary)
	other := testutil.CreateTestUser(t, db, domain.RoleCompanySecretary)
	accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	admin := testutil.CreateTestUser(t, db, domain.RoleSuperAdmin)

	mine := testutil.CreateTestEntity(t, db, owner.ID, domain.EntityStatusActive)
	theirs := testutil.CreateTestEntity(t, db, other.ID, domain.EntityStatusActive)
	testutil.CreateTestAssignment(t, db, theirs.ID, accountant.ID, admin.ID, domain.AccessAll)

	t.Run("secretary sees only own entities", func(t *testing.T) {
		list, err := svc.List(testutil.ContextForUser(owner))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, mine.ID, list[0].ID)
	})

	t.Run("accountant sees only assigned entities", func(t *testing.T) {
		list, err := svc.List(testutil.ContextForUser(accountant))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, theirs.ID, list[0].ID)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		list, err := svc.List(testutil.ContextForUser(admin))
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("secretary cannot read a foreign entity", func(t *testing.T) {
		_, err := svc.Get(testutil.ContextForUser(owner), theirs.ID)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("assigned accountant can read the entity", func(t *testing.T) {
		dto, err := svc.Get(testutil.ContextForUser(accountant), theirs.ID)
		require.NoError(t, err)
		assert.Equal(t, theirs.ID, dto.ID)
	})
}
