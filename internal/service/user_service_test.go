package service_test

import (
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

func newUserService(db *gorm.DB) *service.UserService {
	logger := zap.NewNop()
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), logger)
	return service.NewUserService(
		db,
		repository.NewUserRepository(db),
		repository.NewEntityRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewDocumentRepository(db),
		notifications,
		logger,
	)
}

func TestUserService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(db)
	admin := testutil.CreateTestUser(t, db, domain.RoleSuperAdmin)
	adminCtx := testutil.ContextForUser(admin)

	t.Run("admin creates any role", func(t *testing.T) {
		dto, err := svc.Create(adminCtx, &domain.CreateUserRequest{
			Email:    "new.accountant@example.com",
			Password: "password123",
			Role:     "accountant",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAccountant, dto.Role)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := svc.Create(adminCtx, &domain.CreateUserRequest{
			Email:    "intern@example.com",
			Password: "password123",
			Role:     "intern",
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("non-admins are denied", func(t *testing.T) {
		secretary := testutil.CreateTestUser(t, db, domain.RoleCompanySecretary)
		_, err := svc.Create(testutil.ContextForUser(secretary), &domain.CreateUserRequest{
			Email:    "x@example.com",
			Password: "password123",
			Role:     "accountant",
		})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})
}

func TestUserService_SetActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(db)
	admin := testutil.CreateTestUser(t, db, domain.RoleSuperAdmin)
	adminCtx := testutil.ContextForUser(admin)

	t.Run("deactivates and reactivates another user", func(t *testing.T) {
		target := testutil.CreateTestUser(t, db, domain.RoleAccountant)

		dto, err := svc.SetActive(adminCtx, target.ID, false)
		require.NoError(t, err)
		assert.False(t, dto.IsActive)

		dto, err = svc.SetActive(adminCtx, target.ID, true)
		require.NoError(t, err)
		assert.True(t, dto.IsActive)
	})

	t.Run("admins cannot deactivate themselves", func(t *testing.T) {
		_, err := svc.SetActive(adminCtx, admin.ID, false)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.SetActive(adminCtx, uuid.New(), false)
		assert.ErrorIs(t, err, service.ErrUserNotFound)
	})
}

func TestUserService_Assign(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(db)
	admin := testutil.CreateTestUser(t, db, domain.RoleSuperAdmin)
	secretary := testutil.CreateTestUser(t, db, domain.RoleCompanySecretary)
	accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	entity := testutil.CreateTestEntity(t, db, secretary.ID, domain.EntityStatusActive)
	adminCtx := testutil.ContextForUser(admin)

	t.Run("assigns with default access", func(t *testing.T) {
		dto, err := svc.Assign(adminCtx, &domain.AssignEntityRequest{
			EntityID:     entity.ID,
			AccountantID: accountant.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.AccessAll, dto.AccessType)

		// the accountant hears about it
		var notif domain.Notification
		require.NoError(t, db.Where("user_id = ? AND type = ?", accountant.ID, domain.NotificationTypeEntityAssigned).First(&notif).Error)
	})

	t.Run("duplicate pair is rejected", func(t *testing.T) {
		_, err := svc.Assign(adminCtx, &domain.AssignEntityRequest{
			EntityID:     entity.ID,
			AccountantID: accountant.ID,
			AccessType:   "monthly",
		})
		assert.ErrorIs(t, err, service.ErrDuplicateAssignment)
	})

	t.Run("target must be an accountant", func(t *testing.T) {
		_, err := svc.Assign(adminCtx, &domain.AssignEntityRequest{
			EntityID:     entity.ID,
			AccountantID: secretary.ID,
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("pending entities cannot be assigned", func(t *testing.T) {
		pending := testutil.CreateTestEntity(t, db, secretary.ID, domain.EntityStatusPendingApproval)
		other := testutil.CreateTestUser(t, db, domain.RoleAccountant)
		_, err := svc.Assign(adminCtx, &domain.AssignEntityRequest{
			EntityID:     pending.ID,
			AccountantID: other.ID,
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("unassign removes the pair", func(t *testing.T) {
		var assignment domain.EntityAssignment
		require.NoError(t, db.Where("entity_id = ? AND accountant_id = ?", entity.ID, accountant.ID).First(&assignment).Error)

		require.NoError(t, svc.Unassign(adminCtx, assignment.ID))

		err := db.Where("id = ?", assignment.ID).First(&domain.EntityAssignment{}).Error
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("unassign unknown id", func(t *testing.T) {
		assert.ErrorIs(t, svc.Unassign(adminCtx, uuid.New()), service.ErrNotFound)
	})
}

func TestUserService_CreateAccountant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(db)
	secretary := testutil.CreateTestUser(t, db, domain.RoleCompanySecretary)
	other := testutil.CreateTestUser(t, db, domain.RoleCompanySecretary)
	entity := testutil.CreateTestEntity(t, db, secretary.ID, domain.EntityStatusActive)

	t.Run("secretary creates accountant for own entity", func(t *testing.T) {
		dto, err := svc.CreateAccountant(testutil.ContextForUser(secretary), &domain.CreateAccountantRequest{
			Email:      "bookkeeper@example.com",
			Password:   "password123",
			FullName:   "Book Keeper",
			EntityID:   entity.ID,
			AccessType: "monthly",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAccountant, dto.Role)

		var assignment domain.EntityAssignment
		require.NoError(t, db.Where("entity_id = ? AND accountant_id = ?", entity.ID, dto.ID).First(&assignment).Error)
		assert.Equal(t, domain.AccessMonthly, assignment.AccessType)
	})

	t.Run("secretary cannot target a foreign entity", func(t *testing.T) {
		_, err := svc.CreateAccountant(testutil.ContextForUser(other), &domain.CreateAccountantRequest{
			Email:    "sneaky@example.com",
			Password: "password123",
			EntityID: entity.ID,
		})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("duplicate email rolls the assignment back", func(t *testing.T) {
		_, err := svc.CreateAccountant(testutil.ContextForUser(secretary), &domain.CreateAccountantRequest{
			Email:    "bookkeeper@example.com",
			Password: "password123",
			EntityID: entity.ID,
		})
		assert.ErrorIs(t, err, service.ErrConflict)

		var count int64
		require.NoError(t, db.Model(&domain.EntityAssignment{}).Where("entity_id = ?", entity.ID).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}

func TestUserService_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(db)
	admin := testutil.CreateTestUser(t, db, domain.RoleSuperAdmin)
	testutil.CreateTestUser(t, db, domain.RoleAccountant)
	testutil.CreateTestUser(t, db, domain.RoleAccountant)
	testutil.CreateTestUser(t, db, domain.RoleCompanySecretary)
	adminCtx := testutil.ContextForUser(admin)

	t.Run("filters by role", func(t *testing.T) {
		resp, err := svc.List(adminCtx, "accountant", 1, 50)
		require.NoError(t, err)
		assert.EqualValues(t, 2, resp.Total)
	})

	t.Run("rejects unknown role filter", func(t *testing.T) {
		_, err := svc.List(adminCtx, "wizard", 1, 50)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("paginates", func(t *testing.T) {
		resp, err := svc.List(adminCtx, "", 1, 2)
		require.NoError(t, err)
		assert.EqualValues(t, 4, resp.Total)
		users, ok := resp.Data.([]domain.UserDTO)
		require.True(t, ok)
		assert.Len(t, users, 2)
	})
}
