// Package testutil provides shared helpers for database-backed tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gmfinance/compliance-api/internal/auth"
	"github.com/gmfinance/compliance-api/internal/database"
	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an isolated in-memory SQLite database and migrates
// the full schema into it. Each call gets its own database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")

	require.NoError(t, database.AutoMigrate(db), "failed to migrate test schema")

	return db
}

// CreateTestUser inserts a user with the given role and returns it
func CreateTestUser(t *testing.T, db *gorm.DB, role domain.Role) *domain.User {
	t.Helper()

	user := &domain.User{
		Email:        fmt.Sprintf("user-%s@test.local", uuid.NewString()[:8]),
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Role:         role,
		FullName:     "Test User",
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestEntity inserts an entity owned by creator in the given status
func CreateTestEntity(t *testing.T, db *gorm.DB, creator uuid.UUID, status domain.EntityStatus) *domain.Entity {
	t.Helper()

	suffix := uuid.NewString()[:4]
	entity := &domain.Entity{
		CompanyName: "Test Company " + suffix,
		PAN:         randomPAN(),
		GSTIN:       randomGSTIN(),
		CompanyType: "Private Limited",
		Address:     "1 Test Street",
		Status:      status,
		CreatedBy:   creator,
	}
	require.NoError(t, db.Create(entity).Error)
	return entity
}

// CreateTestAssignment links an accountant to an entity
func CreateTestAssignment(t *testing.T, db *gorm.DB, entityID, accountantID, assignedBy uuid.UUID, access domain.AccessType) *domain.EntityAssignment {
	t.Helper()

	assignment := &domain.EntityAssignment{
		EntityID:     entityID,
		AccountantID: accountantID,
		AccessType:   access,
		AssignedBy:   assignedBy,
		AssignedAt:   time.Now().UTC(),
	}
	require.NoError(t, db.Create(assignment).Error)
	return assignment
}

// ContextForUser builds a request context carrying the user's identity
func ContextForUser(user *domain.User) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
		IsActive: user.IsActive,
	})
}

var panCounter atomic.Int64

// randomPAN generates a syntactically valid unique PAN
func randomPAN() string {
	return fmt.Sprintf("ABCDE%04dF", panCounter.Add(1)%10000)
}

// randomGSTIN generates a syntactically valid unique GSTIN
func randomGSTIN() string {
	return fmt.Sprintf("27ABCDE%04dF1Z5", panCounter.Add(1)%10000)
}
