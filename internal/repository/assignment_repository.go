package repository

import (
	"context"

	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssignmentRepository handles database operations for entity assignments
type AssignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, assignment *domain.EntityAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EntityAssignment, error) {
	var assignment domain.EntityAssignment
	err := r.db.WithContext(ctx).First(&assignment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// GetByPair returns the assignment for (entity, accountant), if any
func (r *AssignmentRepository) GetByPair(ctx context.Context, entityID, accountantID uuid.UUID) (*domain.EntityAssignment, error) {
	var assignment domain.EntityAssignment
	err := r.db.WithContext(ctx).
		First(&assignment, "entity_id = ? AND accountant_id = ?", entityID, accountantID).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListByAccountant returns all assignments held by an accountant
func (r *AssignmentRepository) ListByAccountant(ctx context.Context, accountantID uuid.UUID) ([]domain.EntityAssignment, error) {
	var assignments []domain.EntityAssignment
	err := r.db.WithContext(ctx).
		Where("accountant_id = ?", accountantID).
		Order("assigned_at DESC").
		Find(&assignments).Error
	return assignments, err
}

// ListByEntity returns all assignments on an entity
func (r *AssignmentRepository) ListByEntity(ctx context.Context, entityID uuid.UUID) ([]domain.EntityAssignment, error) {
	var assignments []domain.EntityAssignment
	err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("assigned_at DESC").
		Find(&assignments).Error
	return assignments, err
}

func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&domain.EntityAssignment{}, "id = ?", id).Error
}
