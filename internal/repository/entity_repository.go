package repository

import (
	"context"

	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EntityRepository struct {
	db *gorm.DB
}

func NewEntityRepository(db *gorm.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

func (r *EntityRepository) Create(ctx context.Context, entity *domain.Entity) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

func (r *EntityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Entity, error) {
	var entity domain.Entity
	err := r.db.WithContext(ctx).First(&entity, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// ExistsByPAN reports whether any entity already carries the given PAN
func (r *EntityRepository) ExistsByPAN(ctx context.Context, pan string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Entity{}).
		Where("pan = ?", pan).
		Count(&count).Error
	return count > 0, err
}

// ExistsByGSTIN reports whether any entity already carries the given GSTIN
func (r *EntityRepository) ExistsByGSTIN(ctx context.Context, gstin string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Entity{}).
		Where("gstin = ?", gstin).
		Count(&count).Error
	return count > 0, err
}

func (r *EntityRepository) ListAll(ctx context.Context) ([]domain.Entity, error) {
	var entities []domain.Entity
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&entities).Error
	return entities, err
}

// ListByCreator returns the entities owned by the given secretary
func (r *EntityRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]domain.Entity, error) {
	var entities []domain.Entity
	err := r.db.WithContext(ctx).
		Where("created_by = ?", creatorID).
		Order("created_at DESC").
		Find(&entities).Error
	return entities, err
}

func (r *EntityRepository) ListByStatus(ctx context.Context, status domain.EntityStatus) ([]domain.Entity, error) {
	var entities []domain.Entity
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&entities).Error
	return entities, err
}

func (r *EntityRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var entities []domain.Entity
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at DESC").
		Find(&entities).Error
	return entities, err
}

func (r *EntityRepository) Update(ctx context.Context, entity *domain.Entity) error {
	return r.db.WithContext(ctx).Save(entity).Error
}

// NamesByIDs returns a map of entity id to company name for the given ids
func (r *EntityRepository) NamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}

	var entities []domain.Entity
	err := r.db.WithContext(ctx).
		Select("id", "company_name").
		Where("id IN ?", ids).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}

	names := make(map[uuid.UUID]string, len(entities))
	for _, e := range entities {
		names[e.ID] = e.CompanyName
	}
	return names, nil
}
