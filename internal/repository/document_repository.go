package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentFilter narrows vault listings
type DocumentFilter struct {
	EntityIDs     []uuid.UUID // candidate set; empty means unrestricted
	EntityID      *uuid.UUID
	FinancialYear string
	DocumentType  string
}

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) CreatePermanent(ctx context.Context, doc *domain.PermanentDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) CreatePeriodic(ctx context.Context, doc *domain.PeriodicDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) GetPermanentByID(ctx context.Context, id uuid.UUID) (*domain.PermanentDocument, error) {
	var doc domain.PermanentDocument
	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) GetPeriodicByID(ctx context.Context, id uuid.UUID) (*domain.PeriodicDocument, error) {
	var doc domain.PeriodicDocument
	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MaxVersion returns the highest stored version for the periodic composite
// key, or 0 when no prior upload exists.
func (r *DocumentRepository) MaxVersion(ctx context.Context, entityID uuid.UUID, financialYear string, period domain.PeriodKind, periodValue, documentType string) (int, error) {
	var current int
	err := r.db.WithContext(ctx).
		Model(&domain.PeriodicDocument{}).
		Select("COALESCE(MAX(version), 0)").
		Where("entity_id = ? AND financial_year = ? AND period = ? AND period_value = ? AND document_type = ?",
			entityID, financialYear, period, periodValue, documentType).
		Scan(&current).Error
	return current, err
}

func (r *DocumentRepository) ListPermanent(ctx context.Context, filter DocumentFilter) ([]domain.PermanentDocument, error) {
	var docs []domain.PermanentDocument
	query := r.db.WithContext(ctx).Model(&domain.PermanentDocument{})
	query = applyDocumentFilter(query, filter, false)
	err := query.Order("uploaded_at DESC").Find(&docs).Error
	return docs, err
}

func (r *DocumentRepository) ListPeriodic(ctx context.Context, filter DocumentFilter) ([]domain.PeriodicDocument, error) {
	var docs []domain.PeriodicDocument
	query := r.db.WithContext(ctx).Model(&domain.PeriodicDocument{})
	query = applyDocumentFilter(query, filter, true)
	err := query.Order("uploaded_at DESC").Find(&docs).Error
	return docs, err
}

// ListPermanentByUploader returns the permanent documents uploaded by a user
func (r *DocumentRepository) ListPermanentByUploader(ctx context.Context, uploaderID uuid.UUID) ([]domain.PermanentDocument, error) {
	var docs []domain.PermanentDocument
	err := r.db.WithContext(ctx).
		Where("uploaded_by = ?", uploaderID).
		Order("uploaded_at DESC").
		Find(&docs).Error
	return docs, err
}

// ListPeriodicByUploader returns the periodic documents uploaded by a user
func (r *DocumentRepository) ListPeriodicByUploader(ctx context.Context, uploaderID uuid.UUID) ([]domain.PeriodicDocument, error) {
	var docs []domain.PeriodicDocument
	err := r.db.WithContext(ctx).
		Where("uploaded_by = ?", uploaderID).
		Order("uploaded_at DESC").
		Find(&docs).Error
	return docs, err
}

// PeriodCounts summarizes an uploader's periodic submissions for one entity
// within the given time window.
type PeriodCounts struct {
	Monthly        int64
	Quarterly      int64
	Yearly         int64
	LastSubmission *time.Time
}

// CountPeriodicByPeriod counts an entity's periodic submissions per period
// kind between from (inclusive) and to (exclusive), and the most recent
// submission time.
func (r *DocumentRepository) CountPeriodicByPeriod(ctx context.Context, entityID uuid.UUID, from, to time.Time) (*PeriodCounts, error) {
	counts := &PeriodCounts{}

	type row struct {
		Period domain.PeriodKind
		N      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&domain.PeriodicDocument{}).
		Select("period, COUNT(*) AS n").
		Where("entity_id = ? AND uploaded_at >= ? AND uploaded_at < ?", entityID, from, to).
		Group("period").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, rw := range rows {
		switch rw.Period {
		case domain.PeriodMonthly:
			counts.Monthly = rw.N
		case domain.PeriodQuarterly:
			counts.Quarterly = rw.N
		case domain.PeriodYearly:
			counts.Yearly = rw.N
		}
	}

	var last domain.PeriodicDocument
	err = r.db.WithContext(ctx).
		Where("entity_id = ? AND uploaded_at >= ? AND uploaded_at < ?", entityID, from, to).
		Order("uploaded_at DESC").
		First(&last).Error
	if err == nil {
		counts.LastSubmission = &last.UploadedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return counts, nil
}

func applyDocumentFilter(query *gorm.DB, filter DocumentFilter, periodic bool) *gorm.DB {
	if len(filter.EntityIDs) > 0 {
		query = query.Where("entity_id IN ?", filter.EntityIDs)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.DocumentType != "" {
		query = query.Where("document_type = ?", filter.DocumentType)
	}
	if periodic && filter.FinancialYear != "" {
		query = query.Where("financial_year = ?", filter.FinancialYear)
	}
	return query
}
