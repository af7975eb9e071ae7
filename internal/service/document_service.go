package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gmfinance/compliance-api/internal/auth"
	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/gmfinance/compliance-api/internal/mapper"
	"github.com/gmfinance/compliance-api/internal/repository"
	"github.com/gmfinance/compliance-api/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentKind distinguishes the two document stores in routes and lookups
type DocumentKind string

const (
	KindPermanent DocumentKind = "permanent"
	KindPeriodic  DocumentKind = "periodic"
)

// ParseDocumentKind validates a kind path segment
func ParseDocumentKind(s string) (DocumentKind, error) {
	switch DocumentKind(s) {
	case KindPermanent, KindPeriodic:
		return DocumentKind(s), nil
	}
	return "", fmt.Errorf("%w: unknown document kind %q", ErrInvalidInput, s)
}

// PeriodicUploadRequest carries the metadata for a periodic document upload
type PeriodicUploadRequest struct {
	EntityID      uuid.UUID
	FinancialYear string
	Period        domain.PeriodKind
	PeriodValue   string
	DocumentType  string
	Filename      string
	ContentType   string
	Data          io.Reader
}

// PermanentUploadRequest carries the metadata for a permanent document upload
type PermanentUploadRequest struct {
	EntityID    uuid.UUID
	Category    string
	Filename    string
	ContentType string
	Data        io.Reader
}

// DocumentStream is an opened document ready to be sent to the client
type DocumentStream struct {
	Reader      io.ReadCloser
	Filename    string
	Size        int64
	ContentType string
}

// DocumentService handles uploads, the vault listing and byte streaming
type DocumentService struct {
	db              *gorm.DB
	entityRepo      *repository.EntityRepository
	userRepo        *repository.UserRepository
	assignmentRepo  *repository.AssignmentRepository
	documentRepo    *repository.DocumentRepository
	notificationSvc *NotificationService
	storage         storage.Storage
	logger          *zap.Logger
}

// NewDocumentService creates a new DocumentService instance
func NewDocumentService(
	db *gorm.DB,
	entityRepo *repository.EntityRepository,
	userRepo *repository.UserRepository,
	assignmentRepo *repository.AssignmentRepository,
	documentRepo *repository.DocumentRepository,
	notificationSvc *NotificationService,
	store storage.Storage,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		db:              db,
		entityRepo:      entityRepo,
		userRepo:        userRepo,
		assignmentRepo:  assignmentRepo,
		documentRepo:    documentRepo,
		notificationSvc: notificationSvc,
		storage:         store,
		logger:          logger,
	}
}

// UploadPeriodic stores a new periodic document version. The version is
// one past the highest existing version for the composite key, starting
// at 1; prior versions are never touched.
func (s *DocumentService) UploadPeriodic(ctx context.Context, req *PeriodicUploadRequest) (*domain.VaultDocumentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	if !req.Period.IsValid() {
		return nil, fmt.Errorf("%w: unknown period %q", ErrInvalidInput, req.Period)
	}
	if req.PeriodValue == "" || req.DocumentType == "" {
		return nil, fmt.Errorf("%w: period value and document type are required", ErrInvalidInput)
	}
	if filepath.Ext(req.Filename) == "" {
		return nil, fmt.Errorf("%w: filename must carry an extension", ErrInvalidInput)
	}

	financialYear := req.FinancialYear
	if financialYear == "" {
		financialYear = domain.CurrentFinancialYear()
	}

	entity, err := s.entityRepo.GetByID(ctx, req.EntityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	rel, err := s.relationshipFor(ctx, userCtx, entity)
	if err != nil {
		return nil, err
	}
	rel.Period = req.Period
	if !auth.Allow(userCtx, auth.PermDocumentWritePeriodic, rel) {
		return nil, ErrPermissionDenied
	}

	// Upload before opening the transaction so a slow storage backend
	// does not hold a database transaction open.
	storagePath, size, err := s.storage.Upload(ctx, req.Filename, req.ContentType, req.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc := &domain.PeriodicDocument{
		EntityID:      entity.ID,
		FinancialYear: financialYear,
		Period:        req.Period,
		PeriodValue:   req.PeriodValue,
		DocumentType:  req.DocumentType,
		StoragePath:   storagePath,
		Filename:      req.Filename,
		Size:          size,
		UploadedBy:    userCtx.UserID,
		UploadedAt:    time.Now(),
	}

	// The version read and the insert share one transaction so that two
	// concurrent uploads for the same key cannot both claim the same
	// version; the unique index over (key, version) backstops it.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		txRepo := repository.NewDocumentRepository(tx)
		version, err := txRepo.MaxVersion(ctx, entity.ID, financialYear, req.Period, req.PeriodValue, req.DocumentType)
		if err != nil {
			return fmt.Errorf("failed to resolve version: %w", err)
		}
		doc.Version = version + 1
		return txRepo.CreatePeriodic(ctx, doc)
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to cleanup file from storage after DB error",
				zap.String("storagePath", storagePath),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("failed to record document: %w", err)
	}

	if entity.CreatedBy != userCtx.UserID {
		_ = s.notificationSvc.Notify(ctx, entity.CreatedBy, domain.NotificationTypeDocumentUploaded,
			"Document uploaded",
			fmt.Sprintf("%s received %s for %s %s (v%d)", entity.CompanyName, req.DocumentType, req.Period, req.PeriodValue, doc.Version),
			&entity.ID,
		)
	}

	s.logger.Info("periodic document uploaded",
		zap.String("entityID", entity.ID.String()),
		zap.String("documentType", req.DocumentType),
		zap.Int("version", doc.Version),
		zap.String("uploadedBy", userCtx.UserID.String()),
	)

	dto := mapper.ToPeriodicVaultDTO(doc, entity.CompanyName, userCtx.Email)
	return &dto, nil
}

// UploadPermanent stores a permanent document for an entity the caller owns
func (s *DocumentService) UploadPermanent(ctx context.Context, req *PermanentUploadRequest) (*domain.VaultDocumentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	if !validCategory(req.Category) {
		return nil, fmt.Errorf("%w: unknown document category %q", ErrInvalidInput, req.Category)
	}
	if filepath.Ext(req.Filename) == "" {
		return nil, fmt.Errorf("%w: filename must carry an extension", ErrInvalidInput)
	}

	entity, err := s.entityRepo.GetByID(ctx, req.EntityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	rel := auth.Relationship{OwnsEntity: entity.CreatedBy == userCtx.UserID}
	if !auth.Allow(userCtx, auth.PermDocumentWritePermanent, rel) {
		return nil, ErrPermissionDenied
	}

	storagePath, size, err := s.storage.Upload(ctx, req.Filename, req.ContentType, req.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc := &domain.PermanentDocument{
		EntityID:     entity.ID,
		DocumentType: req.Category,
		StoragePath:  storagePath,
		Filename:     req.Filename,
		Size:         size,
		UploadedBy:   userCtx.UserID,
		UploadedAt:   time.Now(),
	}

	if err := s.documentRepo.CreatePermanent(ctx, doc); err != nil {
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to cleanup file from storage after DB error",
				zap.String("storagePath", storagePath),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("failed to record document: %w", err)
	}

	s.logger.Info("permanent document uploaded",
		zap.String("entityID", entity.ID.String()),
		zap.String("category", req.Category),
		zap.String("uploadedBy", userCtx.UserID.String()),
	)

	dto := mapper.ToPermanentVaultDTO(doc, entity.CompanyName, userCtx.Email)
	return &dto, nil
}

// VaultFilter narrows the vault listing
type VaultFilter struct {
	EntityID      *uuid.UUID
	FinancialYear string
	DocumentType  string
}

// Vault returns the union of permanent and periodic documents visible to
// the caller, annotated with entity names and uploader emails, newest
// first. Every stored version is included.
func (s *DocumentService) Vault(ctx context.Context, filter VaultFilter) ([]domain.VaultDocumentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	scope, scoped, err := s.visibleEntityIDs(ctx, userCtx)
	if err != nil {
		return nil, err
	}
	if scoped && len(scope) == 0 {
		return []domain.VaultDocumentDTO{}, nil
	}

	if filter.EntityID != nil && scoped {
		found := false
		for _, id := range scope {
			if id == *filter.EntityID {
				found = true
				break
			}
		}
		if !found {
			return nil, ErrPermissionDenied
		}
	}

	repoFilter := repository.DocumentFilter{
		EntityIDs:     scope,
		EntityID:      filter.EntityID,
		FinancialYear: filter.FinancialYear,
		DocumentType:  filter.DocumentType,
	}

	permanent, err := s.documentRepo.ListPermanent(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list permanent documents: %w", err)
	}
	periodic, err := s.documentRepo.ListPeriodic(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list periodic documents: %w", err)
	}

	entityIDs := make([]uuid.UUID, 0, len(permanent)+len(periodic))
	uploaderIDs := make([]uuid.UUID, 0, len(permanent)+len(periodic))
	for _, d := range permanent {
		entityIDs = append(entityIDs, d.EntityID)
		uploaderIDs = append(uploaderIDs, d.UploadedBy)
	}
	for _, d := range periodic {
		entityIDs = append(entityIDs, d.EntityID)
		uploaderIDs = append(uploaderIDs, d.UploadedBy)
	}

	names, err := s.entityRepo.NamesByIDs(ctx, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entity names: %w", err)
	}
	emails, err := s.userRepo.EmailsByIDs(ctx, uploaderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve uploader emails: %w", err)
	}

	dtos := make([]domain.VaultDocumentDTO, 0, len(permanent)+len(periodic))
	for i := range permanent {
		d := &permanent[i]
		dtos = append(dtos, mapper.ToPermanentVaultDTO(d, names[d.EntityID], emails[d.UploadedBy]))
	}
	for i := range periodic {
		d := &periodic[i]
		dtos = append(dtos, mapper.ToPeriodicVaultDTO(d, names[d.EntityID], emails[d.UploadedBy]))
	}

	sort.SliceStable(dtos, func(i, j int) bool {
		return dtos[i].UploadedAt > dtos[j].UploadedAt
	})

	return dtos, nil
}

// Open resolves a document's metadata, checks read access and opens its
// bytes from storage. A metadata row whose backing file is gone yields
// ErrFileMissing.
func (s *DocumentService) Open(ctx context.Context, kind DocumentKind, id uuid.UUID) (*DocumentStream, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	var (
		entityID    uuid.UUID
		storagePath string
		filename    string
		size        int64
	)

	switch kind {
	case KindPermanent:
		doc, err := s.documentRepo.GetPermanentByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to get document: %w", err)
		}
		entityID, storagePath, filename, size = doc.EntityID, doc.StoragePath, doc.Filename, doc.Size
	case KindPeriodic:
		doc, err := s.documentRepo.GetPeriodicByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to get document: %w", err)
		}
		entityID, storagePath, filename, size = doc.EntityID, doc.StoragePath, doc.Filename, doc.Size
	default:
		return nil, fmt.Errorf("%w: unknown document kind %q", ErrInvalidInput, kind)
	}

	entity, err := s.entityRepo.GetByID(ctx, entityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	rel, err := s.relationshipFor(ctx, userCtx, entity)
	if err != nil {
		return nil, err
	}
	if !auth.Allow(userCtx, auth.PermDocumentRead, rel) {
		return nil, ErrPermissionDenied
	}

	reader, err := s.storage.Download(ctx, storagePath)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrFileMissing, filename)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return &DocumentStream{
		Reader:      reader,
		Filename:    filename,
		Size:        size,
		ContentType: contentTypeFor(filename),
	}, nil
}

// AccountantStatus summarizes each of the calling accountant's
// assignments for the current financial year
func (s *DocumentService) AccountantStatus(ctx context.Context) ([]domain.PeriodStatusDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.IsAccountant() {
		return nil, ErrPermissionDenied
	}

	assignments, err := s.assignmentRepo.ListByAccountant(ctx, userCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	entityIDs := make([]uuid.UUID, len(assignments))
	for i, a := range assignments {
		entityIDs[i] = a.EntityID
	}
	names, err := s.entityRepo.NamesByIDs(ctx, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entity names: %w", err)
	}

	now := time.Now()
	fyStart, fyEnd := domain.FinancialYearBounds(now)
	label := domain.FinancialYearFor(now)

	statuses := make([]domain.PeriodStatusDTO, 0, len(assignments))
	for _, assignment := range assignments {
		counts, err := s.documentRepo.CountPeriodicByPeriod(ctx, assignment.EntityID, fyStart, fyEnd)
		if err != nil {
			return nil, fmt.Errorf("failed to count submissions: %w", err)
		}

		status := domain.PeriodStatusDTO{
			EntityID:       assignment.EntityID,
			EntityName:     names[assignment.EntityID],
			AccessType:     assignment.AccessType,
			FinancialYear:  label,
			MonthlyCount:   counts.Monthly,
			QuarterlyCount: counts.Quarterly,
			YearlyCount:    counts.Yearly,
		}
		if counts.LastSubmission != nil {
			formatted := counts.LastSubmission.UTC().Format(time.RFC3339)
			status.LastSubmission = &formatted
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

// Categories returns the static permanent-document category catalog
func (s *DocumentService) Categories() []string {
	return domain.DocumentCategories
}

// visibleEntityIDs resolves the caller's entity scope. scoped is false
// for admins, who see everything.
func (s *DocumentService) visibleEntityIDs(ctx context.Context, userCtx *auth.UserContext) ([]uuid.UUID, bool, error) {
	switch {
	case userCtx.IsSuperAdmin():
		return nil, false, nil
	case userCtx.IsSecretary():
		entities, err := s.entityRepo.ListByCreator(ctx, userCtx.UserID)
		if err != nil {
			return nil, true, fmt.Errorf("failed to list entities: %w", err)
		}
		ids := make([]uuid.UUID, len(entities))
		for i, e := range entities {
			ids[i] = e.ID
		}
		return ids, true, nil
	case userCtx.IsAccountant():
		assignments, err := s.assignmentRepo.ListByAccountant(ctx, userCtx.UserID)
		if err != nil {
			return nil, true, fmt.Errorf("failed to list assignments: %w", err)
		}
		ids := make([]uuid.UUID, len(assignments))
		for i, a := range assignments {
			ids[i] = a.EntityID
		}
		return ids, true, nil
	}
	return nil, true, ErrPermissionDenied
}

// relationshipFor resolves the caller's relationship to an entity
func (s *DocumentService) relationshipFor(ctx context.Context, userCtx *auth.UserContext, entity *domain.Entity) (auth.Relationship, error) {
	rel := auth.Relationship{OwnsEntity: entity.CreatedBy == userCtx.UserID}

	if userCtx.IsAccountant() {
		assignment, err := s.assignmentRepo.GetByPair(ctx, entity.ID, userCtx.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return rel, fmt.Errorf("failed to check assignment: %w", err)
		}
		rel.Assignment = assignment
	}

	return rel, nil
}

// contentTypeFor maps a filename extension to a response content type
func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".csv":
		return "text/csv"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
