package service

import (
	"context"
	"errors"
	"fmt"
	"io"
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

// PermanentUpload is one incorporation document submitted alongside an
// entity registration
type PermanentUpload struct {
	Category    string
	Filename    string
	ContentType string
	Data        io.Reader
}

// EntityService handles the entity registry and its approval lifecycle
type EntityService struct {
	db              *gorm.DB
	entityRepo      *repository.EntityRepository
	userRepo        *repository.UserRepository
	assignmentRepo  *repository.AssignmentRepository
	documentRepo    *repository.DocumentRepository
	notificationSvc *NotificationService
	storage         storage.Storage
	logger          *zap.Logger
}

// NewEntityService creates a new EntityService instance
func NewEntityService(
	db *gorm.DB,
	entityRepo *repository.EntityRepository,
	userRepo *repository.UserRepository,
	assignmentRepo *repository.AssignmentRepository,
	documentRepo *repository.DocumentRepository,
	notificationSvc *NotificationService,
	store storage.Storage,
	logger *zap.Logger,
) *EntityService {
	return &EntityService{
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

// Create registers a new entity in pending_approval together with its
// incorporation documents. Files land in storage first; the entity row and
// document rows commit in one transaction, with best-effort storage
// cleanup when the transaction fails.
func (s *EntityService) Create(ctx context.Context, req *domain.CreateEntityRequest, uploads []PermanentUpload) (*domain.EntityDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !auth.Allow(userCtx, auth.PermEntityCreate, auth.Relationship{}) {
		return nil, ErrPermissionDenied
	}

	pan := strings.ToUpper(strings.TrimSpace(req.PAN))
	if !domain.ValidPAN(pan) {
		return nil, fmt.Errorf("%w: invalid PAN format", ErrInvalidInput)
	}
	gstin := strings.ToUpper(strings.TrimSpace(req.GSTIN))
	if !domain.ValidGSTIN(gstin) {
		return nil, fmt.Errorf("%w: invalid GSTIN format", ErrInvalidInput)
	}

	if exists, err := s.entityRepo.ExistsByPAN(ctx, pan); err != nil {
		return nil, fmt.Errorf("failed to check PAN: %w", err)
	} else if exists {
		return nil, fmt.Errorf("%w: PAN already registered", ErrConflict)
	}
	if exists, err := s.entityRepo.ExistsByGSTIN(ctx, gstin); err != nil {
		return nil, fmt.Errorf("failed to check GSTIN: %w", err)
	} else if exists {
		return nil, fmt.Errorf("%w: GSTIN already registered", ErrConflict)
	}

	for _, upload := range uploads {
		if !validCategory(upload.Category) {
			return nil, fmt.Errorf("%w: unknown document category %q", ErrInvalidInput, upload.Category)
		}
	}

	entity := &domain.Entity{
		CompanyName: strings.TrimSpace(req.CompanyName),
		PAN:         pan,
		GSTIN:       gstin,
		CompanyType: strings.TrimSpace(req.CompanyType),
		Address:     strings.TrimSpace(req.Address),
		OwnerName:   strings.TrimSpace(req.OwnerName),
		Status:      domain.EntityStatusPendingApproval,
		CreatedBy:   userCtx.UserID,
	}

	if cin := strings.ToUpper(strings.TrimSpace(req.CIN)); cin != "" {
		entity.CIN = &cin
	}
	if req.IncorporationDate != "" {
		incorporated, err := time.Parse("2006-01-02", req.IncorporationDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid incorporation date", ErrInvalidInput)
		}
		entity.IncorporationDate = &incorporated
	}

	fyStart, fyEnd := domain.FinancialYearBounds(time.Now())
	entity.FYStart = &fyStart
	entity.FYEnd = &fyEnd

	// Upload files before opening the transaction so a slow storage
	// backend does not hold a database transaction open.
	type staged struct {
		upload      PermanentUpload
		storagePath string
		size        int64
	}
	stagedUploads := make([]staged, 0, len(uploads))
	cleanup := func() {
		for _, st := range stagedUploads {
			if err := s.storage.Delete(ctx, st.storagePath); err != nil {
				s.logger.Warn("failed to clean up staged upload",
					zap.String("storagePath", st.storagePath),
					zap.Error(err),
				)
			}
		}
	}

	for _, upload := range uploads {
		storagePath, size, err := s.storage.Upload(ctx, upload.Filename, upload.ContentType, upload.Data)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to store document %q: %w", upload.Filename, err)
		}
		stagedUploads = append(stagedUploads, staged{upload: upload, storagePath: storagePath, size: size})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewEntityRepository(tx).Create(ctx, entity); err != nil {
			return fmt.Errorf("failed to create entity: %w", err)
		}

		docRepo := repository.NewDocumentRepository(tx)
		for _, st := range stagedUploads {
			doc := &domain.PermanentDocument{
				EntityID:     entity.ID,
				DocumentType: st.upload.Category,
				StoragePath:  st.storagePath,
				Filename:     st.upload.Filename,
				Size:         st.size,
				UploadedBy:   userCtx.UserID,
				UploadedAt:   time.Now(),
			}
			if err := docRepo.CreatePermanent(ctx, doc); err != nil {
				return fmt.Errorf("failed to record document %q: %w", st.upload.Filename, err)
			}
		}

		return nil
	})
	if err != nil {
		cleanup()
		return nil, err
	}

	s.notifyAdmins(ctx, domain.NotificationTypeEntityPending,
		"Entity pending approval",
		fmt.Sprintf("%s is awaiting approval", entity.CompanyName),
		&entity.ID,
	)

	s.logger.Info("entity registered",
		zap.String("entityID", entity.ID.String()),
		zap.String("createdBy", userCtx.UserID.String()),
		zap.Int("documents", len(stagedUploads)),
	)

	dto := mapper.ToEntityDTO(entity, userCtx.Email)
	return &dto, nil
}

// List returns the entities visible to the caller: all for admins, own
// for secretaries, assigned for accountants
func (s *EntityService) List(ctx context.Context) ([]domain.EntityDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	var entities []domain.Entity
	var err error

	switch {
	case userCtx.IsSuperAdmin():
		entities, err = s.entityRepo.ListAll(ctx)
	case userCtx.IsSecretary():
		entities, err = s.entityRepo.ListByCreator(ctx, userCtx.UserID)
	case userCtx.IsAccountant():
		var assignments []domain.EntityAssignment
		assignments, err = s.assignmentRepo.ListByAccountant(ctx, userCtx.UserID)
		if err == nil {
			ids := make([]uuid.UUID, len(assignments))
			for i, a := range assignments {
				ids[i] = a.EntityID
			}
			entities, err = s.entityRepo.ListByIDs(ctx, ids)
		}
	default:
		return nil, ErrPermissionDenied
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}

	creatorIDs := make([]uuid.UUID, len(entities))
	for i, e := range entities {
		creatorIDs[i] = e.CreatedBy
	}
	emails, err := s.userRepo.EmailsByIDs(ctx, creatorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve creator emails: %w", err)
	}

	dtos := make([]domain.EntityDTO, len(entities))
	for i := range entities {
		dtos[i] = mapper.ToEntityDTO(&entities[i], emails[entities[i].CreatedBy])
	}
	return dtos, nil
}

// Get returns one entity after an access check
func (s *EntityService) Get(ctx context.Context, id uuid.UUID) (*domain.EntityDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	entity, err := s.entityRepo.GetByID(ctx, id)
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
	if !auth.Allow(userCtx, auth.PermEntityRead, rel) {
		return nil, ErrPermissionDenied
	}

	emails, err := s.userRepo.EmailsByIDs(ctx, []uuid.UUID{entity.CreatedBy})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve creator email: %w", err)
	}

	dto := mapper.ToEntityDTO(entity, emails[entity.CreatedBy])
	return &dto, nil
}

// ListPending returns entities awaiting review, admin only
func (s *EntityService) ListPending(ctx context.Context) ([]domain.EntityDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !auth.Allow(userCtx, auth.PermEntityReview, auth.Relationship{}) {
		return nil, ErrPermissionDenied
	}

	entities, err := s.entityRepo.ListByStatus(ctx, domain.EntityStatusPendingApproval)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending entities: %w", err)
	}

	creatorIDs := make([]uuid.UUID, len(entities))
	for i, e := range entities {
		creatorIDs[i] = e.CreatedBy
	}
	emails, err := s.userRepo.EmailsByIDs(ctx, creatorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve creator emails: %w", err)
	}

	dtos := make([]domain.EntityDTO, len(entities))
	for i := range entities {
		dtos[i] = mapper.ToEntityDTO(&entities[i], emails[entities[i].CreatedBy])
	}
	return dtos, nil
}

// Approve transitions a pending entity to active, admin only
func (s *EntityService) Approve(ctx context.Context, id uuid.UUID, remarks string) (*domain.EntityDTO, error) {
	return s.review(ctx, id, domain.EntityStatusActive, remarks)
}

// Reject transitions a pending entity to rejected, admin only
func (s *EntityService) Reject(ctx context.Context, id uuid.UUID, remarks string) (*domain.EntityDTO, error) {
	return s.review(ctx, id, domain.EntityStatusRejected, remarks)
}

func (s *EntityService) review(ctx context.Context, id uuid.UUID, target domain.EntityStatus, remarks string) (*domain.EntityDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !auth.Allow(userCtx, auth.PermEntityReview, auth.Relationship{}) {
		return nil, ErrPermissionDenied
	}

	entity, err := s.entityRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	// Only pending entities can be reviewed; decided entities stay decided
	if entity.Status != domain.EntityStatusPendingApproval {
		return nil, ErrInvalidStateTransition
	}

	reviewer := userCtx.UserID
	entity.Status = target
	entity.ApprovedBy = &reviewer
	entity.AdminRemarks = strings.TrimSpace(remarks)

	// Rejection records the reviewer and remarks only; approved_at marks
	// the moment an entity went active.
	if target == domain.EntityStatusActive {
		now := time.Now()
		entity.ApprovedAt = &now
	}

	if err := s.entityRepo.Update(ctx, entity); err != nil {
		return nil, fmt.Errorf("failed to update entity: %w", err)
	}

	notifType := domain.NotificationTypeEntityApproved
	title := "Entity approved"
	message := fmt.Sprintf("%s has been approved", entity.CompanyName)
	if target == domain.EntityStatusRejected {
		notifType = domain.NotificationTypeEntityRejected
		title = "Entity rejected"
		message = fmt.Sprintf("%s has been rejected", entity.CompanyName)
		if entity.AdminRemarks != "" {
			message = fmt.Sprintf("%s: %s", message, entity.AdminRemarks)
		}
	}
	_ = s.notificationSvc.Notify(ctx, entity.CreatedBy, notifType, title, message, &entity.ID)

	s.logger.Info("entity reviewed",
		zap.String("entityID", entity.ID.String()),
		zap.String("status", string(target)),
		zap.String("reviewedBy", reviewer.String()),
	)

	emails, err := s.userRepo.EmailsByIDs(ctx, []uuid.UUID{entity.CreatedBy})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve creator email: %w", err)
	}

	dto := mapper.ToEntityDTO(entity, emails[entity.CreatedBy])
	return &dto, nil
}

// relationshipFor resolves the caller's relationship to an entity
func (s *EntityService) relationshipFor(ctx context.Context, userCtx *auth.UserContext, entity *domain.Entity) (auth.Relationship, error) {
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

// notifyAdmins fans a notification out to every active super admin
func (s *EntityService) notifyAdmins(ctx context.Context, notifType domain.NotificationType, title, message string, entityID *uuid.UUID) {
	admins, err := s.userRepo.ListByRole(ctx, domain.RoleSuperAdmin)
	if err != nil {
		s.logger.Warn("failed to list admins for notification", zap.Error(err))
		return
	}

	ids := make([]uuid.UUID, len(admins))
	for i, admin := range admins {
		ids[i] = admin.ID
	}
	_ = s.notificationSvc.NotifyMany(ctx, ids, notifType, title, message, entityID)
}

// validCategory checks a permanent-document category against the catalog
func validCategory(category string) bool {
	for _, c := range domain.DocumentCategories {
		if c == category {
			return true
		}
	}
	return false
}
