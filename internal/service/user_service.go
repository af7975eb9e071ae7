package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gmfinance/compliance-api/internal/auth"
	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/gmfinance/compliance-api/internal/mapper"
	"github.com/gmfinance/compliance-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService handles user administration and entity assignments
type UserService struct {
	db              *gorm.DB
	userRepo        *repository.UserRepository
	entityRepo      *repository.EntityRepository
	assignmentRepo  *repository.AssignmentRepository
	documentRepo    *repository.DocumentRepository
	notificationSvc *NotificationService
	logger          *zap.Logger
}

// NewUserService creates a new UserService instance
func NewUserService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	entityRepo *repository.EntityRepository,
	assignmentRepo *repository.AssignmentRepository,
	documentRepo *repository.DocumentRepository,
	notificationSvc *NotificationService,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		db:              db,
		userRepo:        userRepo,
		entityRepo:      entityRepo,
		assignmentRepo:  assignmentRepo,
		documentRepo:    documentRepo,
		notificationSvc: notificationSvc,
		logger:          logger,
	}
}

// List returns users with optional role filtering, admin only
func (s *UserService) List(ctx context.Context, role string, page, pageSize int) (*domain.PaginatedResponse, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !auth.Allow(userCtx, auth.PermManageUsers, auth.Relationship{}) {
		return nil, ErrPermissionDenied
	}

	var roleFilter domain.Role
	if role != "" {
		roleFilter = domain.Role(role)
		if !roleFilter.IsValid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
		}
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	users, total, err := s.userRepo.List(ctx, roleFilter, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Data:       mapper.ToUserDTOs(users),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Create provisions a user with an explicit role, admin only
func (s *UserService) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !auth.Allow(userCtx, auth.PermManageUsers, auth.Relationship{}) {
		return nil, ErrPermissionDenied
	}

	role := domain.Role(req.Role)
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, req.Role)
	}

	user, err := s.buildUser(ctx, req.Email, req.Password, req.FullName, req.PAN, req.GSTIN, role)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created",
		zap.String("userID", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.String("createdBy", userCtx.UserID.String()),
	)

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// SetActive enables or disables a user account, admin only. Admins cannot
// deactivate their own account.
func (s *UserService) SetActive(ctx context.Context, userID uuid.UUID, active bool) (*domain.UserDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !auth.Allow(userCtx, auth.PermManageUsers, auth.Relationship{}) {
		return nil, ErrPermissionDenied
	}

	if !active && userID == userCtx.UserID {
		return nil, fmt.Errorf("%w: cannot deactivate own account", ErrInvalidInput)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsActive != active {
		if err := s.userRepo.SetActive(ctx, userID, active); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		user.IsActive = active
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// Assign grants an accountant access to an entity, admin only. The entity
// must be active and the target user must be an active accountant.
func (s *UserService) Assign(ctx context.Context, req *domain.AssignEntityRequest) (*domain.AssignmentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !auth.Allow(userCtx, auth.PermManageUsers, auth.Relationship{}) {
		return nil, ErrPermissionDenied
	}

	accessType := domain.AccessType(req.AccessType)
	if accessType == "" {
		accessType = domain.AccessAll
	}
	if !accessType.IsValid() {
		return nil, fmt.Errorf("%w: unknown access type %q", ErrInvalidInput, req.AccessType)
	}

	entity, err := s.entityRepo.GetByID(ctx, req.EntityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	if entity.Status != domain.EntityStatusActive {
		return nil, fmt.Errorf("%w: entity is not active", ErrInvalidInput)
	}

	accountant, err := s.userRepo.GetByID(ctx, req.AccountantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get accountant: %w", err)
	}
	if accountant.Role != domain.RoleAccountant {
		return nil, fmt.Errorf("%w: user is not an accountant", ErrInvalidInput)
	}
	if !accountant.IsActive {
		return nil, fmt.Errorf("%w: accountant is deactivated", ErrInvalidInput)
	}

	if existing, err := s.assignmentRepo.GetByPair(ctx, req.EntityID, req.AccountantID); err == nil && existing != nil {
		return nil, ErrDuplicateAssignment
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check assignment: %w", err)
	}

	assignment := &domain.EntityAssignment{
		EntityID:     req.EntityID,
		AccountantID: req.AccountantID,
		AccessType:   accessType,
		AssignedBy:   userCtx.UserID,
	}

	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	_ = s.notificationSvc.Notify(ctx, accountant.ID, domain.NotificationTypeEntityAssigned,
		"Entity assigned",
		fmt.Sprintf("You have been assigned to %s with %s access", entity.CompanyName, accessType),
		&entity.ID,
	)

	dto := mapper.ToAssignmentDTO(assignment, entity.CompanyName, accountant.Email)
	return &dto, nil
}

// Unassign removes an assignment, admin only
func (s *UserService) Unassign(ctx context.Context, assignmentID uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if !auth.Allow(userCtx, auth.PermManageUsers, auth.Relationship{}) {
		return ErrPermissionDenied
	}

	if _, err := s.assignmentRepo.GetByID(ctx, assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get assignment: %w", err)
	}

	if err := s.assignmentRepo.Delete(ctx, assignmentID); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	return nil
}

// CreateAccountant creates an accountant account and assigns it to an
// entity in one transaction. Admins may target any active entity;
// secretaries only entities they created.
func (s *UserService) CreateAccountant(ctx context.Context, req *domain.CreateAccountantRequest) (*domain.UserDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	entity, err := s.entityRepo.GetByID(ctx, req.EntityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	rel := auth.Relationship{OwnsEntity: entity.CreatedBy == userCtx.UserID}
	if !auth.Allow(userCtx, auth.PermCreateAccountant, rel) {
		return nil, ErrPermissionDenied
	}
	if userCtx.IsSecretary() && !rel.OwnsEntity {
		return nil, ErrPermissionDenied
	}
	if entity.Status != domain.EntityStatusActive {
		return nil, fmt.Errorf("%w: entity is not active", ErrInvalidInput)
	}

	accessType := domain.AccessType(req.AccessType)
	if accessType == "" {
		accessType = domain.AccessAll
	}
	if !accessType.IsValid() {
		return nil, fmt.Errorf("%w: unknown access type %q", ErrInvalidInput, req.AccessType)
	}

	user, err := s.buildUser(ctx, req.Email, req.Password, req.FullName, "", "", domain.RoleAccountant)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserRepository(tx).Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create accountant: %w", err)
		}

		assignment := &domain.EntityAssignment{
			EntityID:     entity.ID,
			AccountantID: user.ID,
			AccessType:   accessType,
			AssignedBy:   userCtx.UserID,
		}
		if err := repository.NewAssignmentRepository(tx).Create(ctx, assignment); err != nil {
			return fmt.Errorf("failed to create assignment: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.notificationSvc.Notify(ctx, user.ID, domain.NotificationTypeEntityAssigned,
		"Entity assigned",
		fmt.Sprintf("You have been assigned to %s with %s access", entity.CompanyName, accessType),
		&entity.ID,
	)

	s.logger.Info("accountant created",
		zap.String("userID", user.ID.String()),
		zap.String("entityID", entity.ID.String()),
		zap.String("createdBy", userCtx.UserID.String()),
	)

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// AssignmentsForEntity lists an entity's assigned accountants. Admins see
// any entity; secretaries only their own.
func (s *UserService) AssignmentsForEntity(ctx context.Context, entityID uuid.UUID) ([]domain.AssignmentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	entity, err := s.entityRepo.GetByID(ctx, entityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	rel := auth.Relationship{OwnsEntity: entity.CreatedBy == userCtx.UserID}
	if !auth.Allow(userCtx, auth.PermEntityRead, rel) {
		return nil, ErrPermissionDenied
	}

	assignments, err := s.assignmentRepo.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	accountantIDs := make([]uuid.UUID, len(assignments))
	for i, a := range assignments {
		accountantIDs[i] = a.AccountantID
	}
	emails, err := s.userRepo.EmailsByIDs(ctx, accountantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve accountant emails: %w", err)
	}

	dtos := make([]domain.AssignmentDTO, len(assignments))
	for i := range assignments {
		dtos[i] = mapper.ToAssignmentDTO(&assignments[i], entity.CompanyName, emails[assignments[i].AccountantID])
	}
	return dtos, nil
}

// EntitiesForUser returns the entities a user works with: created entities
// for secretaries, assigned entities for accountants, everything for admins.
// Admins may inspect any user; others only themselves.
func (s *UserService) EntitiesForUser(ctx context.Context, userID uuid.UUID) ([]domain.EntityDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if userID != userCtx.UserID && !auth.Allow(userCtx, auth.PermManageUsers, auth.Relationship{}) {
		return nil, ErrPermissionDenied
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var entities []domain.Entity
	switch user.Role {
	case domain.RoleSuperAdmin:
		entities, err = s.entityRepo.ListAll(ctx)
	case domain.RoleCompanySecretary:
		entities, err = s.entityRepo.ListByCreator(ctx, user.ID)
	case domain.RoleAccountant:
		var assignments []domain.EntityAssignment
		assignments, err = s.assignmentRepo.ListByAccountant(ctx, user.ID)
		if err == nil {
			ids := make([]uuid.UUID, len(assignments))
			for i, a := range assignments {
				ids[i] = a.EntityID
			}
			entities, err = s.entityRepo.ListByIDs(ctx, ids)
		}
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, user.Role)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}

	dtos := make([]domain.EntityDTO, len(entities))
	for i := range entities {
		dtos[i] = mapper.ToEntityDTO(&entities[i], "")
	}
	return dtos, nil
}

// DocumentsForUser returns vault rows for everything a user uploaded,
// admin only
func (s *UserService) DocumentsForUser(ctx context.Context, userID uuid.UUID) ([]domain.VaultDocumentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !auth.Allow(userCtx, auth.PermManageUsers, auth.Relationship{}) {
		return nil, ErrPermissionDenied
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	permanent, err := s.documentRepo.ListPermanentByUploader(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permanent documents: %w", err)
	}
	periodic, err := s.documentRepo.ListPeriodicByUploader(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list periodic documents: %w", err)
	}

	entityIDs := make([]uuid.UUID, 0, len(permanent)+len(periodic))
	for _, d := range permanent {
		entityIDs = append(entityIDs, d.EntityID)
	}
	for _, d := range periodic {
		entityIDs = append(entityIDs, d.EntityID)
	}
	names, err := s.entityRepo.NamesByIDs(ctx, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entity names: %w", err)
	}

	dtos := make([]domain.VaultDocumentDTO, 0, len(permanent)+len(periodic))
	for i := range permanent {
		dtos = append(dtos, mapper.ToPermanentVaultDTO(&permanent[i], names[permanent[i].EntityID], user.Email))
	}
	for i := range periodic {
		dtos = append(dtos, mapper.ToPeriodicVaultDTO(&periodic[i], names[periodic[i].EntityID], user.Email))
	}
	return dtos, nil
}

// buildUser validates the shared account fields and returns an unsaved user
func (s *UserService) buildUser(ctx context.Context, email, password, fullName, pan, gstin string, role domain.Role) (*domain.User, error) {
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))

	exists, err := s.userRepo.ExistsByEmail(ctx, normalizedEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	panPtr, err := normalizePAN(pan)
	if err != nil {
		return nil, err
	}
	gstinPtr, err := normalizeGSTIN(gstin)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return &domain.User{
		Email:        normalizedEmail,
		PasswordHash: hash,
		Role:         role,
		FullName:     strings.TrimSpace(fullName),
		PAN:          panPtr,
		GSTIN:        gstinPtr,
		IsActive:     true,
	}, nil
}
