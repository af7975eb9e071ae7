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
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService handles registration, login and identity lookups
type AuthService struct {
	userRepo *repository.UserRepository
	tokens   *auth.TokenManager
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService instance
func NewAuthService(
	userRepo *repository.UserRepository,
	tokens *auth.TokenManager,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register creates a company secretary account. Self-registration is
// limited to the secretary role; admins and accountants are provisioned
// through the user management endpoints.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	pan, err := normalizePAN(req.PAN)
	if err != nil {
		return nil, err
	}
	gstin, err := normalizeGSTIN(req.GSTIN)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleCompanySecretary,
		FullName:     strings.TrimSpace(req.FullName),
		PAN:          pan,
		GSTIN:        gstin,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered",
		zap.String("userID", user.ID.String()),
		zap.String("role", string(user.Role)),
	)

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// Login verifies credentials and issues an access token. The same error is
// returned for an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if err := s.userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to update last login",
			zap.String("userID", user.ID.String()),
			zap.Error(err),
		)
	}

	return &domain.LoginResponse{
		Token: token,
		User:  mapper.ToUserDTO(user),
	}, nil
}

// Me returns the current user's profile from the store
func (s *AuthService) Me(ctx context.Context) (*domain.UserDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(ctx, userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// normalizePAN uppercases and validates an optional PAN, returning nil for blank input
func normalizePAN(raw string) (*string, error) {
	pan := strings.ToUpper(strings.TrimSpace(raw))
	if pan == "" {
		return nil, nil
	}
	if !domain.ValidPAN(pan) {
		return nil, fmt.Errorf("%w: invalid PAN format", ErrInvalidInput)
	}
	return &pan, nil
}

// normalizeGSTIN uppercases and validates an optional GSTIN, returning nil for blank input
func normalizeGSTIN(raw string) (*string, error) {
	gstin := strings.ToUpper(strings.TrimSpace(raw))
	if gstin == "" {
		return nil, nil
	}
	if !domain.ValidGSTIN(gstin) {
		return nil, fmt.Errorf("%w: invalid GSTIN format", ErrInvalidInput)
	}
	return &gstin, nil
}
