package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gmfinance/compliance-api/docs"
	"github.com/gmfinance/compliance-api/internal/auth"
	"github.com/gmfinance/compliance-api/internal/config"
	"github.com/gmfinance/compliance-api/internal/database"
	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/gmfinance/compliance-api/internal/http/handler"
	"github.com/gmfinance/compliance-api/internal/http/middleware"
	"github.com/gmfinance/compliance-api/internal/http/router"
	"github.com/gmfinance/compliance-api/internal/logger"
	"github.com/gmfinance/compliance-api/internal/repository"
	"github.com/gmfinance/compliance-api/internal/service"
	"github.com/gmfinance/compliance-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// @title GM Finance Compliance API
// @version 1.0
// @description Document management and compliance tracking API for company secretarial practice

// @contact.name API Support
// @contact.email support@gmfinance.in

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	if basicCfg.App.Environment == "development" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Development convenience; staging/production use goose migrations
	if cfg.App.Environment == "development" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Initialize storage
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	entityRepo := repository.NewEntityRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	// Ensure the bootstrap super admin account exists
	if err := seedDefaultAdmin(ctx, userRepo, &cfg.Auth, log); err != nil {
		return fmt.Errorf("failed to seed default admin: %w", err)
	}

	// Initialize services
	tokenManager := auth.NewTokenManager(&cfg.Auth)
	auditLogService := service.NewAuditLogService(auditLogRepo, log)
	notificationService := service.NewNotificationService(notificationRepo, log)
	authService := service.NewAuthService(userRepo, tokenManager, log)
	userService := service.NewUserService(db, userRepo, entityRepo, assignmentRepo, documentRepo, notificationService, log)
	entityService := service.NewEntityService(db, entityRepo, userRepo, assignmentRepo, documentRepo, notificationService, fileStorage, log)
	documentService := service.NewDocumentService(db, entityRepo, userRepo, assignmentRepo, documentRepo, notificationService, fileStorage, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(tokenManager, userRepo, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, auditLogService, log)
	entityHandler := handler.NewEntityHandler(entityService, userService, auditLogService, cfg.Storage.MaxUploadSizeMB, log)
	documentHandler := handler.NewDocumentHandler(documentService, auditLogService, cfg.Storage.MaxUploadSizeMB, log)
	userHandler := handler.NewUserHandler(userService, auditLogService, log)
	notificationHandler := handler.NewNotificationHandler(notificationService, log)
	auditHandler := handler.NewAuditHandler(auditLogService, userRepo, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		authHandler,
		entityHandler,
		documentHandler,
		userHandler,
		notificationHandler,
		auditHandler,
	)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}

// seedDefaultAdmin creates the configured super admin account on first boot.
// Runs on every startup; a no-op when the account already exists.
func seedDefaultAdmin(ctx context.Context, userRepo *repository.UserRepository, cfg *config.AuthConfig, log *zap.Logger) error {
	if cfg.DefaultAdminEmail == "" || cfg.DefaultAdminPassword == "" {
		log.Warn("Default admin not configured, skipping seed")
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, cfg.DefaultAdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(cfg.DefaultAdminPassword)
	if err != nil {
		return err
	}

	admin := &domain.User{
		Email:        cfg.DefaultAdminEmail,
		PasswordHash: hash,
		Role:         domain.RoleSuperAdmin,
		FullName:     "System Administrator",
		IsActive:     true,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		return err
	}

	log.Info("Default super admin created", zap.String("email", cfg.DefaultAdminEmail))
	return nil
}
