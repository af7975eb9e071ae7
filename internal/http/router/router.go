package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gmfinance/compliance-api/internal/auth"
	"github.com/gmfinance/compliance-api/internal/config"
	"github.com/gmfinance/compliance-api/internal/database"
	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/gmfinance/compliance-api/internal/http/handler"
	"github.com/gmfinance/compliance-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/gmfinance/compliance-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                 *config.Config
	logger              *zap.Logger
	db                  *gorm.DB
	authMiddleware      *auth.Middleware
	rateLimiter         *middleware.RateLimiter
	authHandler         *handler.AuthHandler
	entityHandler       *handler.EntityHandler
	documentHandler     *handler.DocumentHandler
	userHandler         *handler.UserHandler
	notificationHandler *handler.NotificationHandler
	auditHandler        *handler.AuditHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	entityHandler *handler.EntityHandler,
	documentHandler *handler.DocumentHandler,
	userHandler *handler.UserHandler,
	notificationHandler *handler.NotificationHandler,
	auditHandler *handler.AuditHandler,
) *Router {
	return &Router{
		cfg:                 cfg,
		logger:              logger,
		db:                  db,
		authMiddleware:      authMiddleware,
		rateLimiter:         rateLimiter,
		authHandler:         authHandler,
		entityHandler:       entityHandler,
		documentHandler:     documentHandler,
		userHandler:         userHandler,
		notificationHandler: notificationHandler,
		auditHandler:        auditHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats":   stats,
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		status := "healthy"
		code := http.StatusOK
		if !allHealthy {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"checks": checks,
		})
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Post("/auth/register", rt.authHandler.Register)
		r.Post("/auth/login", rt.authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Auth
			r.Get("/auth/me", rt.authHandler.Me)
			r.Post("/auth/logout", rt.authHandler.Logout)

			// Entities
			r.Route("/entities", func(r chi.Router) {
				r.Get("/", rt.entityHandler.List)
				r.Post("/", rt.entityHandler.Create)
				r.With(rt.authMiddleware.RequireAdmin).Get("/pending", rt.entityHandler.ListPending)
				r.Get("/{id}", rt.entityHandler.Get)
				r.With(rt.authMiddleware.RequireAdmin).Post("/{id}/approve", rt.entityHandler.Approve)
				r.With(rt.authMiddleware.RequireAdmin).Post("/{id}/reject", rt.entityHandler.Reject)
				r.Get("/{id}/accountants", rt.entityHandler.ListAccountants)
			})

			// Documents
			r.Route("/documents", func(r chi.Router) {
				r.Post("/periodic", rt.documentHandler.UploadPeriodic)
				r.Post("/permanent", rt.documentHandler.UploadPermanent)
				r.Get("/vault", rt.documentHandler.Vault)
				r.Get("/categories", rt.documentHandler.Categories)
				r.With(rt.authMiddleware.RequireRole(domain.RoleAccountant)).
					Get("/accountant-status", rt.documentHandler.AccountantStatus)
				r.Get("/{kind}/{id}/view", rt.documentHandler.View)
				r.Get("/{kind}/{id}/download", rt.documentHandler.Download)
			})

			// Users & assignments
			r.Route("/users", func(r chi.Router) {
				r.With(rt.authMiddleware.RequireAdmin).Get("/", rt.userHandler.List)
				r.With(rt.authMiddleware.RequireAdmin).Post("/", rt.userHandler.Create)
				r.With(rt.authMiddleware.RequireAdmin).Patch("/{id}/toggle-active", rt.userHandler.ToggleActive)
				r.With(rt.authMiddleware.RequireAdmin).Post("/assign-entity", rt.userHandler.AssignEntity)
				r.With(rt.authMiddleware.RequireAdmin).Delete("/assignments/{id}", rt.userHandler.Unassign)
				r.Post("/create-accountant", rt.userHandler.CreateAccountant)
				r.Get("/{id}/entities", rt.userHandler.Entities)
				r.With(rt.authMiddleware.RequireAdmin).Get("/{id}/documents", rt.userHandler.Documents)
			})

			// Notifications
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", rt.notificationHandler.List)
				r.Get("/unread-count", rt.notificationHandler.GetUnreadCount)
				r.Patch("/read-all", rt.notificationHandler.MarkAllAsRead)
				r.Patch("/{id}/read", rt.notificationHandler.MarkAsRead)
			})

			// Audit trail
			r.Route("/audit", func(r chi.Router) {
				r.With(rt.authMiddleware.RequireAdmin).Get("/logs", rt.auditHandler.List)
				r.Get("/my-logs", rt.auditHandler.MyLogs)
			})
		})
	})

	return r
}
