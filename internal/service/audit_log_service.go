package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gmfinance/compliance-api/internal/auth"
	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/gmfinance/compliance-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditLogService handles audit logging operations
type AuditLogService struct {
	auditRepo *repository.AuditLogRepository
	logger    *zap.Logger
}

// NewAuditLogService creates a new audit log service
func NewAuditLogService(auditRepo *repository.AuditLogRepository, logger *zap.Logger) *AuditLogService {
	return &AuditLogService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// LogEntry represents the input for creating an audit log entry
type LogEntry struct {
	Action       domain.AuditAction
	ResourceType string
	ResourceID   *uuid.UUID
	Details      string
	// UserID overrides the context user, for events like failed logins
	// where no authenticated caller exists
	UserID string
}

// Record writes an audit entry outside the primary transaction. Failures
// are logged and swallowed so that audit problems never abort the
// operation they describe. The write is synchronous, after the primary
// commit, which preserves ordering relative to the audited operation.
func (s *AuditLogService) Record(ctx context.Context, r *http.Request, entry LogEntry) {
	auditLog := s.build(ctx, r, entry)

	// Detach from the request deadline so a cancelled request does not
	// drop the trail for work that already committed.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.auditRepo.Create(writeCtx, auditLog); err != nil {
		s.logger.Error("failed to write audit log",
			zap.String("action", string(entry.Action)),
			zap.String("resource_type", entry.ResourceType),
			zap.Error(err))
	}
}

func (s *AuditLogService) build(ctx context.Context, r *http.Request, entry LogEntry) *domain.AuditLog {
	auditLog := &domain.AuditLog{
		UserID:       entry.UserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Details:      entry.Details,
		CreatedAt:    time.Now(),
	}

	if auditLog.UserID == "" {
		if userCtx, ok := auth.FromContext(ctx); ok && userCtx != nil {
			auditLog.UserID = userCtx.UserID.String()
		}
	}

	if r != nil {
		auditLog.IPAddress = s.getClientIP(r)
		auditLog.UserAgent = r.UserAgent()
	}

	return auditLog
}

// AuditLogQueryParams represents query parameters for listing audit logs
type AuditLogQueryParams struct {
	UserID       string
	Action       *domain.AuditAction
	ResourceType string
	DaysBack     int
	Limit        int
}

// AdminListLimit caps the admin audit query result size
const AdminListLimit = 1000

// SelfListLimit caps the self-service audit query result size
const SelfListLimit = 100

// List retrieves audit logs with filters, newest first
func (s *AuditLogService) List(ctx context.Context, params AuditLogQueryParams) ([]domain.AuditLog, error) {
	days := params.DaysBack
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	limit := params.Limit
	if limit <= 0 || limit > AdminListLimit {
		limit = AdminListLimit
	}

	filter := &repository.AuditLogFilter{
		UserID:       params.UserID,
		Action:       params.Action,
		ResourceType: params.ResourceType,
		StartTime:    &since,
	}

	return s.auditRepo.List(ctx, filter, limit)
}

// GetOwn retrieves the calling user's own audit trail
func (s *AuditLogService) GetOwn(ctx context.Context) ([]domain.AuditLog, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	return s.auditRepo.ListByUser(ctx, userCtx.UserID.String(), SelfListLimit)
}

// getClientIP extracts the client IP from the request
func (s *AuditLogService) getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr (remove port)
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
