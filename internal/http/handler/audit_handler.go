package handler

import (
	"net/http"
	"strconv"

	"github.com/gmfinance/compliance-api/internal/auth"
	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/gmfinance/compliance-api/internal/mapper"
	"github.com/gmfinance/compliance-api/internal/repository"
	"github.com/gmfinance/compliance-api/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditHandler handles audit trail endpoints
type AuditHandler struct {
	auditService *service.AuditLogService
	userRepo     *repository.UserRepository
	logger       *zap.Logger
}

// NewAuditHandler creates a new AuditHandler instance
func NewAuditHandler(
	auditService *service.AuditLogService,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		userRepo:     userRepo,
		logger:       logger,
	}
}

// List godoc
// @Summary List audit logs
// @Description Admin view of the audit trail with filters, newest first
// @Tags Audit
// @Produce json
// @Param user_id query string false "Filter by user ID"
// @Param action query string false "Filter by action"
// @Param resource_type query string false "Filter by resource type"
// @Param days query int false "Days back (default: 30)"
// @Param limit query int false "Maximum entries (default and max: 1000)"
// @Success 200 {array} domain.AuditLogDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /audit/logs [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if !userCtx.IsSuperAdmin() {
		respondWithError(w, http.StatusForbidden, "You do not have access to this resource")
		return
	}

	params := service.AuditLogQueryParams{
		UserID:       r.URL.Query().Get("user_id"),
		ResourceType: r.URL.Query().Get("resource_type"),
		DaysBack:     parseIntQuery(r, "days", 30),
		Limit:        parseIntQuery(r, "limit", service.AdminListLimit),
	}
	if actionStr := r.URL.Query().Get("action"); actionStr != "" {
		action := domain.AuditAction(actionStr)
		params.Action = &action
	}

	logs, err := h.auditService.List(r.Context(), params)
	if err != nil {
		respondServiceError(w, h.logger, err, "list audit logs")
		return
	}

	respondJSON(w, http.StatusOK, h.toDTOs(r, logs))
}

// MyLogs godoc
// @Summary List the caller's own audit trail
// @Tags Audit
// @Produce json
// @Success 200 {array} domain.AuditLogDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /audit/my-logs [get]
func (h *AuditHandler) MyLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.auditService.GetOwn(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list own audit logs")
		return
	}

	respondJSON(w, http.StatusOK, h.toDTOs(r, logs))
}

// toDTOs converts audit rows and resolves user emails where the recorded
// user id is a real account
func (h *AuditHandler) toDTOs(r *http.Request, logs []domain.AuditLog) []domain.AuditLogDTO {
	userIDs := make([]uuid.UUID, 0, len(logs))
	for _, log := range logs {
		if id, err := uuid.Parse(log.UserID); err == nil {
			userIDs = append(userIDs, id)
		}
	}

	emails := map[uuid.UUID]string{}
	if resolved, err := h.userRepo.EmailsByIDs(r.Context(), userIDs); err == nil {
		emails = resolved
	} else {
		h.logger.Warn("failed to resolve audit user emails", zap.Error(err))
	}

	dtos := make([]domain.AuditLogDTO, len(logs))
	for i := range logs {
		email := ""
		if id, err := uuid.Parse(logs[i].UserID); err == nil {
			email = emails[id]
		}
		dtos[i] = mapper.ToAuditLogDTO(&logs[i], email)
	}
	return dtos
}

// parseIntQuery parses an integer query parameter with a default value
func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}
