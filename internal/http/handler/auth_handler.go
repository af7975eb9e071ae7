package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/gmfinance/compliance-api/internal/service"
	"go.uber.org/zap"
)

// AuthHandler handles registration, login and session endpoints
type AuthHandler struct {
	authService *service.AuthService
	auditSvc    *service.AuditLogService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(
	authService *service.AuthService,
	auditSvc *service.AuditLogService,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		auditSvc:    auditSvc,
		logger:      logger,
	}
}

// Register godoc
// @Summary Register a company secretary account
// @Description Self-signup; the account is created with the company_secretary role
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.RegisterRequest true "Registration details"
// @Success 201 {object} domain.UserDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "register")
		return
	}

	h.auditSvc.Record(r.Context(), r, service.LogEntry{
		Action:       domain.ActionRegister,
		ResourceType: "user",
		ResourceID:   &user.ID,
		UserID:       user.ID.String(),
	})

	respondJSON(w, http.StatusCreated, user)
}

// Login godoc
// @Summary Authenticate and receive an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.LoginResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.auditSvc.Record(r.Context(), r, service.LogEntry{
			Action:  domain.ActionLoginFailed,
			Details: req.Email,
			UserID:  "anonymous",
		})
		respondServiceError(w, h.logger, err, "login")
		return
	}

	h.auditSvc.Record(r.Context(), r, service.LogEntry{
		Action:       domain.ActionLogin,
		ResourceType: "user",
		ResourceID:   &resp.User.ID,
		UserID:       resp.User.ID.String(),
	})

	respondJSON(w, http.StatusOK, resp)
}

// Me godoc
// @Summary Get current authenticated user
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.UserDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "me")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Logout godoc
// @Summary Record a logout
// @Description Tokens are stateless; logout exists for the audit trail
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.APIResponse
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auditSvc.Record(r.Context(), r, service.LogEntry{
		Action: domain.ActionLogout,
	})

	respondJSON(w, http.StatusOK, domain.APIResponse{
		Success: true,
		Message: "Logged out",
	})
}
