package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/gmfinance/compliance-api/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserHandler handles user administration and assignment endpoints
type UserHandler struct {
	userService *service.UserService
	auditSvc    *service.AuditLogService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(
	userService *service.UserService,
	auditSvc *service.AuditLogService,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{
		userService: userService,
		auditSvc:    auditSvc,
		logger:      logger,
	}
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param role query string false "Filter by role" Enums(super_admin, company_secretary, accountant)
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 100)" default(50)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.UserDTO}
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	role := r.URL.Query().Get("role")

	result, err := h.userService.List(r.Context(), role, page, pageSize)
	if err != nil {
		respondServiceError(w, h.logger, err, "list users")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create a user with an explicit role
// @Tags Users
// @Accept json
// @Produce json
// @Param request body domain.CreateUserRequest true "User details"
// @Success 201 {object} domain.UserDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	user, err := h.userService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create user")
		return
	}

	h.auditSvc.Record(r.Context(), r, service.LogEntry{
		Action:       domain.ActionCreateUser,
		ResourceType: "user",
		ResourceID:   &user.ID,
		Details:      string(user.Role),
	})

	respondJSON(w, http.StatusCreated, user)
}

// ToggleActive godoc
// @Summary Enable or disable a user account
// @Description Flips the account's active flag; admins cannot deactivate themselves
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Success 200 {object} domain.UserDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /users/{id}/toggle-active [patch]
func (h *UserHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID: must be a valid UUID")
		return
	}

	var body struct {
		IsActive *bool `json:"isActive"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if body.IsActive == nil {
		respondWithError(w, http.StatusBadRequest, "isActive is required")
		return
	}

	user, err := h.userService.SetActive(r.Context(), id, *body.IsActive)
	if err != nil {
		respondServiceError(w, h.logger, err, "toggle user active")
		return
	}

	h.auditSvc.Record(r.Context(), r, service.LogEntry{
		Action:       domain.ActionToggleUserActive,
		ResourceType: "user",
		ResourceID:   &user.ID,
		Details:      strconv.FormatBool(user.IsActive),
	})

	respondJSON(w, http.StatusOK, user)
}

// AssignEntity godoc
// @Summary Assign an accountant to an entity
// @Tags Users
// @Accept json
// @Produce json
// @Param request body domain.AssignEntityRequest true "Assignment details"
// @Success 201 {object} domain.AssignmentDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /users/assign-entity [post]
func (h *UserHandler) AssignEntity(w http.ResponseWriter, r *http.Request) {
	var req domain.AssignEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	assignment, err := h.userService.Assign(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "assign entity")
		return
	}

	h.auditSvc.Record(r.Context(), r, service.LogEntry{
		Action:       domain.ActionAssignEntity,
		ResourceType: "entity_assignment",
		ResourceID:   &assignment.ID,
		Details:      string(assignment.AccessType),
	})

	respondJSON(w, http.StatusCreated, assignment)
}

// Unassign godoc
// @Summary Remove an entity assignment
// @Tags Users
// @Produce json
// @Param id path string true "Assignment ID" format(uuid)
// @Success 204 "No Content"
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /users/assignments/{id} [delete]
func (h *UserHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid assignment ID: must be a valid UUID")
		return
	}

	if err := h.userService.Unassign(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "unassign entity")
		return
	}

	h.auditSvc.Record(r.Context(), r, service.LogEntry{
		Action:       domain.ActionUnassignEntity,
		ResourceType: "entity_assignment",
		ResourceID:   &id,
	})

	w.WriteHeader(http.StatusNoContent)
}

// CreateAccountant godoc
// @Summary Create an accountant and assign it to an entity
// @Description One transaction creates the account and the assignment; secretaries may only target entities they created
// @Tags Users
// @Accept json
// @Produce json
// @Param request body domain.CreateAccountantRequest true "Accountant details"
// @Success 201 {object} domain.UserDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /users/create-accountant [post]
func (h *UserHandler) CreateAccountant(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAccountantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	user, err := h.userService.CreateAccountant(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create accountant")
		return
	}

	h.auditSvc.Record(r.Context(), r, service.LogEntry{
		Action:       domain.ActionCreateUser,
		ResourceType: "user",
		ResourceID:   &user.ID,
		Details:      string(domain.RoleAccountant),
	})

	respondJSON(w, http.StatusCreated, user)
}

// Entities godoc
// @Summary List the entities a user works with
// @Tags Users
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Success 200 {array} domain.EntityDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /users/{id}/entities [get]
func (h *UserHandler) Entities(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID: must be a valid UUID")
		return
	}

	entities, err := h.userService.EntitiesForUser(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "list user entities")
		return
	}

	respondJSON(w, http.StatusOK, entities)
}

// Documents godoc
// @Summary List everything a user uploaded
// @Tags Users
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Success 200 {array} domain.VaultDocumentDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /users/{id}/documents [get]
func (h *UserHandler) Documents(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID: must be a valid UUID")
		return
	}

	docs, err := h.userService.DocumentsForUser(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "list user documents")
		return
	}

	respondJSON(w, http.StatusOK, docs)
}
