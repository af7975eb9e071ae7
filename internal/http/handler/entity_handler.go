package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/gmfinance/compliance-api/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EntityHandler handles entity registry endpoints
type EntityHandler struct {
	entityService *service.EntityService
	userService   *service.UserService
	auditSvc      *service.AuditLogService
	maxUploadMB   int64
	logger        *zap.Logger
}

// NewEntityHandler creates a new EntityHandler instance
func NewEntityHandler(
	entityService *service.EntityService,
	userService *service.UserService,
	auditSvc *service.AuditLogService,
	maxUploadMB int64,
	logger *zap.Logger,
) *EntityHandler {
	return &EntityHandler{
		entityService: entityService,
		userService:   userService,
		auditSvc:      auditSvc,
		maxUploadMB:   maxUploadMB,
		logger:        logger,
	}
}

// Create godoc
// @Summary Register a new entity
// @Description Creates an entity in pending_approval with its incorporation documents. files[] and categories[] are matched positionally.
// @Tags Entities
// @Accept multipart/form-data
// @Produce json
// @Param companyName formData string true "Company name"
// @Param pan formData string true "PAN"
// @Param gstin formData string true "GSTIN"
// @Param companyType formData string true "Company type"
// @Param address formData string true "Registered address"
// @Param cin formData string false "CIN"
// @Param incorporationDate formData string false "Incorporation date (YYYY-MM-DD)"
// @Param ownerName formData string false "Owner name"
// @Param files formData file false "Incorporation documents"
// @Param categories formData string false "Document categories, one per file"
// @Success 201 {object} domain.EntityDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /entities [post]
func (h *EntityHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(h.maxUploadMB * 1024 * 1024); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request too large: maximum size is %dMB", h.maxUploadMB))
		return
	}

	req := domain.CreateEntityRequest{
		CompanyName:       r.FormValue("companyName"),
		PAN:               r.FormValue("pan"),
		GSTIN:             r.FormValue("gstin"),
		CompanyType:       r.FormValue("companyType"),
		Address:           r.FormValue("address"),
		CIN:               r.FormValue("cin"),
		IncorporationDate: r.FormValue("incorporationDate"),
		OwnerName:         r.FormValue("ownerName"),
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	files := r.MultipartForm.File["files"]
	categories := r.MultipartForm.Value["categories"]
	if len(files) != len(categories) {
		respondWithError(w, http.StatusBadRequest, "files and categories must be provided in matching pairs")
		return
	}

	uploads := make([]service.PermanentUpload, 0, len(files))
	for i, header := range files {
		file, err := header.Open()
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid file upload")
			return
		}
		defer file.Close()

		uploads = append(uploads, service.PermanentUpload{
			Category:    categories[i],
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        file,
		})
	}

	entity, err := h.entityService.Create(r.Context(), &req, uploads)
	if err != nil {
		respondServiceError(w, h.logger, err, "create entity")
		return
	}

	h.auditSvc.Record(r.Context(), r, service.LogEntry{
		Action:       domain.ActionCreateEntity,
		ResourceType: "entity",
		ResourceID:   &entity.ID,
		Details:      entity.CompanyName,
	})

	respondJSON(w, http.StatusCreated, entity)
}

// List godoc
// @Summary List entities visible to the caller
// @Tags Entities
// @Produce json
// @Success 200 {array} domain.EntityDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /entities [get]
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	entities, err := h.entityService.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list entities")
		return
	}

	respondJSON(w, http.StatusOK, entities)
}

// Get godoc
// @Summary Get one entity
// @Tags Entities
// @Produce json
// @Param id path string true "Entity ID" format(uuid)
// @Success 200 {object} domain.EntityDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /entities/{id} [get]
func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid entity ID: must be a valid UUID")
		return
	}

	entity, err := h.entityService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get entity")
		return
	}

	respondJSON(w, http.StatusOK, entity)
}

// ListPending godoc
// @Summary List entities awaiting review
// @Tags Entities
// @Produce json
// @Success 200 {array} domain.EntityDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /entities/pending [get]
func (h *EntityHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	entities, err := h.entityService.ListPending(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list pending entities")
		return
	}

	respondJSON(w, http.StatusOK, entities)
}

// Approve godoc
// @Summary Approve a pending entity
// @Tags Entities
// @Accept json
// @Produce json
// @Param id path string true "Entity ID" format(uuid)
// @Param request body domain.ReviewEntityRequest false "Review remarks"
// @Success 200 {object} domain.EntityDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /entities/{id}/approve [post]
func (h *EntityHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, true)
}

// Reject godoc
// @Summary Reject a pending entity
// @Tags Entities
// @Accept json
// @Produce json
// @Param id path string true "Entity ID" format(uuid)
// @Param request body domain.ReviewEntityRequest false "Review remarks"
// @Success 200 {object} domain.EntityDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /entities/{id}/reject [post]
func (h *EntityHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, false)
}

func (h *EntityHandler) review(w http.ResponseWriter, r *http.Request, approve bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid entity ID: must be a valid UUID")
		return
	}

	// Remarks are optional; an empty body is fine
	var req domain.ReviewEntityRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := validate.Struct(&req); err != nil {
			respondValidationError(w, err)
			return
		}
	}

	var entity *domain.EntityDTO
	action := domain.ActionApproveEntity
	if approve {
		entity, err = h.entityService.Approve(r.Context(), id, req.Remarks)
	} else {
		action = domain.ActionRejectEntity
		entity, err = h.entityService.Reject(r.Context(), id, req.Remarks)
	}
	if err != nil {
		respondServiceError(w, h.logger, err, "review entity")
		return
	}

	h.auditSvc.Record(r.Context(), r, service.LogEntry{
		Action:       action,
		ResourceType: "entity",
		ResourceID:   &entity.ID,
		Details:      req.Remarks,
	})

	respondJSON(w, http.StatusOK, entity)
}

// ListAccountants godoc
// @Summary List accountants assigned to an entity
// @Tags Entities
// @Produce json
// @Param id path string true "Entity ID" format(uuid)
// @Success 200 {array} domain.AssignmentDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /entities/{id}/accountants [get]
func (h *EntityHandler) ListAccountants(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid entity ID: must be a valid UUID")
		return
	}

	assignments, err := h.userService.AssignmentsForEntity(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "list entity accountants")
		return
	}

	respondJSON(w, http.StatusOK, assignments)
}
