package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/gmfinance/compliance-api/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentHandler handles vault and upload endpoints
type DocumentHandler struct {
	documentService *service.DocumentService
	auditSvc        *service.AuditLogService
	maxUploadMB     int64
	logger          *zap.Logger
}

// NewDocumentHandler creates a new DocumentHandler instance
func NewDocumentHandler(
	documentService *service.DocumentService,
	auditSvc *service.AuditLogService,
	maxUploadMB int64,
	logger *zap.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		auditSvc:        auditSvc,
		maxUploadMB:     maxUploadMB,
		logger:          logger,
	}
}

// UploadPeriodic godoc
// @Summary Upload a periodic document version
// @Description Stores a new version for the (entity, financial year, period, period value, document type) key
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param entityId formData string true "Entity ID" format(uuid)
// @Param period formData string true "Period" Enums(monthly, quarterly, yearly)
// @Param periodValue formData string true "Period value, e.g. April or Q1"
// @Param documentType formData string true "Document type"
// @Param financialYear formData string false "Financial year label, defaults to the current one"
// @Param file formData file true "Document file"
// @Success 201 {object} domain.VaultDocumentDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /documents/periodic [post]
func (h *DocumentHandler) UploadPeriodic(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(h.maxUploadMB * 1024 * 1024); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
		return
	}

	entityID, err := uuid.Parse(r.FormValue("entityId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid entityId: must be a valid UUID")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return
	}
	defer file.Close()

	req := &service.PeriodicUploadRequest{
		EntityID:      entityID,
		FinancialYear: r.FormValue("financialYear"),
		Period:        domain.PeriodKind(r.FormValue("period")),
		PeriodValue:   r.FormValue("periodValue"),
		DocumentType:  r.FormValue("documentType"),
		Filename:      header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		Data:          file,
	}

	doc, err := h.documentService.UploadPeriodic(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.logger, err, "upload periodic document")
		return
	}

	h.auditSvc.Record(r.Context(), r, service.LogEntry{
		Action:       domain.ActionUploadDocument,
		ResourceType: "periodic_document",
		ResourceID:   &doc.ID,
		Details:      fmt.Sprintf("%s %s %s v%d", doc.DocumentType, doc.Period, doc.PeriodValue, doc.Version),
	})

	respondJSON(w, http.StatusCreated, doc)
}

// UploadPermanent godoc
// @Summary Upload a permanent document
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param entityId formData string true "Entity ID" format(uuid)
// @Param category formData string true "Document category"
// @Param file formData file true "Document file"
// @Success 201 {object} domain.VaultDocumentDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /documents/permanent [post]
func (h *DocumentHandler) UploadPermanent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(h.maxUploadMB * 1024 * 1024); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
		return
	}

	entityID, err := uuid.Parse(r.FormValue("entityId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid entityId: must be a valid UUID")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return
	}
	defer file.Close()

	req := &service.PermanentUploadRequest{
		EntityID:    entityID,
		Category:    r.FormValue("category"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        file,
	}

	doc, err := h.documentService.UploadPermanent(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.logger, err, "upload permanent document")
		return
	}

	h.auditSvc.Record(r.Context(), r, service.LogEntry{
		Action:       domain.ActionUploadDocument,
		ResourceType: "permanent_document",
		ResourceID:   &doc.ID,
		Details:      doc.DocumentType,
	})

	respondJSON(w, http.StatusCreated, doc)
}

// Vault godoc
// @Summary List the document vault
// @Description Union of permanent and periodic documents visible to the caller, newest first
// @Tags Documents
// @Produce json
// @Param entity_id query string false "Filter by entity" format(uuid)
// @Param financial_year query string false "Filter periodic documents by financial year"
// @Param document_type query string false "Filter by document type"
// @Success 200 {array} domain.VaultDocumentDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /documents/vault [get]
func (h *DocumentHandler) Vault(w http.ResponseWriter, r *http.Request) {
	filter := service.VaultFilter{
		FinancialYear: r.URL.Query().Get("financial_year"),
		DocumentType:  r.URL.Query().Get("document_type"),
	}
	if raw := r.URL.Query().Get("entity_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid entity_id: must be a valid UUID")
			return
		}
		filter.EntityID = &id
	}

	docs, err := h.documentService.Vault(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "list vault")
		return
	}

	respondJSON(w, http.StatusOK, docs)
}

// View godoc
// @Summary View a document inline
// @Tags Documents
// @Produce application/octet-stream
// @Param kind path string true "Document kind" Enums(permanent, periodic)
// @Param id path string true "Document ID" format(uuid)
// @Success 200
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /documents/{kind}/{id}/view [get]
func (h *DocumentHandler) View(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, false)
}

// Download godoc
// @Summary Download a document
// @Tags Documents
// @Produce application/octet-stream
// @Param kind path string true "Document kind" Enums(permanent, periodic)
// @Param id path string true "Document ID" format(uuid)
// @Success 200
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /documents/{kind}/{id}/download [get]
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, true)
}

func (h *DocumentHandler) stream(w http.ResponseWriter, r *http.Request, download bool) {
	kind, err := service.ParseDocumentKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondServiceError(w, h.logger, err, "parse document kind")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID: must be a valid UUID")
		return
	}

	stream, err := h.documentService.Open(r.Context(), kind, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "open document")
		return
	}
	defer stream.Reader.Close()

	action := domain.ActionViewDocument
	disposition := "inline"
	if download {
		action = domain.ActionDownloadDocument
		disposition = "attachment"
	}

	h.auditSvc.Record(r.Context(), r, service.LogEntry{
		Action:       action,
		ResourceType: string(kind) + "_document",
		ResourceID:   &id,
		Details:      stream.Filename,
	})

	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, stream.Filename))
	w.Header().Set("Content-Type", stream.ContentType)
	if stream.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(stream.Size, 10))
	}

	_, _ = io.Copy(w, stream.Reader)
}

// AccountantStatus godoc
// @Summary Summarize the caller's submissions per assignment
// @Description Counts of monthly, quarterly and yearly submissions for the current financial year
// @Tags Documents
// @Produce json
// @Success 200 {array} domain.PeriodStatusDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /documents/accountant-status [get]
func (h *DocumentHandler) AccountantStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.documentService.AccountantStatus(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "accountant status")
		return
	}

	respondJSON(w, http.StatusOK, statuses)
}

// Categories godoc
// @Summary List permanent-document categories
// @Tags Documents
// @Produce json
// @Success 200 {array} string
// @Security BearerAuth
// @Router /documents/categories [get]
func (h *DocumentHandler) Categories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.documentService.Categories())
}
