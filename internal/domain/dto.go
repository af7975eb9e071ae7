package domain

import (
	"github.com/google/uuid"
)

// DTOs for API responses

type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName,omitempty"`
	Role      Role      `json:"role"`
	PAN       string    `json:"pan,omitempty"`
	GSTIN     string    `json:"gstin,omitempty"`
	IsActive  bool      `json:"isActive"`
	LastLogin *string   `json:"lastLogin,omitempty"` // ISO 8601
	CreatedAt string    `json:"createdAt"`           // ISO 8601
}

type EntityDTO struct {
	ID                uuid.UUID    `json:"id"`
	CompanyName       string       `json:"companyName"`
	PAN               string       `json:"pan"`
	GSTIN             string       `json:"gstin"`
	CompanyType       string       `json:"companyType"`
	Address           string       `json:"address"`
	CIN               string       `json:"cin,omitempty"`
	IncorporationDate *string      `json:"incorporationDate,omitempty"`
	OwnerName         string       `json:"ownerName,omitempty"`
	Status            EntityStatus `json:"status"`
	CreatedBy         uuid.UUID    `json:"createdBy"`
	CreatedByEmail    string       `json:"createdByEmail,omitempty"`
	ApprovedBy        *uuid.UUID   `json:"approvedBy,omitempty"`
	ApprovedAt        *string      `json:"approvedAt,omitempty"`
	AdminRemarks      string       `json:"adminRemarks,omitempty"`
	CreatedAt         string       `json:"createdAt"`
	UpdatedAt         string       `json:"updatedAt"`
}

// VaultDocumentDTO is a single row in the vault listing. Permanent documents
// are presented with period "permanent" and version 1.
type VaultDocumentDTO struct {
	ID              uuid.UUID `json:"id"`
	EntityID        uuid.UUID `json:"entityId"`
	EntityName      string    `json:"entityName"`
	DocumentType    string    `json:"documentType"`
	Filename        string    `json:"filename"`
	Size            int64     `json:"size"`
	Period          string    `json:"period"`
	PeriodValue     string    `json:"periodValue,omitempty"`
	FinancialYear   string    `json:"financialYear,omitempty"`
	Version         int       `json:"version"`
	UploadedBy      uuid.UUID `json:"uploadedBy"`
	UploadedByEmail string    `json:"uploadedByEmail,omitempty"`
	UploadedAt      string    `json:"uploadedAt"` // ISO 8601
}

type AssignmentDTO struct {
	ID              uuid.UUID  `json:"id"`
	EntityID        uuid.UUID  `json:"entityId"`
	EntityName      string     `json:"entityName,omitempty"`
	AccountantID    uuid.UUID  `json:"accountantId"`
	AccountantEmail string     `json:"accountantEmail,omitempty"`
	AccessType      AccessType `json:"accessType"`
	AssignedBy      uuid.UUID  `json:"assignedBy"`
	AssignedAt      string     `json:"assignedAt"` // ISO 8601
}

type NotificationDTO struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Read      bool       `json:"read"`
	ReadAt    *string    `json:"readAt,omitempty"`
	EntityID  *uuid.UUID `json:"entityId,omitempty"`
	CreatedAt string     `json:"createdAt"` // ISO 8601
}

// UnreadCountDTO represents the count of unread notifications
type UnreadCountDTO struct {
	Count int64 `json:"count"`
}

type AuditLogDTO struct {
	ID           uuid.UUID   `json:"id"`
	UserID       string      `json:"userId,omitempty"`
	UserEmail    string      `json:"userEmail,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resourceType,omitempty"`
	ResourceID   *uuid.UUID  `json:"resourceId,omitempty"`
	IPAddress    string      `json:"ipAddress,omitempty"`
	UserAgent    string      `json:"userAgent,omitempty"`
	Details      string      `json:"details,omitempty"`
	CreatedAt    string      `json:"createdAt"` // ISO 8601
}

// PeriodStatusDTO summarizes one assignment's submissions for the current
// financial year
type PeriodStatusDTO struct {
	EntityID       uuid.UUID  `json:"entityId"`
	EntityName     string     `json:"entityName"`
	AccessType     AccessType `json:"accessType"`
	FinancialYear  string     `json:"financialYear"`
	MonthlyCount   int64      `json:"monthlyCount"`
	QuarterlyCount int64      `json:"quarterlyCount"`
	YearlyCount    int64      `json:"yearlyCount"`
	LastSubmission *string    `json:"lastSubmission,omitempty"` // ISO 8601
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// Pagination response wrapper
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// API Response wrapper
type APIResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
}

// Request DTOs

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	FullName string `json:"fullName,omitempty" validate:"max=200"`
	PAN      string `json:"pan,omitempty" validate:"omitempty,len=10"`
	GSTIN    string `json:"gstin,omitempty" validate:"omitempty,len=15"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	FullName string `json:"fullName,omitempty" validate:"max=200"`
	Role     string `json:"role" validate:"required,oneof=super_admin company_secretary accountant"`
	PAN      string `json:"pan,omitempty" validate:"omitempty,len=10"`
	GSTIN    string `json:"gstin,omitempty" validate:"omitempty,len=15"`
}

type CreateEntityRequest struct {
	CompanyName       string `json:"companyName" validate:"required,max=200"`
	PAN               string `json:"pan" validate:"required,len=10"`
	GSTIN             string `json:"gstin" validate:"required,len=15"`
	CompanyType       string `json:"companyType" validate:"required,max=100"`
	Address           string `json:"address" validate:"required,max=500"`
	CIN               string `json:"cin,omitempty" validate:"omitempty,len=21"`
	IncorporationDate string `json:"incorporationDate,omitempty"`
	OwnerName         string `json:"ownerName,omitempty" validate:"max=200"`
}

type ReviewEntityRequest struct {
	Remarks string `json:"remarks,omitempty" validate:"max=1000"`
}

type AssignEntityRequest struct {
	EntityID     uuid.UUID `json:"entityId" validate:"required"`
	AccountantID uuid.UUID `json:"accountantId" validate:"required"`
	AccessType   string    `json:"accessType,omitempty" validate:"omitempty,oneof=monthly quarterly yearly all"`
}

type CreateAccountantRequest struct {
	Email      string    `json:"email" validate:"required,email,max=255"`
	Password   string    `json:"password" validate:"required,min=8,max=128"`
	FullName   string    `json:"fullName,omitempty" validate:"max=200"`
	EntityID   uuid.UUID `json:"entityId" validate:"required"`
	AccessType string    `json:"accessType,omitempty" validate:"omitempty,oneof=monthly quarterly yearly all"`
}
