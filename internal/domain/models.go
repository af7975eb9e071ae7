package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns a client-side UUID when none is set
func (b *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Role is the closed set of user roles
type Role string

const (
	RoleSuperAdmin       Role = "super_admin"
	RoleCompanySecretary Role = "company_secretary"
	RoleAccountant       Role = "accountant"
)

// IsValid checks if the role is one of the known values
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleCompanySecretary, RoleAccountant:
		return true
	}
	return false
}

// EntityStatus represents the approval lifecycle state of an entity
type EntityStatus string

const (
	EntityStatusPendingApproval EntityStatus = "pending_approval"
	EntityStatusActive          EntityStatus = "active"
	EntityStatusRejected        EntityStatus = "rejected"
)

// IsValid checks if the entity status is one of the known values
func (s EntityStatus) IsValid() bool {
	switch s {
	case EntityStatusPendingApproval, EntityStatusActive, EntityStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further approval transition is legal
func (s EntityStatus) IsTerminal() bool {
	return s == EntityStatusActive || s == EntityStatusRejected
}

// PeriodKind represents the recurrence of a periodic document
type PeriodKind string

const (
	PeriodMonthly   PeriodKind = "monthly"
	PeriodQuarterly PeriodKind = "quarterly"
	PeriodYearly    PeriodKind = "yearly"
)

// IsValid checks if the period kind is one of the known values
func (p PeriodKind) IsValid() bool {
	switch p {
	case PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	}
	return false
}

// AccessType scopes an assignment to the period kinds the accountant may submit
type AccessType string

const (
	AccessMonthly   AccessType = "monthly"
	AccessQuarterly AccessType = "quarterly"
	AccessYearly    AccessType = "yearly"
	AccessAll       AccessType = "all"
)

// IsValid checks if the access type is one of the known values
func (a AccessType) IsValid() bool {
	switch a {
	case AccessMonthly, AccessQuarterly, AccessYearly, AccessAll:
		return true
	}
	return false
}

// Covers reports whether the access type permits submitting the given period kind
func (a AccessType) Covers(p PeriodKind) bool {
	return a == AccessAll || string(a) == string(p)
}

// NotificationType categorizes notifications
type NotificationType string

const (
	NotificationTypeEntityPending    NotificationType = "entity_pending"
	NotificationTypeEntityApproved   NotificationType = "entity_approved"
	NotificationTypeEntityRejected   NotificationType = "entity_rejected"
	NotificationTypeDocumentUploaded NotificationType = "document_uploaded"
	NotificationTypeEntityAssigned   NotificationType = "entity_assigned"
	NotificationTypeSecurityAlert    NotificationType = "security_alert"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	ActionLogin            AuditAction = "login"
	ActionLoginFailed      AuditAction = "login_failed"
	ActionLogout           AuditAction = "logout"
	ActionRegister         AuditAction = "register"
	ActionCreateEntity     AuditAction = "create_entity"
	ActionApproveEntity    AuditAction = "approve_entity"
	ActionRejectEntity     AuditAction = "reject_entity"
	ActionUploadDocument   AuditAction = "upload_document"
	ActionViewDocument     AuditAction = "view_document"
	ActionDownloadDocument AuditAction = "download_document"
	ActionCreateUser       AuditAction = "create_user"
	ActionToggleUserActive AuditAction = "toggle_user_active"
	ActionAssignEntity     AuditAction = "assign_entity"
	ActionUnassignEntity   AuditAction = "unassign_entity"
)

// User is an account in the identity store. Secretaries own entities and
// accountants hold assignments; both are resolved through explicit
// repository queries rather than preloaded associations.
type User struct {
	BaseModel
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string     `gorm:"type:varchar(255);not null;column:password_hash"`
	Role         Role       `gorm:"type:varchar(50);not null;index"`
	FullName     string     `gorm:"type:varchar(200);column:full_name"`
	PAN          *string    `gorm:"type:varchar(10);uniqueIndex;column:pan"`
	GSTIN        *string    `gorm:"type:varchar(15);uniqueIndex;column:gstin"`
	IsActive     bool       `gorm:"not null;default:true;column:is_active"`
	LastLogin    *time.Time `gorm:"column:last_login"`
}

// Entity represents a registered company tracked by the system
type Entity struct {
	BaseModel
	CompanyName       string       `gorm:"type:varchar(200);not null;index;column:company_name"`
	PAN               string       `gorm:"type:varchar(10);uniqueIndex;not null;column:pan"`
	GSTIN             string       `gorm:"type:varchar(15);uniqueIndex;not null;column:gstin"`
	CompanyType       string       `gorm:"type:varchar(100);not null;column:company_type"`
	Address           string       `gorm:"type:varchar(500);not null"`
	CIN               *string      `gorm:"type:varchar(21);column:cin"`
	IncorporationDate *time.Time   `gorm:"column:incorporation_date"`
	FYStart           *time.Time   `gorm:"column:fy_start"`
	FYEnd             *time.Time   `gorm:"column:fy_end"`
	OwnerName         string       `gorm:"type:varchar(200);column:owner_name"`
	Status            EntityStatus `gorm:"type:varchar(50);not null;default:'pending_approval';index"`
	CreatedBy         uuid.UUID    `gorm:"type:uuid;not null;index;column:created_by"`
	ApprovedBy        *uuid.UUID   `gorm:"type:uuid;column:approved_by"`
	ApprovedAt        *time.Time   `gorm:"column:approved_at"`
	AdminRemarks      string       `gorm:"type:varchar(1000);column:admin_remarks"`
}

// PermanentDocument is a one-time company document, immutable once created
type PermanentDocument struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	EntityID     uuid.UUID `gorm:"type:uuid;not null;index;column:entity_id"`
	DocumentType string    `gorm:"type:varchar(100);not null;column:document_type"`
	StoragePath  string    `gorm:"type:varchar(500);uniqueIndex;not null;column:storage_path"`
	Filename     string    `gorm:"type:varchar(255);not null"`
	Size         int64     `gorm:"not null"`
	UploadedBy   uuid.UUID `gorm:"type:uuid;not null;index;column:uploaded_by"`
	UploadedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index;column:uploaded_at"`
}

func (d *PermanentDocument) BeforeCreate(_ *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// PeriodicDocument is a recurring compliance document. Versions sharing the
// (entity, financial year, period, period value, document type) key form a
// gapless sequence starting at 1; a new upload never overwrites prior versions.
type PeriodicDocument struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key"`
	EntityID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_periodic_version_key;column:entity_id"`
	FinancialYear string     `gorm:"type:varchar(20);not null;uniqueIndex:idx_periodic_version_key;column:financial_year"`
	Period        PeriodKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_periodic_version_key"`
	PeriodValue   string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_periodic_version_key;column:period_value"`
	DocumentType  string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_periodic_version_key;column:document_type"`
	StoragePath   string     `gorm:"type:varchar(500);uniqueIndex;not null;column:storage_path"`
	Filename      string     `gorm:"type:varchar(255);not null"`
	Size          int64      `gorm:"not null"`
	Version       int        `gorm:"not null;default:1;uniqueIndex:idx_periodic_version_key"`
	UploadedBy    uuid.UUID  `gorm:"type:uuid;not null;index;column:uploaded_by"`
	UploadedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP;index;column:uploaded_at"`
}

func (d *PeriodicDocument) BeforeCreate(_ *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// EntityAssignment grants an accountant scoped access to an entity.
// At most one assignment exists per (entity, accountant) pair.
type EntityAssignment struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key"`
	EntityID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_entity_accountant;column:entity_id"`
	AccountantID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_entity_accountant;column:accountant_id"`
	AccessType   AccessType `gorm:"type:varchar(20);not null;default:'all';column:access_type"`
	AssignedBy   uuid.UUID  `gorm:"type:uuid;not null;column:assigned_by"`
	AssignedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP;column:assigned_at"`
}

func (a *EntityAssignment) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Notification represents a user-directed message
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index;column:user_id"`
	Type      NotificationType `gorm:"type:varchar(50);not null"`
	Title     string           `gorm:"type:varchar(200);not null"`
	Message   string           `gorm:"type:varchar(1000);not null"`
	Read      bool             `gorm:"not null;default:false;index"`
	ReadAt    *time.Time       `gorm:"column:read_at"`
	EntityID  *uuid.UUID       `gorm:"type:uuid;column:entity_id"`
	CreatedAt time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// AuditLog is an append-only record of a user action. Rows are never
// updated or deleted.
type AuditLog struct {
	ID           uuid.UUID   `gorm:"type:uuid;primary_key"`
	UserID       string      `gorm:"type:varchar(100);index;column:user_id"`
	Action       AuditAction `gorm:"type:varchar(100);not null;index"`
	ResourceType string      `gorm:"type:varchar(100);index;column:resource_type"`
	ResourceID   *uuid.UUID  `gorm:"type:uuid;column:resource_id"`
	IPAddress    string      `gorm:"type:varchar(45);column:ip_address"`
	UserAgent    string      `gorm:"type:varchar(500);column:user_agent"`
	Details      string      `gorm:"type:text"`
	CreatedAt    time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

func (l *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// DocumentCategories is the static catalog of permanent-document categories
var DocumentCategories = []string{
	"Identity & Legal",
	"Incorporation Documents",
	"Registration Certificates",
	"Tax Documents",
	"Bank Documents",
	"Licenses & Permits",
	"Property Documents",
	"Agreements & Contracts",
	"Board Resolutions",
	"Statutory Registers",
	"Annual Filings",
	"Financial Statements",
	"Insurance Documents",
	"Audit Documents",
}
