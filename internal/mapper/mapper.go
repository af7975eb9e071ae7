package mapper

import (
	"time"

	"github.com/gmfinance/compliance-api/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeLayout)
	return &s
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	dto := domain.UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		IsActive:  user.IsActive,
		LastLogin: formatTimePtr(user.LastLogin),
		CreatedAt: user.CreatedAt.Format(timeLayout),
	}

	if user.PAN != nil {
		dto.PAN = *user.PAN
	}
	if user.GSTIN != nil {
		dto.GSTIN = *user.GSTIN
	}

	return dto
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []domain.User) []domain.UserDTO {
	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = ToUserDTO(&users[i])
	}
	return dtos
}

// ToEntityDTO converts Entity to EntityDTO. creatorEmail may be empty when
// the caller has not resolved it.
func ToEntityDTO(entity *domain.Entity, creatorEmail string) domain.EntityDTO {
	dto := domain.EntityDTO{
		ID:             entity.ID,
		CompanyName:    entity.CompanyName,
		PAN:            entity.PAN,
		GSTIN:          entity.GSTIN,
		CompanyType:    entity.CompanyType,
		Address:        entity.Address,
		OwnerName:      entity.OwnerName,
		Status:         entity.Status,
		CreatedBy:      entity.CreatedBy,
		CreatedByEmail: creatorEmail,
		ApprovedBy:     entity.ApprovedBy,
		ApprovedAt:     formatTimePtr(entity.ApprovedAt),
		AdminRemarks:   entity.AdminRemarks,
		CreatedAt:      entity.CreatedAt.Format(timeLayout),
		UpdatedAt:      entity.UpdatedAt.Format(timeLayout),
	}

	if entity.CIN != nil {
		dto.CIN = *entity.CIN
	}
	if entity.IncorporationDate != nil {
		s := entity.IncorporationDate.Format("2006-01-02")
		dto.IncorporationDate = &s
	}

	return dto
}

// ToPermanentVaultDTO presents a permanent document as a vault row.
// Permanent documents have no recurrence, so period is fixed and the
// version is always 1.
func ToPermanentVaultDTO(doc *domain.PermanentDocument, entityName, uploaderEmail string) domain.VaultDocumentDTO {
	return domain.VaultDocumentDTO{
		ID:              doc.ID,
		EntityID:        doc.EntityID,
		EntityName:      entityName,
		DocumentType:    doc.DocumentType,
		Filename:        doc.Filename,
		Size:            doc.Size,
		Period:          "permanent",
		Version:         1,
		UploadedBy:      doc.UploadedBy,
		UploadedByEmail: uploaderEmail,
		UploadedAt:      doc.UploadedAt.Format(timeLayout),
	}
}

// ToPeriodicVaultDTO presents a periodic document as a vault row
func ToPeriodicVaultDTO(doc *domain.PeriodicDocument, entityName, uploaderEmail string) domain.VaultDocumentDTO {
	return domain.VaultDocumentDTO{
		ID:              doc.ID,
		EntityID:        doc.EntityID,
		EntityName:      entityName,
		DocumentType:    doc.DocumentType,
		Filename:        doc.Filename,
		Size:            doc.Size,
		Period:          string(doc.Period),
		PeriodValue:     doc.PeriodValue,
		FinancialYear:   doc.FinancialYear,
		Version:         doc.Version,
		UploadedBy:      doc.UploadedBy,
		UploadedByEmail: uploaderEmail,
		UploadedAt:      doc.UploadedAt.Format(timeLayout),
	}
}

// ToAssignmentDTO converts EntityAssignment to AssignmentDTO with resolved
// display fields
func ToAssignmentDTO(assignment *domain.EntityAssignment, entityName, accountantEmail string) domain.AssignmentDTO {
	return domain.AssignmentDTO{
		ID:              assignment.ID,
		EntityID:        assignment.EntityID,
		EntityName:      entityName,
		AccountantID:    assignment.AccountantID,
		AccountantEmail: accountantEmail,
		AccessType:      assignment.AccessType,
		AssignedBy:      assignment.AssignedBy,
		AssignedAt:      assignment.AssignedAt.Format(timeLayout),
	}
}

// ToNotificationDTO converts Notification to NotificationDTO
func ToNotificationDTO(notification *domain.Notification) domain.NotificationDTO {
	return domain.NotificationDTO{
		ID:        notification.ID,
		Type:      string(notification.Type),
		Title:     notification.Title,
		Message:   notification.Message,
		Read:      notification.Read,
		ReadAt:    formatTimePtr(notification.ReadAt),
		EntityID:  notification.EntityID,
		CreatedAt: notification.CreatedAt.Format(timeLayout),
	}
}

// ToAuditLogDTO converts AuditLog to AuditLogDTO. userEmail may be empty
// when the user ID did not resolve to a known account.
func ToAuditLogDTO(log *domain.AuditLog, userEmail string) domain.AuditLogDTO {
	return domain.AuditLogDTO{
		ID:           log.ID,
		UserID:       log.UserID,
		UserEmail:    userEmail,
		Action:       log.Action,
		ResourceType: log.ResourceType,
		ResourceID:   log.ResourceID,
		IPAddress:    log.IPAddress,
		UserAgent:    log.UserAgent,
		Details:      log.Details,
		CreatedAt:    log.CreatedAt.Format(timeLayout),
	}
}
