package mapper

import (
	"time"

	"github.com/kspl/approval-api/internal/domain"
)

const timestampFormat = "2006-01-02T15:04:05Z"
const dateFormat = "2006-01-02"

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateFormat)
	return &s
}

func formatTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(timestampFormat)
	return &s
}

// ToDocumentDTO converts Document to DocumentDTO
func ToDocumentDTO(doc *domain.Document, attachmentCount int) domain.DocumentDTO {
	dto := domain.DocumentDTO{
		ID:              doc.ID,
		DocType:         doc.DocType,
		ReferenceNumber: doc.ReferenceNumber,
		Title:           doc.Title,
		Description:     doc.Description,
		Status:          doc.Status,
		DepartmentID:    doc.DepartmentID,
		CreatedByID:     doc.CreatedByID,
		RejectedRemarks: doc.RejectedRemarks,

		Amount:         doc.Amount,
		ApprovalDate:   formatDate(doc.ApprovalDate),
		Notes:          doc.Notes,
		PONumber:       doc.PONumber,
		VendorName:     doc.VendorName,
		StartDate:      formatDate(doc.StartDate),
		EndDate:        formatDate(doc.EndDate),
		ContractType:   doc.ContractType,
		ContractValue:  doc.ContractValue,
		CustomerName:   doc.CustomerName,
		Terms:          doc.Terms,
		AgreementType:  doc.AgreementType,
		PartyName:      doc.PartyName,
		EffectiveDate:  formatDate(doc.EffectiveDate),
		ExpiryDate:     formatDate(doc.ExpiryDate),
		StatutoryType:  doc.StatutoryType,
		RegulatoryBody: doc.RegulatoryBody,
		DueDate:        formatDate(doc.DueDate),

		AttachmentCount: attachmentCount,
		CreatedAt:       doc.CreatedAt.UTC().Format(timestampFormat),
		UpdatedAt:       doc.UpdatedAt.UTC().Format(timestampFormat),
	}

	if doc.Department != nil {
		dto.DepartmentName = doc.Department.Name
	}
	if doc.CreatedBy != nil {
		dto.CreatedByName = doc.CreatedBy.FullName()
	}

	return dto
}

// ToAttachmentDTO converts Attachment to AttachmentDTO
func ToAttachmentDTO(attachment *domain.Attachment) domain.AttachmentDTO {
	dto := domain.AttachmentDTO{
		ID:           attachment.ID,
		DocType:      attachment.DocType,
		DocumentID:   attachment.DocumentID,
		Filename:     attachment.Filename,
		ContentType:  attachment.ContentType,
		Size:         attachment.Size,
		UploadedByID: attachment.UploadedByID,
		IsReadonly:   attachment.IsReadonly,
		CreatedAt:    attachment.CreatedAt.UTC().Format(timestampFormat),
	}
	if attachment.UploadedBy != nil {
		dto.UploadedByName = attachment.UploadedBy.FullName()
	}
	return dto
}

// ToApprovalHistoryDTO converts ApprovalHistory to ApprovalHistoryDTO
func ToApprovalHistoryDTO(entry *domain.ApprovalHistory) domain.ApprovalHistoryDTO {
	dto := domain.ApprovalHistoryDTO{
		ID:           entry.ID,
		DocType:      entry.DocType,
		DocumentID:   entry.DocumentID,
		Action:       entry.Action,
		ApprovedByID: entry.ApprovedByID,
		Comments:     entry.Comments,
		ApprovedAt:   entry.ApprovedAt.UTC().Format(timestampFormat),
	}
	if entry.ApprovedBy != nil {
		dto.ApprovedByName = entry.ApprovedBy.FullName()
	}
	return dto
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, string(r.Name))
	}

	dto := domain.UserDTO{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		FullName:     user.FullName(),
		DepartmentID: user.DepartmentID,
		Roles:        roles,
		IsActive:     user.IsActive,
		LastLoginAt:  formatTimestamp(user.LastLoginAt),
		CreatedAt:    user.CreatedAt.UTC().Format(timestampFormat),
	}
	if user.Department != nil {
		dto.DepartmentName = user.Department.Name
	}
	return dto
}

// ToRoleDTO converts Role to RoleDTO
func ToRoleDTO(role *domain.Role) domain.RoleDTO {
	permissions := make([]string, 0, len(role.Permissions))
	for _, p := range role.Permissions {
		permissions = append(permissions, string(p.Name))
	}
	return domain.RoleDTO{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		Permissions: permissions,
	}
}

// ToDepartmentDTO converts Department to DepartmentDTO
func ToDepartmentDTO(department *domain.Department) domain.DepartmentDTO {
	return domain.DepartmentDTO{
		ID:   department.ID,
		Name: department.Name,
		Code: department.Code,
	}
}

// ToNotificationDTO converts Notification to NotificationDTO
func ToNotificationDTO(notification *domain.Notification) domain.NotificationDTO {
	return domain.NotificationDTO{
		ID:         notification.ID,
		Type:       notification.Type,
		Title:      notification.Title,
		Message:    notification.Message,
		Read:       notification.Read,
		ReadAt:     formatTimestamp(notification.ReadAt),
		DocType:    notification.DocType,
		DocumentID: notification.DocumentID,
		CreatedAt:  notification.CreatedAt.UTC().Format(timestampFormat),
	}
}

// ToWorkflowConfigDTO converts WorkflowConfig to WorkflowConfigDTO
func ToWorkflowConfigDTO(cfg *domain.WorkflowConfig) domain.WorkflowConfigDTO {
	steps := make([]domain.WorkflowStepDTO, 0, len(cfg.Steps))
	for i := range cfg.Steps {
		steps = append(steps, ToWorkflowStepDTO(&cfg.Steps[i]))
	}
	return domain.WorkflowConfigDTO{
		ID:          cfg.ID,
		Module:      cfg.Module,
		Name:        cfg.Name,
		Description: cfg.Description,
		IsActive:    cfg.IsActive,
		Steps:       steps,
		CreatedAt:   cfg.CreatedAt.UTC().Format(timestampFormat),
	}
}

// ToWorkflowStepDTO converts WorkflowStep to WorkflowStepDTO
func ToWorkflowStepDTO(step *domain.WorkflowStep) domain.WorkflowStepDTO {
	dto := domain.WorkflowStepDTO{
		ID:           step.ID,
		StepNumber:   step.StepNumber,
		Action:       step.Action,
		ApproverType: step.ApproverType,
		ApproverID:   step.ApproverID,
		RoleID:       step.RoleID,
	}
	if step.Role != nil {
		dto.RoleName = string(step.Role.Name)
	}
	return dto
}

// ToAuditLogDTO converts AuditLog to AuditLogDTO
func ToAuditLogDTO(log *domain.AuditLog) domain.AuditLogDTO {
	return domain.AuditLogDTO{
		ID:          log.ID,
		UserID:      log.UserID,
		Username:    log.Username,
		Action:      log.Action,
		EntityType:  log.EntityType,
		EntityID:    log.EntityID,
		EntityName:  log.EntityName,
		Detail:      log.Detail,
		IPAddress:   log.IPAddress,
		PerformedAt: log.PerformedAt.UTC().Format(timestampFormat),
	}
}
