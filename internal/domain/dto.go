package domain

import (
	"github.com/google/uuid"
)

// DTOs for API responses

type DocumentDTO struct {
	ID              uuid.UUID      `json:"id"`
	DocType         DocumentType   `json:"docType"`
	ReferenceNumber string         `json:"referenceNumber"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Status          DocumentStatus `json:"status"`
	DepartmentID    *uuid.UUID     `json:"departmentId,omitempty"`
	DepartmentName  string         `json:"departmentName,omitempty"`
	CreatedByID     uuid.UUID      `json:"createdById"`
	CreatedByName   string         `json:"createdByName,omitempty"`
	RejectedRemarks string         `json:"rejectedRemarks,omitempty"`

	Amount         *float64 `json:"amount,omitempty"`
	ApprovalDate   *string  `json:"approvalDate,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	PONumber       string   `json:"poNumber,omitempty"`
	VendorName     string   `json:"vendorName,omitempty"`
	StartDate      *string  `json:"startDate,omitempty"`
	EndDate        *string  `json:"endDate,omitempty"`
	ContractType   string   `json:"contractType,omitempty"`
	ContractValue  *float64 `json:"contractValue,omitempty"`
	CustomerName   string   `json:"customerName,omitempty"`
	Terms          string   `json:"terms,omitempty"`
	AgreementType  string   `json:"agreementType,omitempty"`
	PartyName      string   `json:"partyName,omitempty"`
	EffectiveDate  *string  `json:"effectiveDate,omitempty"`
	ExpiryDate     *string  `json:"expiryDate,omitempty"`
	StatutoryType  string   `json:"statutoryType,omitempty"`
	RegulatoryBody string   `json:"regulatoryBody,omitempty"`
	DueDate        *string  `json:"dueDate,omitempty"`

	AttachmentCount int    `json:"attachmentCount"`
	CreatedAt       string `json:"createdAt"` // ISO 8601
	UpdatedAt       string `json:"updatedAt"` // ISO 8601
}

type AttachmentDTO struct {
	ID             uuid.UUID    `json:"id"`
	DocType        DocumentType `json:"docType"`
	DocumentID     uuid.UUID    `json:"documentId"`
	Filename       string       `json:"filename"`
	ContentType    string       `json:"contentType"`
	Size           int64        `json:"size"`
	UploadedByID   uuid.UUID    `json:"uploadedById"`
	UploadedByName string       `json:"uploadedByName,omitempty"`
	IsReadonly     bool         `json:"isReadonly"`
	CreatedAt      string       `json:"createdAt"`
}

type ApprovalHistoryDTO struct {
	ID             uuid.UUID      `json:"id"`
	DocType        DocumentType   `json:"docType"`
	DocumentID     uuid.UUID      `json:"documentId"`
	Action         ApprovalAction `json:"action"`
	ApprovedByID   uuid.UUID      `json:"approvedById"`
	ApprovedByName string         `json:"approvedByName,omitempty"`
	Comments       string         `json:"comments,omitempty"`
	ApprovedAt     string         `json:"approvedAt"`
}

type UserDTO struct {
	ID             uuid.UUID  `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	FirstName      string     `json:"firstName,omitempty"`
	LastName       string     `json:"lastName,omitempty"`
	FullName       string     `json:"fullName"`
	DepartmentID   *uuid.UUID `json:"departmentId,omitempty"`
	DepartmentName string     `json:"departmentName,omitempty"`
	Roles          []string   `json:"roles"`
	IsActive       bool       `json:"isActive"`
	LastLoginAt    *string    `json:"lastLoginAt,omitempty"`
	CreatedAt      string     `json:"createdAt"`
}

type RoleDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        RoleType  `json:"name"`
	Description string    `json:"description,omitempty"`
	Permissions []string  `json:"permissions"`
}

type DepartmentDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Code string    `json:"code"`
}

type NotificationDTO struct {
	ID         uuid.UUID    `json:"id"`
	Type       string       `json:"type"`
	Title      string       `json:"title"`
	Message    string       `json:"message"`
	Read       bool         `json:"read"`
	ReadAt     *string      `json:"readAt,omitempty"`
	DocType    DocumentType `json:"docType,omitempty"`
	DocumentID *uuid.UUID   `json:"documentId,omitempty"`
	CreatedAt  string       `json:"createdAt"`
}

type WorkflowConfigDTO struct {
	ID          uuid.UUID         `json:"id"`
	Module      DocumentType      `json:"module"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	IsActive    bool              `json:"isActive"`
	Steps       []WorkflowStepDTO `json:"steps,omitempty"`
	CreatedAt   string            `json:"createdAt"`
}

type WorkflowStepDTO struct {
	ID           uuid.UUID    `json:"id"`
	StepNumber   int          `json:"stepNumber"`
	Action       string       `json:"action"`
	ApproverType ApproverType `json:"approverType"`
	ApproverID   *uuid.UUID   `json:"approverId,omitempty"`
	RoleID       *uuid.UUID   `json:"roleId,omitempty"`
	RoleName     string       `json:"roleName,omitempty"`
}

type AuditLogDTO struct {
	ID          uuid.UUID   `json:"id"`
	UserID      *uuid.UUID  `json:"userId,omitempty"`
	Username    string      `json:"username,omitempty"`
	Action      AuditAction `json:"action"`
	EntityType  string      `json:"entityType"`
	EntityID    *uuid.UUID  `json:"entityId,omitempty"`
	EntityName  string      `json:"entityName,omitempty"`
	Detail      string      `json:"detail,omitempty"`
	IPAddress   string      `json:"ipAddress,omitempty"`
	PerformedAt string      `json:"performedAt"`
}

// PaginatedResponse wraps list responses with paging metadata
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// UnreadCountDTO carries the unread notification count
type UnreadCountDTO struct {
	Count int `json:"count"`
}

// DashboardStatsDTO holds the per-type document counts and pending work
type DashboardStatsDTO struct {
	CountsByType     map[DocumentType]int64   `json:"countsByType"`
	CountsByStatus   map[DocumentStatus]int64 `json:"countsByStatus"`
	PendingApprovals int64                    `json:"pendingApprovals"`
	MyDrafts         int64                    `json:"myDrafts"`
	MyRejected       int64                    `json:"myRejected"`
}

// Requests

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expiresAt"`
	User      UserDTO `json:"user"`
}

// CreateDocumentRequest carries the shared fields plus the superset of
// type-specific fields; the service ignores fields that do not belong
// to the requested document type.
type CreateDocumentRequest struct {
	ReferenceNumber string     `json:"referenceNumber,omitempty" validate:"omitempty,max=50"`
	Title           string     `json:"title" validate:"required,max=200"`
	Description     string     `json:"description,omitempty"`
	DepartmentID    *uuid.UUID `json:"departmentId,omitempty"`

	Amount         *float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
	ApprovalDate   *string  `json:"approvalDate,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	PONumber       string   `json:"poNumber,omitempty" validate:"max=50"`
	VendorName     string   `json:"vendorName,omitempty" validate:"max=200"`
	StartDate      *string  `json:"startDate,omitempty"`
	EndDate        *string  `json:"endDate,omitempty"`
	ContractType   string   `json:"contractType,omitempty" validate:"max=100"`
	ContractValue  *float64 `json:"contractValue,omitempty" validate:"omitempty,gte=0"`
	CustomerName   string   `json:"customerName,omitempty" validate:"max=200"`
	Terms          string   `json:"terms,omitempty"`
	AgreementType  string   `json:"agreementType,omitempty" validate:"max=100"`
	PartyName      string   `json:"partyName,omitempty" validate:"max=200"`
	EffectiveDate  *string  `json:"effectiveDate,omitempty"`
	ExpiryDate     *string  `json:"expiryDate,omitempty"`
	StatutoryType  string   `json:"statutoryType,omitempty" validate:"max=100"`
	RegulatoryBody string   `json:"regulatoryBody,omitempty" validate:"max=200"`
	DueDate        *string  `json:"dueDate,omitempty"`
}

type UpdateDocumentRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty"`

	Amount         *float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
	ApprovalDate   *string  `json:"approvalDate,omitempty"`
	Notes          *string  `json:"notes,omitempty"`
	PONumber       *string  `json:"poNumber,omitempty" validate:"omitempty,max=50"`
	VendorName     *string  `json:"vendorName,omitempty" validate:"omitempty,max=200"`
	StartDate      *string  `json:"startDate,omitempty"`
	EndDate        *string  `json:"endDate,omitempty"`
	ContractType   *string  `json:"contractType,omitempty" validate:"omitempty,max=100"`
	ContractValue  *float64 `json:"contractValue,omitempty" validate:"omitempty,gte=0"`
	CustomerName   *string  `json:"customerName,omitempty" validate:"omitempty,max=200"`
	Terms          *string  `json:"terms,omitempty"`
	AgreementType  *string  `json:"agreementType,omitempty" validate:"omitempty,max=100"`
	PartyName      *string  `json:"partyName,omitempty" validate:"omitempty,max=200"`
	EffectiveDate  *string  `json:"effectiveDate,omitempty"`
	ExpiryDate     *string  `json:"expiryDate,omitempty"`
	StatutoryType  *string  `json:"statutoryType,omitempty" validate:"omitempty,max=100"`
	RegulatoryBody *string  `json:"regulatoryBody,omitempty" validate:"omitempty,max=200"`
	DueDate        *string  `json:"dueDate,omitempty"`
}

// DocumentListFilter holds optional list filters on top of role scoping
type DocumentListFilter struct {
	Status   *DocumentStatus
	Search   string
	Page     int
	PageSize int
}

type RejectDocumentRequest struct {
	Comments string `json:"comments" validate:"required,max=2000"`
}

type ApproveDocumentRequest struct {
	Comments string `json:"comments,omitempty" validate:"max=2000"`
}

type CreateUserRequest struct {
	Username     string     `json:"username" validate:"required,max=64,alphanum"`
	Email        string     `json:"email" validate:"required,email"`
	Password     string     `json:"password" validate:"required,min=8"`
	FirstName    string     `json:"firstName,omitempty" validate:"max=100"`
	LastName     string     `json:"lastName,omitempty" validate:"max=100"`
	DepartmentID *uuid.UUID `json:"departmentId,omitempty"`
	Roles        []RoleType `json:"roles" validate:"required,min=1"`
}

type UpdateUserRequest struct {
	Email        *string    `json:"email,omitempty" validate:"omitempty,email"`
	Password     *string    `json:"password,omitempty" validate:"omitempty,min=8"`
	FirstName    *string    `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName     *string    `json:"lastName,omitempty" validate:"omitempty,max=100"`
	DepartmentID *uuid.UUID `json:"departmentId,omitempty"`
	Roles        []RoleType `json:"roles,omitempty"`
}

type UpdateRoleRequest struct {
	Description *string          `json:"description,omitempty" validate:"omitempty,max=255"`
	Permissions []PermissionType `json:"permissions,omitempty"`
}

type CreateWorkflowConfigRequest struct {
	Module      DocumentType                `json:"module" validate:"required"`
	Name        string                      `json:"name" validate:"required,max=100"`
	Description string                      `json:"description,omitempty" validate:"max=255"`
	IsActive    bool                        `json:"isActive"`
	Steps       []CreateWorkflowStepRequest `json:"steps,omitempty" validate:"dive"`
}

type CreateWorkflowStepRequest struct {
	StepNumber   int          `json:"stepNumber" validate:"required,gte=1"`
	Action       string       `json:"action" validate:"required,max=50"`
	ApproverType ApproverType `json:"approverType" validate:"required,oneof=role user"`
	ApproverID   *uuid.UUID   `json:"approverId,omitempty"`
	RoleID       *uuid.UUID   `json:"roleId,omitempty"`
}

type UpdateWorkflowConfigRequest struct {
	Name        *string                     `json:"name,omitempty" validate:"omitempty,max=100"`
	Description *string                     `json:"description,omitempty" validate:"omitempty,max=255"`
	IsActive    *bool                       `json:"isActive,omitempty"`
	Steps       []CreateWorkflowStepRequest `json:"steps,omitempty" validate:"dive"`
}
