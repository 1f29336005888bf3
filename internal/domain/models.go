package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns a UUID so the models work on both postgres and sqlite
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// DocumentType identifies which kind of document a record represents.
// All document types share the same lifecycle and approval workflow.
type DocumentType string

const (
	DocTypeNFA               DocumentType = "nfa"
	DocTypeWorkOrder         DocumentType = "work_order"
	DocTypeCostContract      DocumentType = "cost_contract"
	DocTypeRevenueContract   DocumentType = "revenue_contract"
	DocTypeAgreement         DocumentType = "agreement"
	DocTypeStatutoryDocument DocumentType = "statutory_document"
)

// IsValid checks if the DocumentType is a valid enum value
func (dt DocumentType) IsValid() bool {
	switch dt {
	case DocTypeNFA, DocTypeWorkOrder, DocTypeCostContract,
		DocTypeRevenueContract, DocTypeAgreement, DocTypeStatutoryDocument:
		return true
	}
	return false
}

// ReferencePrefix returns the uppercase prefix used in reference numbers
func (dt DocumentType) ReferencePrefix() string {
	switch dt {
	case DocTypeNFA:
		return "NFA"
	case DocTypeWorkOrder:
		return "WO"
	case DocTypeCostContract:
		return "CC"
	case DocTypeRevenueContract:
		return "RC"
	case DocTypeAgreement:
		return "AGR"
	case DocTypeStatutoryDocument:
		return "STAT"
	}
	return "DOC"
}

// AllDocumentTypes returns every valid document type
func AllDocumentTypes() []DocumentType {
	return []DocumentType{
		DocTypeNFA, DocTypeWorkOrder, DocTypeCostContract,
		DocTypeRevenueContract, DocTypeAgreement, DocTypeStatutoryDocument,
	}
}

// DocumentStatus represents the lifecycle state of a document
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "Draft"
	StatusSubmitted DocumentStatus = "Submitted"
	StatusApproved  DocumentStatus = "Approved"
	StatusRejected  DocumentStatus = "Rejected"
)

// IsValid checks if the DocumentStatus is a valid enum value
func (ds DocumentStatus) IsValid() bool {
	switch ds {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsEditable reports whether a document in this status may be modified
// by its owner. Approved and Submitted documents are frozen.
func (ds DocumentStatus) IsEditable() bool {
	return ds == StatusDraft || ds == StatusRejected
}

// ApprovalAction represents an entry type in the approval ledger
type ApprovalAction string

const (
	ActionSubmitted ApprovalAction = "Submitted"
	ActionApproved  ApprovalAction = "Approved"
	ActionRejected  ApprovalAction = "Rejected"
)

// IsValid checks if the ApprovalAction is a valid enum value
func (a ApprovalAction) IsValid() bool {
	switch a {
	case ActionSubmitted, ActionApproved, ActionRejected:
		return true
	}
	return false
}

// RoleType is the closed set of roles in the system
type RoleType string

const (
	RoleAdmin RoleType = "admin"
	RoleHOD   RoleType = "hod"
	RoleEmp   RoleType = "emp"
)

// IsValid checks if the RoleType is a valid enum value
func (rt RoleType) IsValid() bool {
	switch rt {
	case RoleAdmin, RoleHOD, RoleEmp:
		return true
	}
	return false
}

// AllRoleTypes returns every valid role
func AllRoleTypes() []RoleType {
	return []RoleType{RoleAdmin, RoleHOD, RoleEmp}
}

// PermissionType represents a specific capability
type PermissionType string

const (
	// Document permissions
	PermissionDocumentView    PermissionType = "document_view"
	PermissionDocumentCreate  PermissionType = "document_create"
	PermissionDocumentEdit    PermissionType = "document_edit"
	PermissionDocumentEditAll PermissionType = "document_edit_all"
	PermissionDocumentSubmit  PermissionType = "document_submit"
	PermissionDocumentApprove PermissionType = "document_approve"
	PermissionDocumentReject  PermissionType = "document_reject"

	// User management permissions
	PermissionUserView   PermissionType = "user_view"
	PermissionUserCreate PermissionType = "user_create"
	PermissionUserEdit   PermissionType = "user_edit"
	PermissionUserDelete PermissionType = "user_delete"

	// System administration
	PermissionAdminAccess    PermissionType = "admin_access"
	PermissionRoleManage     PermissionType = "role_manage"
	PermissionReportsView    PermissionType = "reports_view"
	PermissionAuditView      PermissionType = "audit_view"
	PermissionWorkflowManage PermissionType = "workflow_manage"
)

// AllPermissionTypes returns every known permission
func AllPermissionTypes() []PermissionType {
	return []PermissionType{
		PermissionDocumentView, PermissionDocumentCreate, PermissionDocumentEdit,
		PermissionDocumentEditAll, PermissionDocumentSubmit, PermissionDocumentApprove,
		PermissionDocumentReject,
		PermissionUserView, PermissionUserCreate, PermissionUserEdit, PermissionUserDelete,
		PermissionAdminAccess, PermissionRoleManage, PermissionReportsView,
		PermissionAuditView, PermissionWorkflowManage,
	}
}

// IsValid checks if the PermissionType is a known permission
func (p PermissionType) IsValid() bool {
	for _, known := range AllPermissionTypes() {
		if p == known {
			return true
		}
	}
	return false
}

// Department represents an organizational department
type Department struct {
	BaseModel
	Name string `gorm:"type:varchar(100);not null;unique"`
	Code string `gorm:"type:varchar(20);not null;unique"`
}

// Permission represents a named capability that can be granted to roles
type Permission struct {
	BaseModel
	Name        PermissionType `gorm:"type:varchar(50);not null;unique"`
	Description string         `gorm:"type:varchar(255)"`
}

// Role represents one of the fixed system roles with its permission set
type Role struct {
	BaseModel
	Name        RoleType     `gorm:"type:varchar(20);not null;unique"`
	Description string       `gorm:"type:varchar(255)"`
	Permissions []Permission `gorm:"many2many:role_permissions"`
}

// HasPermission checks if the role grants a specific permission
func (r *Role) HasPermission(permission PermissionType) bool {
	for _, p := range r.Permissions {
		if p.Name == permission {
			return true
		}
	}
	return false
}

// User represents an application user
type User struct {
	BaseModel
	Username     string      `gorm:"type:varchar(64);not null;uniqueIndex"`
	Email        string      `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string      `gorm:"type:varchar(255);not null;column:password_hash"`
	FirstName    string      `gorm:"type:varchar(100);column:first_name"`
	LastName     string      `gorm:"type:varchar(100);column:last_name"`
	DepartmentID *uuid.UUID  `gorm:"type:uuid;index;column:department_id"`
	Department   *Department `gorm:"foreignKey:DepartmentID"`
	IsActive     bool        `gorm:"not null;default:true;column:is_active"`
	LastLoginAt  *time.Time  `gorm:"column:last_login_at"`
	Roles        []Role      `gorm:"many2many:user_roles"`
}

// FullName returns the user's full name, or username if names not set
func (u *User) FullName() string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.Username
}

// SetPassword hashes and stores the given plaintext password
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// HasRole checks if the user holds a specific role
func (u *User) HasRole(role RoleType) bool {
	for _, r := range u.Roles {
		if r.Name == role {
			return true
		}
	}
	return false
}

// HasPermission checks if any of the user's roles grants the permission
func (u *User) HasPermission(permission PermissionType) bool {
	for _, r := range u.Roles {
		if r.HasPermission(permission) {
			return true
		}
	}
	return false
}

// Document is the single table for all approvable document types.
// DocType discriminates the kind; type-specific fields are nullable and
// only populated for the matching type.
type Document struct {
	BaseModel
	DocType         DocumentType   `gorm:"type:varchar(30);not null;index;column:doc_type"`
	ReferenceNumber string         `gorm:"type:varchar(50);not null;index;column:reference_number"`
	Title           string         `gorm:"type:varchar(200);not null;index"`
	Description     string         `gorm:"type:text"`
	Status          DocumentStatus `gorm:"type:varchar(20);not null;default:'Draft';index"`
	DepartmentID    *uuid.UUID     `gorm:"type:uuid;index;column:department_id"`
	Department      *Department    `gorm:"foreignKey:DepartmentID"`
	CreatedByID     uuid.UUID      `gorm:"type:uuid;not null;index;column:created_by_id"`
	CreatedBy       *User          `gorm:"foreignKey:CreatedByID"`
	RejectedRemarks string         `gorm:"type:text;column:rejected_remarks"`

	// NFA fields
	Amount       *float64   `gorm:"type:decimal(15,2)"`
	ApprovalDate *time.Time `gorm:"type:date;column:approval_date"`
	Notes        string     `gorm:"type:text"`

	// Work order / contract fields
	PONumber   string     `gorm:"type:varchar(50);column:po_number"`
	VendorName string     `gorm:"type:varchar(200);column:vendor_name"`
	StartDate  *time.Time `gorm:"type:date;column:start_date"`
	EndDate    *time.Time `gorm:"type:date;column:end_date"`

	// Contract fields
	ContractType  string   `gorm:"type:varchar(100);column:contract_type"`
	ContractValue *float64 `gorm:"type:decimal(15,2);column:contract_value"`
	CustomerName  string   `gorm:"type:varchar(200);column:customer_name"`
	Terms         string   `gorm:"type:text"`

	// Agreement fields
	AgreementType string     `gorm:"type:varchar(100);column:agreement_type"`
	PartyName     string     `gorm:"type:varchar(200);column:party_name"`
	EffectiveDate *time.Time `gorm:"type:date;column:effective_date"`
	ExpiryDate    *time.Time `gorm:"type:date;column:expiry_date"`

	// Statutory document fields
	StatutoryType  string     `gorm:"type:varchar(100);column:statutory_type"`
	RegulatoryBody string     `gorm:"type:varchar(200);column:regulatory_body"`
	DueDate        *time.Time `gorm:"type:date;column:due_date"`
}

// Attachment represents an uploaded file bound to a document.
// DocType + DocumentID form a tagged reference so one table serves
// every document type.
type Attachment struct {
	BaseModel
	DocType      DocumentType `gorm:"type:varchar(30);not null;index;column:doc_type"`
	DocumentID   uuid.UUID    `gorm:"type:uuid;not null;index;column:document_id"`
	Filename     string       `gorm:"type:varchar(255);not null"`
	ContentType  string       `gorm:"type:varchar(100);not null;column:content_type"`
	Size         int64        `gorm:"not null"`
	StoragePath  string       `gorm:"type:varchar(500);not null;unique;column:storage_path"`
	UploadedByID uuid.UUID    `gorm:"type:uuid;not null;column:uploaded_by_id"`
	UploadedBy   *User        `gorm:"foreignKey:UploadedByID"`
	IsReadonly   bool         `gorm:"not null;default:false;column:is_readonly"`
}

// ApprovalHistory is the append-only ledger of workflow actions.
// Entries are never updated or deleted.
type ApprovalHistory struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key"`
	DocType      DocumentType   `gorm:"type:varchar(30);not null;index;column:doc_type"`
	DocumentID   uuid.UUID      `gorm:"type:uuid;not null;index;column:document_id"`
	Action       ApprovalAction `gorm:"type:varchar(20);not null"`
	ApprovedByID uuid.UUID      `gorm:"type:uuid;not null;column:approved_by_id"`
	ApprovedBy   *User          `gorm:"foreignKey:ApprovedByID"`
	Comments     string         `gorm:"type:text"`
	ApprovedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP;index;column:approved_at"`
}

// TableName overrides the default pluralization
func (ApprovalHistory) TableName() string {
	return "approval_history"
}

// BeforeCreate assigns a UUID for ledger rows
func (h *ApprovalHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// ReferenceSequence holds the per-type, per-period counter that backs
// reference number generation. Incremented under a row lock.
type ReferenceSequence struct {
	ID           uuid.UUID    `gorm:"type:uuid;primary_key"`
	DocType      DocumentType `gorm:"type:varchar(30);not null;uniqueIndex:idx_ref_seq_type_period;column:doc_type"`
	Period       string       `gorm:"type:varchar(6);not null;uniqueIndex:idx_ref_seq_type_period"`
	LastSequence int          `gorm:"not null;default:0;column:last_sequence"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns a UUID for sequence rows
func (s *ReferenceSequence) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ApproverType determines how a workflow step resolves its approver
type ApproverType string

const (
	ApproverTypeRole ApproverType = "role"
	ApproverTypeUser ApproverType = "user"
)

// WorkflowConfig is an admin-managed workflow definition per document type.
// The engine currently performs single-step approval; configs and steps are
// kept for display and as the extension point for multi-step routing.
type WorkflowConfig struct {
	BaseModel
	Module      DocumentType   `gorm:"type:varchar(30);not null;index"`
	Name        string         `gorm:"type:varchar(100);not null"`
	Description string         `gorm:"type:varchar(255)"`
	IsActive    bool           `gorm:"not null;default:true;column:is_active"`
	Steps       []WorkflowStep `gorm:"foreignKey:WorkflowConfigID;constraint:OnDelete:CASCADE"`
}

// WorkflowStep is one step of a configured workflow
type WorkflowStep struct {
	BaseModel
	WorkflowConfigID uuid.UUID    `gorm:"type:uuid;not null;index;column:workflow_config_id"`
	StepNumber       int          `gorm:"not null;column:step_number"`
	Action           string       `gorm:"type:varchar(50);not null"`
	ApproverType     ApproverType `gorm:"type:varchar(10);not null;column:approver_type"`
	ApproverID       *uuid.UUID   `gorm:"type:uuid;column:approver_id"`
	RoleID           *uuid.UUID   `gorm:"type:uuid;column:role_id"`
	Role             *Role        `gorm:"foreignKey:RoleID"`
}

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeDocumentSubmitted NotificationType = "document_submitted"
	NotificationTypeDocumentApproved  NotificationType = "document_approved"
	NotificationTypeDocumentRejected  NotificationType = "document_rejected"
	NotificationTypeDueDateReminder   NotificationType = "due_date_reminder"
)

// Notification represents an in-app user notification
type Notification struct {
	BaseModel
	UserID     uuid.UUID    `gorm:"type:uuid;not null;index"`
	Type       string       `gorm:"type:varchar(50);not null"`
	Title      string       `gorm:"type:varchar(200);not null"`
	Message    string       `gorm:"type:varchar(500);not null"`
	Read       bool         `gorm:"column:read;not null;default:false;index"`
	ReadAt     *time.Time   `gorm:"column:read_at"`
	DocType    DocumentType `gorm:"type:varchar(30);column:doc_type"`
	DocumentID *uuid.UUID   `gorm:"type:uuid;column:document_id"`
}

// AuditAction represents the type of audit action
type AuditAction string

const (
	AuditActionCreate  AuditAction = "create"
	AuditActionUpdate  AuditAction = "update"
	AuditActionDelete  AuditAction = "delete"
	AuditActionSubmit  AuditAction = "submit"
	AuditActionApprove AuditAction = "approve"
	AuditActionReject  AuditAction = "reject"
	AuditActionLogin   AuditAction = "login"
)

// AuditLog represents an audit trail entry
type AuditLog struct {
	ID          uuid.UUID   `gorm:"type:uuid;primary_key"`
	UserID      *uuid.UUID  `gorm:"type:uuid;index;column:user_id"`
	Username    string      `gorm:"type:varchar(64);column:username"`
	Action      AuditAction `gorm:"type:varchar(20);not null"`
	EntityType  string      `gorm:"type:varchar(50);not null;column:entity_type"`
	EntityID    *uuid.UUID  `gorm:"type:uuid;column:entity_id"`
	EntityName  string      `gorm:"type:varchar(200);column:entity_name"`
	Detail      string      `gorm:"type:text"`
	IPAddress   string      `gorm:"type:varchar(45);column:ip_address"`
	RequestID   string      `gorm:"type:varchar(100);column:request_id"`
	PerformedAt time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP;index;column:performed_at"`
}

// BeforeCreate assigns a UUID for audit rows
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
