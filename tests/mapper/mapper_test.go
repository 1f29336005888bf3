package mapper_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/mapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDocumentDTO(t *testing.T) {
	deptID := uuid.New()
	creatorID := uuid.New()
	due := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	doc := &domain.Document{
		DocType:         domain.DocTypeStatutoryDocument,
		ReferenceNumber: "STAT-202601-00001",
		Title:           "Annual return",
		Status:          domain.StatusSubmitted,
		DepartmentID:    &deptID,
		CreatedByID:     creatorID,
		StatutoryType:   "annual_return",
		RegulatoryBody:  "MCA",
		DueDate:         &due,
		Department:      &domain.Department{Name: "Compliance", Code: "CMP"},
		CreatedBy:       &domain.User{Username: "jdoe", FirstName: "Jane", LastName: "Doe"},
	}
	doc.ID = uuid.New()
	doc.CreatedAt = time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC)
	doc.UpdatedAt = doc.CreatedAt

	dto := mapper.ToDocumentDTO(doc, 2)

	assert.Equal(t, doc.ID, dto.ID)
	assert.Equal(t, "STAT-202601-00001", dto.ReferenceNumber)
	assert.Equal(t, domain.StatusSubmitted, dto.Status)
	assert.Equal(t, "Compliance", dto.DepartmentName)
	assert.Equal(t, "Jane Doe", dto.CreatedByName)
	assert.Equal(t, 2, dto.AttachmentCount)
	require.NotNil(t, dto.DueDate)
	assert.Equal(t, "2026-03-31", *dto.DueDate)
	assert.Equal(t, "2026-01-05T10:30:00Z", dto.CreatedAt)

	// Dates not set on this document type stay nil
	assert.Nil(t, dto.StartDate)
	assert.Nil(t, dto.ApprovalDate)
}

func TestToDocumentDTO_WithoutPreloads(t *testing.T) {
	doc := &domain.Document{
		DocType:         domain.DocTypeNFA,
		ReferenceNumber: "NFA-202601-00001",
		Title:           "Bare",
		Status:          domain.StatusDraft,
		CreatedByID:     uuid.New(),
	}
	doc.ID = uuid.New()

	dto := mapper.ToDocumentDTO(doc, 0)

	assert.Empty(t, dto.DepartmentName)
	assert.Empty(t, dto.CreatedByName)
	assert.Zero(t, dto.AttachmentCount)
}

func TestToUserDTO(t *testing.T) {
	deptID := uuid.New()
	lastLogin := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	user := &domain.User{
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		FirstName:    "Jane",
		LastName:     "Doe",
		DepartmentID: &deptID,
		IsActive:     true,
		LastLoginAt:  &lastLogin,
		Department:   &domain.Department{Name: "Finance", Code: "FIN"},
		Roles: []domain.Role{
			{Name: domain.RoleHOD},
			{Name: domain.RoleEmp},
		},
	}
	user.ID = uuid.New()

	dto := mapper.ToUserDTO(user)

	assert.Equal(t, "Jane Doe", dto.FullName)
	assert.Equal(t, "Finance", dto.DepartmentName)
	assert.ElementsMatch(t, []string{"hod", "emp"}, dto.Roles)
	require.NotNil(t, dto.LastLoginAt)
	assert.Equal(t, "2026-02-01T08:00:00Z", *dto.LastLoginAt)
}

func TestToNotificationDTO(t *testing.T) {
	docID := uuid.New()
	notification := &domain.Notification{
		UserID:     uuid.New(),
		Type:       string(domain.NotificationTypeDocumentApproved),
		Title:      "Approved",
		Message:    "Your NFA was approved",
		DocType:    domain.DocTypeNFA,
		DocumentID: &docID,
	}
	notification.ID = uuid.New()
	notification.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	dto := mapper.ToNotificationDTO(notification)

	assert.Equal(t, "Approved", dto.Title)
	assert.False(t, dto.Read)
	assert.Nil(t, dto.ReadAt)
	require.NotNil(t, dto.DocumentID)
	assert.Equal(t, docID, *dto.DocumentID)
	assert.Equal(t, "2026-01-02T03:04:05Z", dto.CreatedAt)
}

func TestToApprovalHistoryDTO(t *testing.T) {
	entry := &domain.ApprovalHistory{
		DocType:      domain.DocTypeWorkOrder,
		DocumentID:   uuid.New(),
		Action:       domain.ActionApproved,
		ApprovedByID: uuid.New(),
		Comments:     "looks good",
		ApprovedAt:   time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
		ApprovedBy:   &domain.User{Username: "head", FirstName: "Head", LastName: "Person"},
	}
	entry.ID = uuid.New()

	dto := mapper.ToApprovalHistoryDTO(entry)

	assert.Equal(t, domain.ActionApproved, dto.Action)
	assert.Equal(t, "Head Person", dto.ApprovedByName)
	assert.Equal(t, "2026-01-10T12:00:00Z", dto.ApprovedAt)
}
