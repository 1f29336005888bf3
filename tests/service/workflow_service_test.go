package service_test

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/repository"
	"github.com/kspl/approval-api/internal/service"
	"github.com/kspl/approval-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newWorkflowService(db *gorm.DB) *service.WorkflowService {
	log := zap.NewNop()
	return service.NewWorkflowService(
		db,
		repository.NewDocumentRepository(db),
		repository.NewAttachmentRepository(db),
		repository.NewApprovalHistoryRepository(db),
		repository.NewUserRepository(db),
		service.NewNotificationService(repository.NewNotificationRepository(db), log),
		service.NewAuditLogService(repository.NewAuditLogRepository(db), log),
		log,
	)
}

func createWorkflowDoc(t *testing.T, db *gorm.DB, status domain.DocumentStatus, creator *domain.User, departmentID *uuid.UUID) *domain.Document {
	t.Helper()
	doc := &domain.Document{
		DocType:         domain.DocTypeNFA,
		ReferenceNumber: "NFA-202609-" + uuid.NewString()[:5],
		Title:           "Test NFA",
		Status:          status,
		DepartmentID:    departmentID,
		CreatedByID:     creator.ID,
	}
	require.NoError(t, db.Create(doc).Error)
	return doc
}

func addAttachment(t *testing.T, db *gorm.DB, doc *domain.Document, uploader *domain.User) *domain.Attachment {
	t.Helper()
	att := &domain.Attachment{
		DocType:      doc.DocType,
		DocumentID:   doc.ID,
		Filename:     "note.pdf",
		ContentType:  "application/pdf",
		Size:         1024,
		StoragePath:  "nfa/" + uuid.NewString() + ".pdf",
		UploadedByID: uploader.ID,
	}
	require.NoError(t, db.Create(att).Error)
	return att
}

func TestWorkflowService_Submit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newWorkflowService(db)
	dept := testutil.CreateTestDepartment(t, db, "Finance", "FIN")
	emp := testutil.CreateTestUser(t, db, "empsubmit", domain.RoleEmp, &dept.ID)
	hod := testutil.CreateTestUser(t, db, "hodsubmit", domain.RoleHOD, &dept.ID)
	r := httptest.NewRequest("POST", "/", nil)

	t.Run("submit draft with attachment", func(t *testing.T) {
		doc := createWorkflowDoc(t, db, domain.StatusDraft, emp, &dept.ID)
		addAttachment(t, db, doc, emp)

		dto, err := svc.Submit(testutil.ContextFor(emp), r, doc.DocType, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSubmitted, dto.Status)

		var entries []domain.ApprovalHistory
		require.NoError(t, db.Where("document_id = ?", doc.ID).Find(&entries).Error)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.ActionSubmitted, entries[0].Action)
		assert.Equal(t, emp.ID, entries[0].ApprovedByID)

		// Department head gets notified, the creator does not
		var notifications []domain.Notification
		require.NoError(t, db.Where("document_id = ?", doc.ID).Find(&notifications).Error)
		require.Len(t, notifications, 1)
		assert.Equal(t, hod.ID, notifications[0].UserID)
		assert.Equal(t, string(domain.NotificationTypeDocumentSubmitted), notifications[0].Type)
	})

	t.Run("submit without attachment fails", func(t *testing.T) {
		doc := createWorkflowDoc(t, db, domain.StatusDraft, emp, &dept.ID)

		_, err := svc.Submit(testutil.ContextFor(emp), r, doc.DocType, doc.ID)
		assert.ErrorIs(t, err, service.ErrAttachmentRequired)

		var reloaded domain.Document
		require.NoError(t, db.First(&reloaded, "id = ?", doc.ID).Error)
		assert.Equal(t, domain.StatusDraft, reloaded.Status)
	})

	t.Run("another employee cannot submit someone else's draft", func(t *testing.T) {
		other := testutil.CreateTestUser(t, db, "empbystander", domain.RoleEmp, &dept.ID)
		doc := createWorkflowDoc(t, db, domain.StatusDraft, emp, &dept.ID)
		addAttachment(t, db, doc, emp)

		_, err := svc.Submit(testutil.ContextFor(other), r, doc.DocType, doc.ID)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("edit-all grant submits another user's draft", func(t *testing.T) {
		admin := testutil.SeededAdmin(t, db)
		doc := createWorkflowDoc(t, db, domain.StatusDraft, emp, &dept.ID)
		addAttachment(t, db, doc, emp)

		dto, err := svc.Submit(testutil.ContextFor(admin), r, doc.DocType, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSubmitted, dto.Status)

		var entries []domain.ApprovalHistory
		require.NoError(t, db.Where("document_id = ?", doc.ID).Find(&entries).Error)
		require.Len(t, entries, 1)
		assert.Equal(t, admin.ID, entries[0].ApprovedByID)
	})

	t.Run("submit from approved fails", func(t *testing.T) {
		doc := createWorkflowDoc(t, db, domain.StatusApproved, emp, &dept.ID)
		addAttachment(t, db, doc, emp)

		_, err := svc.Submit(testutil.ContextFor(emp), r, doc.DocType, doc.ID)
		assert.ErrorIs(t, err, service.ErrInvalidState)
	})

	t.Run("resubmit after rejection keeps the remarks on record", func(t *testing.T) {
		doc := createWorkflowDoc(t, db, domain.StatusRejected, emp, &dept.ID)
		doc.RejectedRemarks = "missing cost breakdown"
		require.NoError(t, db.Save(doc).Error)
		addAttachment(t, db, doc, emp)

		dto, err := svc.Submit(testutil.ContextFor(emp), r, doc.DocType, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSubmitted, dto.Status)
		assert.Equal(t, "missing cost breakdown", dto.RejectedRemarks)

		var reloaded domain.Document
		require.NoError(t, db.First(&reloaded, "id = ?", doc.ID).Error)
		assert.Equal(t, "missing cost breakdown", reloaded.RejectedRemarks)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := svc.Submit(testutil.ContextFor(emp), r, domain.DocTypeNFA, uuid.New())
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestWorkflowService_Approve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newWorkflowService(db)
	dept := testutil.CreateTestDepartment(t, db, "Operations", "OPS")
	otherDept := testutil.CreateTestDepartment(t, db, "Legal", "LEG")
	emp := testutil.CreateTestUser(t, db, "empapprove", domain.RoleEmp, &dept.ID)
	hod := testutil.CreateTestUser(t, db, "hodapprove", domain.RoleHOD, &dept.ID)
	otherHOD := testutil.CreateTestUser(t, db, "hodother", domain.RoleHOD, &otherDept.ID)
	r := httptest.NewRequest("POST", "/", nil)

	t.Run("department head approves submitted document", func(t *testing.T) {
		doc := createWorkflowDoc(t, db, domain.StatusSubmitted, emp, &dept.ID)
		att := addAttachment(t, db, doc, emp)

		dto, err := svc.Approve(testutil.ContextFor(hod), r, doc.DocType, doc.ID,
			&domain.ApproveDocumentRequest{Comments: "looks good"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, dto.Status)

		// Attachments are frozen once the document is approved
		var reloadedAtt domain.Attachment
		require.NoError(t, db.First(&reloadedAtt, "id = ?", att.ID).Error)
		assert.True(t, reloadedAtt.IsReadonly)

		var entries []domain.ApprovalHistory
		require.NoError(t, db.Where("document_id = ?", doc.ID).Find(&entries).Error)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.ActionApproved, entries[0].Action)
		assert.Equal(t, "looks good", entries[0].Comments)
		assert.Equal(t, hod.ID, entries[0].ApprovedByID)

		// Creator hears about the decision
		var notifications []domain.Notification
		require.NoError(t, db.Where("document_id = ? AND user_id = ?", doc.ID, emp.ID).Find(&notifications).Error)
		require.Len(t, notifications, 1)
		assert.Equal(t, string(domain.NotificationTypeDocumentApproved), notifications[0].Type)
	})

	t.Run("admin approves regardless of department", func(t *testing.T) {
		admin := testutil.SeededAdmin(t, db)
		doc := createWorkflowDoc(t, db, domain.StatusSubmitted, emp, &dept.ID)
		addAttachment(t, db, doc, emp)

		dto, err := svc.Approve(testutil.ContextFor(admin), r, doc.DocType, doc.ID,
			&domain.ApproveDocumentRequest{Comments: "countersigned"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, dto.Status)

		var entries []domain.ApprovalHistory
		require.NoError(t, db.Where("document_id = ?", doc.ID).Find(&entries).Error)
		require.Len(t, entries, 1)
		assert.Equal(t, admin.ID, entries[0].ApprovedByID)
	})

	t.Run("department head can approve a document recorded under their name", func(t *testing.T) {
		doc := createWorkflowDoc(t, db, domain.StatusSubmitted, hod, &dept.ID)
		addAttachment(t, db, doc, hod)

		dto, err := svc.Approve(testutil.ContextFor(hod), r, doc.DocType, doc.ID, &domain.ApproveDocumentRequest{})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, dto.Status)
	})

	t.Run("head of another department cannot approve", func(t *testing.T) {
		doc := createWorkflowDoc(t, db, domain.StatusSubmitted, emp, &dept.ID)
		addAttachment(t, db, doc, emp)

		_, err := svc.Approve(testutil.ContextFor(otherHOD), r, doc.DocType, doc.ID, &domain.ApproveDocumentRequest{})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("employee cannot approve", func(t *testing.T) {
		other := testutil.CreateTestUser(t, db, "empother", domain.RoleEmp, &dept.ID)
		doc := createWorkflowDoc(t, db, domain.StatusSubmitted, other, &dept.ID)
		addAttachment(t, db, doc, other)

		_, err := svc.Approve(testutil.ContextFor(emp), r, doc.DocType, doc.ID, &domain.ApproveDocumentRequest{})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("approve requires submitted status", func(t *testing.T) {
		doc := createWorkflowDoc(t, db, domain.StatusDraft, emp, &dept.ID)

		_, err := svc.Approve(testutil.ContextFor(hod), r, doc.DocType, doc.ID, &domain.ApproveDocumentRequest{})
		assert.ErrorIs(t, err, service.ErrInvalidState)
	})
}

func TestWorkflowService_Reject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newWorkflowService(db)
	dept := testutil.CreateTestDepartment(t, db, "Procurement", "PRC")
	emp := testutil.CreateTestUser(t, db, "empreject", domain.RoleEmp, &dept.ID)
	hod := testutil.CreateTestUser(t, db, "hodreject", domain.RoleHOD, &dept.ID)
	r := httptest.NewRequest("POST", "/", nil)

	t.Run("rejection requires comments", func(t *testing.T) {
		doc := createWorkflowDoc(t, db, domain.StatusSubmitted, emp, &dept.ID)

		_, err := svc.Reject(testutil.ContextFor(hod), r, doc.DocType, doc.ID,
			&domain.RejectDocumentRequest{Comments: ""})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("reject records remarks and history", func(t *testing.T) {
		doc := createWorkflowDoc(t, db, domain.StatusSubmitted, emp, &dept.ID)
		addAttachment(t, db, doc, emp)

		dto, err := svc.Reject(testutil.ContextFor(hod), r, doc.DocType, doc.ID,
			&domain.RejectDocumentRequest{Comments: "wrong vendor quote attached"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRejected, dto.Status)
		assert.Equal(t, "wrong vendor quote attached", dto.RejectedRemarks)

		var entries []domain.ApprovalHistory
		require.NoError(t, db.Where("document_id = ?", doc.ID).Find(&entries).Error)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.ActionRejected, entries[0].Action)
		assert.Equal(t, "wrong vendor quote attached", entries[0].Comments)

		var notifications []domain.Notification
		require.NoError(t, db.Where("document_id = ? AND user_id = ?", doc.ID, emp.ID).Find(&notifications).Error)
		require.Len(t, notifications, 1)
		assert.Equal(t, string(domain.NotificationTypeDocumentRejected), notifications[0].Type)
	})

	t.Run("admin can reject", func(t *testing.T) {
		admin := testutil.SeededAdmin(t, db)
		doc := createWorkflowDoc(t, db, domain.StatusSubmitted, emp, &dept.ID)
		addAttachment(t, db, doc, emp)

		dto, err := svc.Reject(testutil.ContextFor(admin), r, doc.DocType, doc.ID,
			&domain.RejectDocumentRequest{Comments: "does not meet policy"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRejected, dto.Status)
	})

	t.Run("reject requires submitted status", func(t *testing.T) {
		doc := createWorkflowDoc(t, db, domain.StatusApproved, emp, &dept.ID)

		_, err := svc.Reject(testutil.ContextFor(hod), r, doc.DocType, doc.ID,
			&domain.RejectDocumentRequest{Comments: "too late"})
		assert.ErrorIs(t, err, service.ErrInvalidState)
	})

	t.Run("full cycle builds an append-only ledger", func(t *testing.T) {
		doc := createWorkflowDoc(t, db, domain.StatusDraft, emp, &dept.ID)
		addAttachment(t, db, doc, emp)
		ctx := testutil.ContextFor(emp)

		_, err := svc.Submit(ctx, r, doc.DocType, doc.ID)
		require.NoError(t, err)
		_, err = svc.Reject(testutil.ContextFor(hod), r, doc.DocType, doc.ID,
			&domain.RejectDocumentRequest{Comments: "needs detail"})
		require.NoError(t, err)
		_, err = svc.Submit(ctx, r, doc.DocType, doc.ID)
		require.NoError(t, err)
		dto, err := svc.Approve(testutil.ContextFor(hod), r, doc.DocType, doc.ID,
			&domain.ApproveDocumentRequest{})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, dto.Status)

		var entries []domain.ApprovalHistory
		require.NoError(t, db.Where("document_id = ?", doc.ID).Order("approved_at ASC").Find(&entries).Error)
		require.Len(t, entries, 4)
		assert.Equal(t, domain.ActionSubmitted, entries[0].Action)
		assert.Equal(t, domain.ActionRejected, entries[1].Action)
		assert.Equal(t, domain.ActionSubmitted, entries[2].Action)
		assert.Equal(t, domain.ActionApproved, entries[3].Action)

		// The rejection remarks survive the resubmission and the approval
		var reloaded domain.Document
		require.NoError(t, db.First(&reloaded, "id = ?", doc.ID).Error)
		assert.Equal(t, "needs detail", reloaded.RejectedRemarks)
	})
}
