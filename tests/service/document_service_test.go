package service_test

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/repository"
	"github.com/kspl/approval-api/internal/service"
	"github.com/kspl/approval-api/internal/storage"
	"github.com/kspl/approval-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newDocumentService(t *testing.T, db *gorm.DB) *service.DocumentService {
	t.Helper()
	log := zap.NewNop()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return service.NewDocumentService(
		db,
		repository.NewDocumentRepository(db),
		repository.NewAttachmentRepository(db),
		repository.NewApprovalHistoryRepository(db),
		service.NewReferenceService(repository.NewReferenceSequenceRepository(db), log),
		service.NewAuditLogService(repository.NewAuditLogRepository(db), log),
		store,
		log,
	)
}

func TestDocumentService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newDocumentService(t, db)
	dept := testutil.CreateTestDepartment(t, db, "Finance", "FIN")
	emp := testutil.CreateTestUser(t, db, "empcreate", domain.RoleEmp, &dept.ID)
	r := httptest.NewRequest("POST", "/", nil)

	t.Run("generates sequential reference numbers", func(t *testing.T) {
		amount := 12500.00
		period := time.Now().UTC().Format("200601")

		first, err := svc.Create(testutil.ContextFor(emp), r, domain.DocTypeNFA,
			&domain.CreateDocumentRequest{Title: "Office chairs", Amount: &amount})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("NFA-%s-00001", period), first.ReferenceNumber)
		assert.Equal(t, domain.StatusDraft, first.Status)
		require.NotNil(t, first.DepartmentID)
		assert.Equal(t, dept.ID, *first.DepartmentID)
		require.NotNil(t, first.Amount)
		assert.Equal(t, amount, *first.Amount)

		second, err := svc.Create(testutil.ContextFor(emp), r, domain.DocTypeNFA,
			&domain.CreateDocumentRequest{Title: "Office desks"})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("NFA-%s-00002", period), second.ReferenceNumber)
	})

	t.Run("counters are independent per document type", func(t *testing.T) {
		period := time.Now().UTC().Format("200601")
		dto, err := svc.Create(testutil.ContextFor(emp), r, domain.DocTypeWorkOrder,
			&domain.CreateDocumentRequest{Title: "Server maintenance", VendorName: "Acme"})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("WO-%s-00001", period), dto.ReferenceNumber)
		assert.Equal(t, "Acme", dto.VendorName)
	})

	t.Run("supplied reference number must be unique", func(t *testing.T) {
		_, err := svc.Create(testutil.ContextFor(emp), r, domain.DocTypeAgreement,
			&domain.CreateDocumentRequest{Title: "NDA", ReferenceNumber: "AGR-LEGACY-1"})
		require.NoError(t, err)

		_, err = svc.Create(testutil.ContextFor(emp), r, domain.DocTypeAgreement,
			&domain.CreateDocumentRequest{Title: "Another NDA", ReferenceNumber: "AGR-LEGACY-1"})
		assert.ErrorIs(t, err, service.ErrDuplicateReference)
	})

	t.Run("ignores fields of other document types", func(t *testing.T) {
		amount := 999.0
		dto, err := svc.Create(testutil.ContextFor(emp), r, domain.DocTypeAgreement,
			&domain.CreateDocumentRequest{Title: "Lease", PartyName: "Landlord AS", Amount: &amount})
		require.NoError(t, err)
		assert.Equal(t, "Landlord AS", dto.PartyName)
		assert.Nil(t, dto.Amount)
	})

	t.Run("admin may file into another department", func(t *testing.T) {
		other := testutil.CreateTestDepartment(t, db, "IT", "IT")
		admin := testutil.SeededAdmin(t, db)

		dto, err := svc.Create(testutil.ContextFor(admin), r, domain.DocTypeNFA,
			&domain.CreateDocumentRequest{Title: "Laptops", DepartmentID: &other.ID})
		require.NoError(t, err)
		require.NotNil(t, dto.DepartmentID)
		assert.Equal(t, other.ID, *dto.DepartmentID)
	})

	t.Run("department heads cannot create documents", func(t *testing.T) {
		hod := testutil.CreateTestUser(t, db, "hodcreate", domain.RoleHOD, &dept.ID)
		_, err := svc.Create(testutil.ContextFor(hod), r, domain.DocTypeNFA,
			&domain.CreateDocumentRequest{Title: "Not allowed"})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("rejects unknown document type", func(t *testing.T) {
		_, err := svc.Create(testutil.ContextFor(emp), r, domain.DocumentType("invoice"),
			&domain.CreateDocumentRequest{Title: "Nope"})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestDocumentService_Visibility(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newDocumentService(t, db)
	dept := testutil.CreateTestDepartment(t, db, "Operations", "OPS")
	owner := testutil.CreateTestUser(t, db, "owner", domain.RoleEmp, &dept.ID)
	colleague := testutil.CreateTestUser(t, db, "colleague", domain.RoleEmp, &dept.ID)
	hod := testutil.CreateTestUser(t, db, "hodvis", domain.RoleHOD, &dept.ID)
	admin := testutil.SeededAdmin(t, db)
	r := httptest.NewRequest("POST", "/", nil)

	draft, err := svc.Create(testutil.ContextFor(owner), r, domain.DocTypeNFA,
		&domain.CreateDocumentRequest{Title: "Draft proposal"})
	require.NoError(t, err)

	submitted := &domain.Document{
		DocType:         domain.DocTypeNFA,
		ReferenceNumber: "NFA-VIS-1",
		Title:           "Submitted proposal",
		Status:          domain.StatusSubmitted,
		DepartmentID:    &dept.ID,
		CreatedByID:     owner.ID,
	}
	require.NoError(t, db.Create(submitted).Error)

	t.Run("owner sees own draft", func(t *testing.T) {
		dto, err := svc.GetByID(testutil.ContextFor(owner), domain.DocTypeNFA, draft.ID)
		require.NoError(t, err)
		assert.Equal(t, draft.ID, dto.ID)
	})

	t.Run("colleague cannot see someone else's document", func(t *testing.T) {
		_, err := svc.GetByID(testutil.ContextFor(colleague), domain.DocTypeNFA, draft.ID)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("department head sees submitted but not drafts", func(t *testing.T) {
		_, err := svc.GetByID(testutil.ContextFor(hod), domain.DocTypeNFA, submitted.ID)
		assert.NoError(t, err)

		_, err = svc.GetByID(testutil.ContextFor(hod), domain.DocTypeNFA, draft.ID)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("admin opens any document", func(t *testing.T) {
		_, err := svc.GetByID(testutil.ContextFor(admin), domain.DocTypeNFA, draft.ID)
		assert.NoError(t, err)
	})

	t.Run("list scoping per role", func(t *testing.T) {
		approved := &domain.Document{
			DocType:         domain.DocTypeNFA,
			ReferenceNumber: "NFA-VIS-2",
			Title:           "Approved proposal",
			Status:          domain.StatusApproved,
			DepartmentID:    &dept.ID,
			CreatedByID:     owner.ID,
		}
		require.NoError(t, db.Create(approved).Error)

		ownerList, err := svc.List(testutil.ContextFor(owner), domain.DocTypeNFA, &domain.DocumentListFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), ownerList.Total)

		colleagueList, err := svc.List(testutil.ContextFor(colleague), domain.DocTypeNFA, &domain.DocumentListFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), colleagueList.Total)

		// A draft recorded under the head's own name stays out of their listing
		hodDraft := &domain.Document{
			DocType:         domain.DocTypeNFA,
			ReferenceNumber: "NFA-VIS-3",
			Title:           "Head's own note",
			Status:          domain.StatusDraft,
			DepartmentID:    &dept.ID,
			CreatedByID:     hod.ID,
		}
		require.NoError(t, db.Create(hodDraft).Error)

		hodList, err := svc.List(testutil.ContextFor(hod), domain.DocTypeNFA, &domain.DocumentListFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), hodList.Total)
		for _, dto := range hodList.Data.([]domain.DocumentDTO) {
			assert.NotEqual(t, domain.StatusDraft, dto.Status)
		}

		// Admin overviews only carry approved documents
		adminList, err := svc.List(testutil.ContextFor(admin), domain.DocTypeNFA, &domain.DocumentListFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), adminList.Total)
	})

	t.Run("documents do not follow an employee to a new department", func(t *testing.T) {
		moved := testutil.CreateTestDepartment(t, db, "Warehouse", "WH")
		require.NoError(t, db.Model(&domain.User{}).
			Where("id = ?", owner.ID).
			Update("department_id", moved.ID).Error)

		var reloaded domain.User
		require.NoError(t, db.Preload("Roles.Permissions").First(&reloaded, "id = ?", owner.ID).Error)

		list, err := svc.List(testutil.ContextFor(&reloaded), domain.DocTypeNFA, &domain.DocumentListFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), list.Total)
	})
}

func TestDocumentService_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newDocumentService(t, db)
	dept := testutil.CreateTestDepartment(t, db, "Legal", "LEG")
	owner := testutil.CreateTestUser(t, db, "updowner", domain.RoleEmp, &dept.ID)
	other := testutil.CreateTestUser(t, db, "updother", domain.RoleEmp, &dept.ID)
	r := httptest.NewRequest("PUT", "/", nil)

	newTitle := "Revised title"

	t.Run("owner edits a draft", func(t *testing.T) {
		dto, err := svc.Create(testutil.ContextFor(owner), r, domain.DocTypeNFA,
			&domain.CreateDocumentRequest{Title: "Original title"})
		require.NoError(t, err)

		updated, err := svc.Update(testutil.ContextFor(owner), r, domain.DocTypeNFA, dto.ID,
			&domain.UpdateDocumentRequest{Title: &newTitle})
		require.NoError(t, err)
		assert.Equal(t, newTitle, updated.Title)
		assert.Equal(t, dto.ReferenceNumber, updated.ReferenceNumber)
	})

	t.Run("submitted documents are frozen", func(t *testing.T) {
		doc := &domain.Document{
			DocType:         domain.DocTypeNFA,
			ReferenceNumber: "NFA-UPD-1",
			Title:           "Locked",
			Status:          domain.StatusSubmitted,
			DepartmentID:    &dept.ID,
			CreatedByID:     owner.ID,
		}
		require.NoError(t, db.Create(doc).Error)

		_, err := svc.Update(testutil.ContextFor(owner), r, domain.DocTypeNFA, doc.ID,
			&domain.UpdateDocumentRequest{Title: &newTitle})
		assert.ErrorIs(t, err, service.ErrImmutableDocument)
	})

	t.Run("rejected documents may be edited before resubmission", func(t *testing.T) {
		doc := &domain.Document{
			DocType:         domain.DocTypeNFA,
			ReferenceNumber: "NFA-UPD-2",
			Title:           "Sent back",
			Status:          domain.StatusRejected,
			DepartmentID:    &dept.ID,
			CreatedByID:     owner.ID,
		}
		require.NoError(t, db.Create(doc).Error)

		updated, err := svc.Update(testutil.ContextFor(owner), r, domain.DocTypeNFA, doc.ID,
			&domain.UpdateDocumentRequest{Title: &newTitle})
		require.NoError(t, err)
		assert.Equal(t, newTitle, updated.Title)
	})

	t.Run("non-owner cannot edit", func(t *testing.T) {
		dto, err := svc.Create(testutil.ContextFor(owner), r, domain.DocTypeNFA,
			&domain.CreateDocumentRequest{Title: "Private draft"})
		require.NoError(t, err)

		_, err = svc.Update(testutil.ContextFor(other), r, domain.DocTypeNFA, dto.ID,
			&domain.UpdateDocumentRequest{Title: &newTitle})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newDocumentService(t, db)
	dept := testutil.CreateTestDepartment(t, db, "Facilities", "FAC")
	owner := testutil.CreateTestUser(t, db, "delowner", domain.RoleEmp, &dept.ID)
	admin := testutil.SeededAdmin(t, db)
	r := httptest.NewRequest("DELETE", "/", nil)

	t.Run("owner deletes a draft with its attachments", func(t *testing.T) {
		dto, err := svc.Create(testutil.ContextFor(owner), r, domain.DocTypeNFA,
			&domain.CreateDocumentRequest{Title: "Throwaway"})
		require.NoError(t, err)

		att := &domain.Attachment{
			DocType:      domain.DocTypeNFA,
			DocumentID:   dto.ID,
			Filename:     "scan.pdf",
			ContentType:  "application/pdf",
			Size:         10,
			StoragePath:  "nfa/" + uuid.NewString() + ".pdf",
			UploadedByID: owner.ID,
		}
		require.NoError(t, db.Create(att).Error)

		require.NoError(t, svc.Delete(testutil.ContextFor(owner), r, domain.DocTypeNFA, dto.ID))

		var docCount, attCount int64
		db.Model(&domain.Document{}).Where("id = ?", dto.ID).Count(&docCount)
		db.Model(&domain.Attachment{}).Where("document_id = ?", dto.ID).Count(&attCount)
		assert.Zero(t, docCount)
		assert.Zero(t, attCount)
	})

	t.Run("owner deletes a rejected document", func(t *testing.T) {
		doc := &domain.Document{
			DocType:         domain.DocTypeNFA,
			ReferenceNumber: "NFA-DEL-1",
			Title:           "Withdrawn",
			Status:          domain.StatusRejected,
			RejectedRemarks: "not this quarter",
			DepartmentID:    &dept.ID,
			CreatedByID:     owner.ID,
		}
		require.NoError(t, db.Create(doc).Error)

		require.NoError(t, svc.Delete(testutil.ContextFor(owner), r, domain.DocTypeNFA, doc.ID))

		var count int64
		db.Model(&domain.Document{}).Where("id = ?", doc.ID).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("owner cannot delete an approved document", func(t *testing.T) {
		doc := &domain.Document{
			DocType:         domain.DocTypeNFA,
			ReferenceNumber: "NFA-DEL-2",
			Title:           "On the record",
			Status:          domain.StatusApproved,
			DepartmentID:    &dept.ID,
			CreatedByID:     owner.ID,
		}
		require.NoError(t, db.Create(doc).Error)

		err := svc.Delete(testutil.ContextFor(owner), r, domain.DocTypeNFA, doc.ID)
		assert.ErrorIs(t, err, service.ErrImmutableDocument)
	})

	t.Run("admin deletes an approved document", func(t *testing.T) {
		doc := &domain.Document{
			DocType:         domain.DocTypeNFA,
			ReferenceNumber: "NFA-DEL-3",
			Title:           "Purged by administration",
			Status:          domain.StatusApproved,
			DepartmentID:    &dept.ID,
			CreatedByID:     owner.ID,
		}
		require.NoError(t, db.Create(doc).Error)

		require.NoError(t, svc.Delete(testutil.ContextFor(admin), r, domain.DocTypeNFA, doc.ID))

		var count int64
		db.Model(&domain.Document{}).Where("id = ?", doc.ID).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("stranger cannot delete someone else's document", func(t *testing.T) {
		stranger := testutil.CreateTestUser(t, db, "delstranger", domain.RoleEmp, &dept.ID)
		doc := &domain.Document{
			DocType:         domain.DocTypeNFA,
			ReferenceNumber: "NFA-DEL-4",
			Title:           "Not yours",
			Status:          domain.StatusDraft,
			DepartmentID:    &dept.ID,
			CreatedByID:     owner.ID,
		}
		require.NoError(t, db.Create(doc).Error)

		err := svc.Delete(testutil.ContextFor(stranger), r, domain.DocTypeNFA, doc.ID)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})
}

func TestDocumentService_GetHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newDocumentService(t, db)
	dept := testutil.CreateTestDepartment(t, db, "Accounts", "ACC")
	owner := testutil.CreateTestUser(t, db, "histowner", domain.RoleEmp, &dept.ID)
	outsider := testutil.CreateTestUser(t, db, "histother", domain.RoleEmp, &dept.ID)

	doc := &domain.Document{
		DocType:         domain.DocTypeNFA,
		ReferenceNumber: "NFA-HIST-1",
		Title:           "With history",
		Status:          domain.StatusSubmitted,
		DepartmentID:    &dept.ID,
		CreatedByID:     owner.ID,
	}
	require.NoError(t, db.Create(doc).Error)
	require.NoError(t, db.Create(&domain.ApprovalHistory{
		DocType:      domain.DocTypeNFA,
		DocumentID:   doc.ID,
		Action:       domain.ActionSubmitted,
		ApprovedByID: owner.ID,
		ApprovedAt:   time.Now().UTC(),
	}).Error)

	t.Run("owner reads the ledger", func(t *testing.T) {
		entries, err := svc.GetHistory(testutil.ContextFor(owner), domain.DocTypeNFA, doc.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.ActionSubmitted, entries[0].Action)
	})

	t.Run("visibility applies to history too", func(t *testing.T) {
		_, err := svc.GetHistory(testutil.ContextFor(outsider), domain.DocTypeNFA, doc.ID)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})
}
