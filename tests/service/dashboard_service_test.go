package service_test

import (
	"context"
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

func newDashboardService(db *gorm.DB) *service.DashboardService {
	return service.NewDashboardService(repository.NewDocumentRepository(db), zap.NewNop())
}

func seedDashboardDoc(t *testing.T, db *gorm.DB, docType domain.DocumentType, status domain.DocumentStatus, creator *domain.User, departmentID *uuid.UUID) {
	t.Helper()
	doc := &domain.Document{
		DocType:         docType,
		ReferenceNumber: "DASH-" + uuid.NewString()[:8],
		Title:           "dashboard fixture",
		Status:          status,
		DepartmentID:    departmentID,
		CreatedByID:     creator.ID,
	}
	require.NoError(t, db.Create(doc).Error)
}

func TestDashboardService_GetStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newDashboardService(db)
	dept := testutil.CreateTestDepartment(t, db, "Dash", "DSH")
	otherDept := testutil.CreateTestDepartment(t, db, "Elsewhere", "ELS")
	emp := testutil.CreateTestUser(t, db, "dashemp", domain.RoleEmp, &dept.ID)
	hod := testutil.CreateTestUser(t, db, "dashhod", domain.RoleHOD, &dept.ID)
	stranger := testutil.CreateTestUser(t, db, "dashout", domain.RoleEmp, &otherDept.ID)

	seedDashboardDoc(t, db, domain.DocTypeNFA, domain.StatusDraft, emp, &dept.ID)
	seedDashboardDoc(t, db, domain.DocTypeNFA, domain.StatusSubmitted, emp, &dept.ID)
	seedDashboardDoc(t, db, domain.DocTypeWorkOrder, domain.StatusSubmitted, emp, &dept.ID)
	seedDashboardDoc(t, db, domain.DocTypeNFA, domain.StatusRejected, emp, &dept.ID)
	seedDashboardDoc(t, db, domain.DocTypeNFA, domain.StatusSubmitted, stranger, &otherDept.ID)

	t.Run("employee sees only own documents", func(t *testing.T) {
		stats, err := svc.GetStats(testutil.ContextFor(emp))
		require.NoError(t, err)

		assert.Equal(t, int64(3), stats.CountsByType[domain.DocTypeNFA])
		assert.Equal(t, int64(1), stats.CountsByType[domain.DocTypeWorkOrder])
		assert.Equal(t, int64(2), stats.CountsByStatus[domain.StatusSubmitted])
		assert.Equal(t, int64(1), stats.MyDrafts)
		assert.Equal(t, int64(1), stats.MyRejected)
		assert.Zero(t, stats.PendingApprovals)
	})

	t.Run("department head sees the approval queue", func(t *testing.T) {
		stats, err := svc.GetStats(testutil.ContextFor(hod))
		require.NoError(t, err)

		// Submitted documents in the head's department, none elsewhere
		assert.Equal(t, int64(2), stats.PendingApprovals)
		assert.Zero(t, stats.MyDrafts)
		assert.Equal(t, int64(2), stats.CountsByStatus[domain.StatusSubmitted])
	})

	t.Run("requires a user context", func(t *testing.T) {
		_, err := svc.GetStats(context.Background())
		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})
}
