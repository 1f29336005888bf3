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

func newDepartmentService(db *gorm.DB) *service.DepartmentService {
	log := zap.NewNop()
	return service.NewDepartmentService(
		repository.NewDepartmentRepository(db),
		service.NewAuditLogService(repository.NewAuditLogRepository(db), log),
		log,
	)
}

func TestDepartmentService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newDepartmentService(db)
	admin := testutil.SeededAdmin(t, db)
	ctx := testutil.ContextFor(admin)
	r := httptest.NewRequest("POST", "/", nil)

	t.Run("normalizes the code to upper case", func(t *testing.T) {
		dto, err := svc.Create(ctx, r, "Human Resources", "hr")
		require.NoError(t, err)
		assert.Equal(t, "HR", dto.Code)
		assert.Equal(t, "Human Resources", dto.Name)
	})

	t.Run("codes are unique", func(t *testing.T) {
		_, err := svc.Create(ctx, r, "Hiring", "HR")
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("name and code are required", func(t *testing.T) {
		_, err := svc.Create(ctx, r, "", "XX")
		assert.ErrorIs(t, err, service.ErrInvalidInput)

		_, err = svc.Create(ctx, r, "Nameless", "  ")
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestDepartmentService_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newDepartmentService(db)
	admin := testutil.SeededAdmin(t, db)
	ctx := testutil.ContextFor(admin)
	r := httptest.NewRequest("PUT", "/", nil)
	dept := testutil.CreateTestDepartment(t, db, "Old Name", "OLD")

	dto, err := svc.Update(ctx, r, dept.ID, "New Name")
	require.NoError(t, err)
	assert.Equal(t, "New Name", dto.Name)
	assert.Equal(t, "OLD", dto.Code)

	_, err = svc.Update(ctx, r, uuid.New(), "Whatever")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDepartmentService_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newDepartmentService(db)
	admin := testutil.SeededAdmin(t, db)
	ctx := testutil.ContextFor(admin)
	r := httptest.NewRequest("DELETE", "/", nil)

	t.Run("departments with members cannot be deleted", func(t *testing.T) {
		dept := testutil.CreateTestDepartment(t, db, "Busy", "BSY")
		testutil.CreateTestUser(t, db, "member", domain.RoleEmp, &dept.ID)

		err := svc.Delete(ctx, r, dept.ID)
		assert.ErrorIs(t, err, service.ErrDepartmentInUse)
	})

	t.Run("empty departments can be deleted", func(t *testing.T) {
		dept := testutil.CreateTestDepartment(t, db, "Empty", "EMP")
		require.NoError(t, svc.Delete(ctx, r, dept.ID))

		_, err := svc.GetByID(ctx, dept.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}
