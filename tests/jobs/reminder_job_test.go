package jobs_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/jobs"
	"github.com/kspl/approval-api/internal/repository"
	"github.com/kspl/approval-api/internal/service"
	"github.com/kspl/approval-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newReminderJob(db *gorm.DB, windowDays int) *jobs.DueDateReminderJob {
	log := zap.NewNop()
	notificationRepo := repository.NewNotificationRepository(db)
	return jobs.NewDueDateReminderJob(
		repository.NewDocumentRepository(db),
		notificationRepo,
		service.NewNotificationService(notificationRepo, log),
		windowDays,
		log,
		time.Minute,
	)
}

func createStatutoryDoc(t *testing.T, db *gorm.DB, owner *domain.User, departmentID *uuid.UUID, status domain.DocumentStatus, dueDate *time.Time) *domain.Document {
	t.Helper()
	doc := &domain.Document{
		DocType:         domain.DocTypeStatutoryDocument,
		ReferenceNumber: "STAT-" + uuid.NewString()[:8],
		Title:           "GST filing",
		Status:          status,
		DepartmentID:    departmentID,
		CreatedByID:     owner.ID,
		DueDate:         dueDate,
	}
	require.NoError(t, db.Create(doc).Error)
	return doc
}

func unreadReminders(t *testing.T, db *gorm.DB, userID uuid.UUID) []domain.Notification {
	t.Helper()
	var notifications []domain.Notification
	require.NoError(t, db.
		Where("user_id = ? AND type = ?", userID, string(domain.NotificationTypeDueDateReminder)).
		Find(&notifications).Error)
	return notifications
}

func TestDueDateReminderJob_Run(t *testing.T) {
	db := testutil.SetupTestDB(t)
	dept := testutil.CreateTestDepartment(t, db, "Compliance", "CMP")
	owner := testutil.CreateTestUser(t, db, "filer", domain.RoleEmp, &dept.ID)
	job := newReminderJob(db, 7)

	soon := time.Now().UTC().AddDate(0, 0, 3)
	farAway := time.Now().UTC().AddDate(0, 0, 30)
	overdue := time.Now().UTC().AddDate(0, 0, -2)

	due := createStatutoryDoc(t, db, owner, &dept.ID, domain.StatusApproved, &soon)
	createStatutoryDoc(t, db, owner, &dept.ID, domain.StatusApproved, &farAway)
	createStatutoryDoc(t, db, owner, &dept.ID, domain.StatusApproved, &overdue)
	createStatutoryDoc(t, db, owner, &dept.ID, domain.StatusApproved, nil)

	job.Run()

	reminders := unreadReminders(t, db, owner.ID)
	require.Len(t, reminders, 1)
	require.NotNil(t, reminders[0].DocumentID)
	assert.Equal(t, due.ID, *reminders[0].DocumentID)
	assert.Contains(t, reminders[0].Message, due.ReferenceNumber)
	assert.Contains(t, reminders[0].Message, soon.Format("2006-01-02"))
}

func TestDueDateReminderJob_NoDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	dept := testutil.CreateTestDepartment(t, db, "Tax", "TAX")
	owner := testutil.CreateTestUser(t, db, "taxfiler", domain.RoleEmp, &dept.ID)
	job := newReminderJob(db, 7)

	soon := time.Now().UTC().AddDate(0, 0, 5)
	createStatutoryDoc(t, db, owner, &dept.ID, domain.StatusApproved, &soon)

	job.Run()
	job.Run()

	assert.Len(t, unreadReminders(t, db, owner.ID), 1)
}
