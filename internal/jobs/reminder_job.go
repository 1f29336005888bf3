package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/repository"
	"github.com/kspl/approval-api/internal/service"
	"go.uber.org/zap"
)

// DueDateReminderJobName is the name of the due-date reminder job
const DueDateReminderJobName = "due_date_reminder"

// DueDateReminderJob notifies document owners about statutory filings whose
// due date is coming up. Each owner gets at most one reminder per document.
type DueDateReminderJob struct {
	docRepo          *repository.DocumentRepository
	notificationRepo *repository.NotificationRepository
	notifyService    *service.NotificationService
	windowDays       int
	logger           *zap.Logger
	timeout          time.Duration
}

// NewDueDateReminderJob creates a new due-date reminder job.
// windowDays controls how far ahead of the due date reminders start.
func NewDueDateReminderJob(
	docRepo *repository.DocumentRepository,
	notificationRepo *repository.NotificationRepository,
	notifyService *service.NotificationService,
	windowDays int,
	logger *zap.Logger,
	timeout time.Duration,
) *DueDateReminderJob {
	if windowDays < 1 {
		windowDays = 7
	}
	return &DueDateReminderJob{
		docRepo:          docRepo,
		notificationRepo: notificationRepo,
		notifyService:    notifyService,
		windowDays:       windowDays,
		logger:           logger,
		timeout:          timeout,
	}
}

// Run executes the reminder sweep. Called by the scheduler.
func (j *DueDateReminderJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	now := start.UTC()
	windowEnd := now.AddDate(0, 0, j.windowDays)

	// Only statutory documents carry a due date
	docs, err := j.docRepo.ListDueSoon(ctx, domain.DocTypeStatutoryDocument, now, windowEnd)
	if err != nil {
		j.logger.Error("due date reminder sweep failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	sent := 0
	skipped := 0
	for i := range docs {
		doc := &docs[i]
		if doc.DueDate == nil {
			continue
		}

		exists, err := j.notificationRepo.ExistsReminder(ctx, doc.CreatedByID, doc.DocType, doc.ID)
		if err != nil {
			j.logger.Warn("failed to check existing reminder",
				zap.String("documentID", doc.ID.String()),
				zap.Error(err))
			continue
		}
		if exists {
			skipped++
			continue
		}

		daysLeft := int(doc.DueDate.Sub(now).Hours() / 24)
		message := fmt.Sprintf("%s (%s) is due on %s",
			doc.Title, doc.ReferenceNumber, doc.DueDate.Format("2006-01-02"))

		if err := j.notifyService.NotifyUser(ctx, doc.CreatedByID,
			domain.NotificationTypeDueDateReminder,
			"Statutory document due soon",
			message, doc.DocType, &doc.ID); err != nil {
			j.logger.Warn("failed to create due date reminder",
				zap.String("documentID", doc.ID.String()),
				zap.Error(err))
			continue
		}

		sent++
		j.logger.Debug("due date reminder sent",
			zap.String("documentID", doc.ID.String()),
			zap.Int("days_left", daysLeft))
	}

	j.logger.Info("due date reminder sweep completed",
		zap.Int("documents_due", len(docs)),
		zap.Int("reminders_sent", sent),
		zap.Int("already_reminded", skipped),
		zap.Duration("duration", time.Since(start)))
}

// RegisterDueDateReminderJob registers the reminder job with the scheduler.
// The cronExpr uses the scheduler's six-field format (e.g. "0 0 7 * * *"
// for 07:00 every day).
func RegisterDueDateReminderJob(
	scheduler *Scheduler,
	docRepo *repository.DocumentRepository,
	notificationRepo *repository.NotificationRepository,
	notifyService *service.NotificationService,
	windowDays int,
	logger *zap.Logger,
	cronExpr string,
) error {
	job := NewDueDateReminderJob(docRepo, notificationRepo, notifyService, windowDays, logger, 5*time.Minute)
	return scheduler.AddJob(DueDateReminderJobName, cronExpr, job.Run)
}
