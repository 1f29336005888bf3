package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kspl/approval-api/docs"
	"github.com/kspl/approval-api/internal/auth"
	"github.com/kspl/approval-api/internal/config"
	"github.com/kspl/approval-api/internal/database"
	"github.com/kspl/approval-api/internal/http/handler"
	"github.com/kspl/approval-api/internal/http/middleware"
	"github.com/kspl/approval-api/internal/http/router"
	"github.com/kspl/approval-api/internal/jobs"
	"github.com/kspl/approval-api/internal/logger"
	"github.com/kspl/approval-api/internal/repository"
	"github.com/kspl/approval-api/internal/service"
	"github.com/kspl/approval-api/internal/storage"
	"go.uber.org/zap"
)

// @title Approval API
// @version 1.0
// @description Departmental document approval API: NFAs, work orders, contracts, agreements and statutory documents with a submit/approve/reject workflow.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.App.Port)

	// Connect to database with retry logic
	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Ensure baseline roles, permissions and admin account
	if err := database.Seed(ctx, db, cfg.Auth.InitialAdminPassword, log); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	// Initialize storage
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize repositories
	docRepo := repository.NewDocumentRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	historyRepo := repository.NewApprovalHistoryRepository(db)
	seqRepo := repository.NewReferenceSequenceRepository(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	deptRepo := repository.NewDepartmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)
	workflowConfigRepo := repository.NewWorkflowConfigRepository(db)

	// Initialize services
	auditLogService := service.NewAuditLogService(auditLogRepo, log)
	notificationService := service.NewNotificationService(notificationRepo, log)
	referenceService := service.NewReferenceService(seqRepo, log)
	documentService := service.NewDocumentService(db, docRepo, attachmentRepo, historyRepo, referenceService, auditLogService, fileStorage, log)
	workflowService := service.NewWorkflowService(db, docRepo, attachmentRepo, historyRepo, userRepo, notificationService, auditLogService, log)
	attachmentService := service.NewAttachmentService(docRepo, attachmentRepo, fileStorage, auditLogService, &cfg.Storage, log)
	userService := service.NewUserService(userRepo, roleRepo, deptRepo, auditLogService, log)
	roleService := service.NewRoleService(roleRepo, auditLogService, log)
	departmentService := service.NewDepartmentService(deptRepo, auditLogService, log)
	dashboardService := service.NewDashboardService(docRepo, log)
	workflowConfigService := service.NewWorkflowConfigService(workflowConfigRepo, roleRepo, auditLogService, log)

	// Auth
	tokens := auth.NewTokenManager(&cfg.Auth)
	authService := service.NewAuthService(userRepo, tokens, auditLogService, log)
	authMiddleware := auth.NewMiddleware(tokens, userRepo, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, userService, log)
	documentHandler := handler.NewDocumentHandler(documentService, workflowService, log)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService, log)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, log)
	notificationHandler := handler.NewNotificationHandler(notificationService, log)
	userHandler := handler.NewUserHandler(userService, log)
	roleHandler := handler.NewRoleHandler(roleService, log)
	departmentHandler := handler.NewDepartmentHandler(departmentService, log)
	workflowConfigHandler := handler.NewWorkflowConfigHandler(workflowConfigService, log)
	auditHandler := handler.NewAuditHandler(auditLogService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		authHandler,
		documentHandler,
		attachmentHandler,
		dashboardHandler,
		notificationHandler,
		userHandler,
		roleHandler,
		departmentHandler,
		workflowConfigHandler,
		auditHandler,
	)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.DueDateReminderEnabled {
		scheduler = jobs.NewScheduler(log)
		if err := jobs.RegisterDueDateReminderJob(
			scheduler,
			docRepo,
			notificationRepo,
			notificationService,
			cfg.Jobs.DueDateReminderDays,
			log,
			cfg.Jobs.DueDateReminderSchedule,
		); err != nil {
			log.Error("Failed to register due date reminder job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started",
				zap.String("cron_expr", cfg.Jobs.DueDateReminderSchedule),
				zap.Int("reminder_window_days", cfg.Jobs.DueDateReminderDays),
			)
		}
	} else {
		log.Info("Due date reminder job disabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
