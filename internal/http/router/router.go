package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kspl/approval-api/internal/auth"
	"github.com/kspl/approval-api/internal/config"
	"github.com/kspl/approval-api/internal/database"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/http/handler"
	"github.com/kspl/approval-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/kspl/approval-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                   *config.Config
	logger                *zap.Logger
	db                    *gorm.DB
	authMiddleware        *auth.Middleware
	rateLimiter           *middleware.RateLimiter
	authHandler           *handler.AuthHandler
	documentHandler       *handler.DocumentHandler
	attachmentHandler     *handler.AttachmentHandler
	dashboardHandler      *handler.DashboardHandler
	notificationHandler   *handler.NotificationHandler
	userHandler           *handler.UserHandler
	roleHandler           *handler.RoleHandler
	departmentHandler     *handler.DepartmentHandler
	workflowConfigHandler *handler.WorkflowConfigHandler
	auditHandler          *handler.AuditHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	documentHandler *handler.DocumentHandler,
	attachmentHandler *handler.AttachmentHandler,
	dashboardHandler *handler.DashboardHandler,
	notificationHandler *handler.NotificationHandler,
	userHandler *handler.UserHandler,
	roleHandler *handler.RoleHandler,
	departmentHandler *handler.DepartmentHandler,
	workflowConfigHandler *handler.WorkflowConfigHandler,
	auditHandler *handler.AuditHandler,
) *Router {
	return &Router{
		cfg:                   cfg,
		logger:                logger,
		db:                    db,
		authMiddleware:        authMiddleware,
		rateLimiter:           rateLimiter,
		authHandler:           authHandler,
		documentHandler:       documentHandler,
		attachmentHandler:     attachmentHandler,
		dashboardHandler:      dashboardHandler,
		notificationHandler:   notificationHandler,
		userHandler:           userHandler,
		roleHandler:           roleHandler,
		departmentHandler:     departmentHandler,
		workflowConfigHandler: workflowConfigHandler,
		auditHandler:          auditHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with pool stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(r.Context(), rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats":   stats,
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(r.Context(), rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", rt.authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Auth
			r.Get("/auth/me", rt.authHandler.Me)

			// Documents: CRUD, workflow and attachments per type
			r.Route("/documents/{type}", func(r chi.Router) {
				r.Get("/", rt.documentHandler.List)
				r.Post("/", rt.documentHandler.Create)
				r.Get("/{id}", rt.documentHandler.Get)
				r.Put("/{id}", rt.documentHandler.Update)
				r.Delete("/{id}", rt.documentHandler.Delete)

				// Workflow transitions
				r.Post("/{id}/submit", rt.documentHandler.Submit)
				r.Post("/{id}/approve", rt.documentHandler.Approve)
				r.Post("/{id}/reject", rt.documentHandler.Reject)
				r.Get("/{id}/history", rt.documentHandler.History)

				// Attachments
				r.Get("/{id}/attachments", rt.attachmentHandler.List)
				r.Post("/{id}/attachments", rt.attachmentHandler.Upload)
			})

			// Attachment download/delete by ID
			r.Get("/attachments/{attachmentId}", rt.attachmentHandler.Download)
			r.Delete("/attachments/{attachmentId}", rt.attachmentHandler.Delete)

			// Dashboard
			r.Get("/dashboard/stats", rt.dashboardHandler.Stats)

			// Notifications
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", rt.notificationHandler.List)
				r.Get("/unread-count", rt.notificationHandler.UnreadCount)
				r.Post("/read-all", rt.notificationHandler.MarkAllAsRead)
				r.Post("/{id}/read", rt.notificationHandler.MarkAsRead)
			})

			// Departments (reads for everyone, writes admin only)
			r.Route("/departments", func(r chi.Router) {
				r.Get("/", rt.departmentHandler.List)
				r.Get("/{id}", rt.departmentHandler.Get)

				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequireAdmin)
					r.Post("/", rt.departmentHandler.Create)
					r.Put("/{id}", rt.departmentHandler.Update)
					r.Delete("/{id}", rt.departmentHandler.Delete)
				})
			})

			// User administration
			r.Route("/users", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequirePermission(domain.PermissionUserView))
				r.Get("/", rt.userHandler.List)
				r.Get("/{id}", rt.userHandler.Get)

				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequireAdmin)
					r.Post("/", rt.userHandler.Create)
					r.Put("/{id}", rt.userHandler.Update)
					r.Delete("/{id}", rt.userHandler.Delete)
					r.Post("/{id}/deactivate", rt.userHandler.Deactivate)
					r.Post("/{id}/activate", rt.userHandler.Activate)
				})
			})

			// Roles and permissions (admin only)
			r.Group(func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireAdmin)

				r.Get("/roles", rt.roleHandler.List)
				r.Get("/roles/{id}", rt.roleHandler.Get)
				r.Put("/roles/{id}", rt.roleHandler.Update)
				r.Get("/permissions", rt.roleHandler.ListPermissions)

				// Workflow configurations
				r.Route("/workflow-configs", func(r chi.Router) {
					r.Get("/", rt.workflowConfigHandler.List)
					r.Post("/", rt.workflowConfigHandler.Create)
					r.Get("/{id}", rt.workflowConfigHandler.Get)
					r.Put("/{id}", rt.workflowConfigHandler.Update)
					r.Delete("/{id}", rt.workflowConfigHandler.Delete)
				})

				// Audit logs
				r.Route("/audit-logs", func(r chi.Router) {
					r.Get("/", rt.auditHandler.List)
					r.Get("/stats", rt.auditHandler.Stats)
					r.Get("/{entityType}/{entityId}", rt.auditHandler.GetByEntity)
				})
			})
		})
	})

	return r
}
