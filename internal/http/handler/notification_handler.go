package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/service"
	"go.uber.org/zap"
)

// NotificationHandler handles in-app notification endpoints
type NotificationHandler struct {
	notificationService *service.NotificationService
	logger              *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// List godoc
// @Summary List the current user's notifications
// @Tags Notifications
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 20, max 200)"
// @Param unreadOnly query bool false "Only unread notifications"
// @Param type query string false "Filter by notification type"
// @Success 200 {object} domain.PaginatedResponse "Notifications"
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unreadOnly"))
	notificationType := r.URL.Query().Get("type")

	result, err := h.notificationService.GetForCurrentUser(r.Context(), page, pageSize, unreadOnly, notificationType)
	if err != nil {
		h.logger.Error("failed to list notifications", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// UnreadCount godoc
// @Summary Count the current user's unread notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} domain.UnreadCountDTO "Unread count"
// @Security BearerAuth
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationService.GetUnreadCount(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, count)
}

// MarkAsRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Param id path string true "Notification ID"
// @Success 204 "Marked as read"
// @Failure 403 {object} domain.APIError "Notification belongs to another user"
// @Failure 404 {object} domain.APIError "Notification not found"
// @Security BearerAuth
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	if err := h.notificationService.MarkAsRead(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// MarkAllAsRead godoc
// @Summary Mark all of the current user's notifications as read
// @Tags Notifications
// @Success 204 "Marked as read"
// @Security BearerAuth
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notificationService.MarkAllAsReadForUser(r.Context()); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
