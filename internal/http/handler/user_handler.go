package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/service"
	"go.uber.org/zap"
)

// UserHandler handles user administration endpoints
type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 20, max 100)"
// @Param departmentId query string false "Filter by department"
// @Param activeOnly query bool false "Only active accounts"
// @Success 200 {object} domain.PaginatedResponse "Users"
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("activeOnly"))

	var departmentID *uuid.UUID
	if param := r.URL.Query().Get("departmentId"); param != "" {
		id, err := uuid.Parse(param)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid department ID")
			return
		}
		departmentID = &id
	}

	result, err := h.userService.List(r.Context(), page, pageSize, departmentID, activeOnly)
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create a user
// @Tags Users
// @Accept json
// @Produce json
// @Param request body domain.CreateUserRequest true "User fields"
// @Success 201 {object} domain.UserDTO "Created user"
// @Failure 409 {object} domain.APIError "Username or email already taken"
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	user, err := h.userService.Create(r.Context(), r, &req)
	if err != nil {
		h.logger.Error("failed to create user", zap.Error(err), zap.String("username", req.Username))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// Get godoc
// @Summary Get a user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} domain.UserDTO "User"
// @Failure 404 {object} domain.APIError "User not found"
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Update godoc
// @Summary Update a user
// @Description Updates profile fields, password, department or roles. The last active admin keeps the admin role.
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body domain.UpdateUserRequest true "Fields to change"
// @Success 200 {object} domain.UserDTO "Updated user"
// @Failure 409 {object} domain.APIError "Change would remove the last admin"
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req domain.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	user, err := h.userService.Update(r.Context(), r, id, &req)
	if err != nil {
		h.logger.Error("failed to update user", zap.Error(err), zap.String("user_id", id.String()))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Deactivate godoc
// @Summary Deactivate a user
// @Tags Users
// @Param id path string true "User ID"
// @Success 204 "Deactivated"
// @Failure 409 {object} domain.APIError "User is the last active admin"
// @Security BearerAuth
// @Router /users/{id}/deactivate [post]
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.userService.Deactivate(r.Context(), r, id); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// Activate godoc
// @Summary Reactivate a user
// @Tags Users
// @Param id path string true "User ID"
// @Success 204 "Activated"
// @Security BearerAuth
// @Router /users/{id}/activate [post]
func (h *UserHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.userService.Activate(r.Context(), r, id); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// Delete godoc
// @Summary Delete a user
// @Tags Users
// @Param id path string true "User ID"
// @Success 204 "Deleted"
// @Failure 409 {object} domain.APIError "User is the last active admin"
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.userService.Delete(r.Context(), r, id); err != nil {
		h.logger.Error("failed to delete user", zap.Error(err), zap.String("user_id", id.String()))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
