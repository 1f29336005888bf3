package handler

import (
	"encoding/json"
	"net/http"

	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/service"
	"go.uber.org/zap"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService, userService *service.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		logger:      logger,
	}
}

// Login godoc
// @Summary Log in with username and password
// @Description Verifies credentials and returns a bearer token with the user profile.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.LoginResponse "Token and user profile"
// @Failure 400 {object} domain.APIError "Invalid request body"
// @Failure 401 {object} domain.APIError "Invalid credentials or inactive account"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), r, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Me godoc
// @Summary Get the current user's profile
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.UserDTO "Current user"
// @Failure 401 {object} domain.APIError "Not authenticated"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetCurrent(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}
