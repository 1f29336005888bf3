package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kspl/approval-api/internal/auth"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/mapper"
	"github.com/kspl/approval-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService handles username/password login and token issuance
type AuthService struct {
	userRepo     *repository.UserRepository
	tokens       *auth.TokenManager
	auditService *AuditLogService
	logger       *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo *repository.UserRepository,
	tokens *auth.TokenManager,
	auditService *AuditLogService,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		tokens:       tokens,
		auditService: auditService,
		logger:       logger,
	}
}

// Login verifies credentials and returns a signed token. Unknown usernames
// and wrong passwords get the same error, so the response does not reveal
// which accounts exist.
func (s *AuthService) Login(ctx context.Context, r *http.Request, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("login attempt for unknown username",
				zap.String("username", username))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !user.CheckPassword(req.Password) {
		s.logger.Warn("login attempt with wrong password",
			zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Warn("login attempt for inactive account",
			zap.String("username", username))
		return nil, ErrUserInactive
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to record last login",
			zap.String("userID", user.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("user logged in",
		zap.String("userID", user.ID.String()),
		zap.String("username", user.Username),
	)

	s.auditService.LogLogin(ctx, r, user.ID, user.Username)

	userDTO := mapper.ToUserDTO(user)
	return &domain.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format("2006-01-02T15:04:05Z"),
		User:      userDTO,
	}, nil
}
