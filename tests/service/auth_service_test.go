package service_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kspl/approval-api/internal/auth"
	"github.com/kspl/approval-api/internal/config"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/repository"
	"github.com/kspl/approval-api/internal/service"
	"github.com/kspl/approval-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAuthService(db *gorm.DB) (*service.AuthService, *auth.TokenManager) {
	log := zap.NewNop()
	tokens := auth.NewTokenManager(&config.AuthConfig{
		JWTSecret:       "test-secret",
		TokenTTLMinutes: 60,
		Issuer:          "approval-api",
	})
	svc := service.NewAuthService(
		repository.NewUserRepository(db),
		tokens,
		service.NewAuditLogService(repository.NewAuditLogRepository(db), log),
		log,
	)
	return svc, tokens
}

func TestAuthService_Login(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, tokens := newAuthService(db)
	ctx := context.Background()
	r := httptest.NewRequest("POST", "/api/v1/auth/login", nil)

	t.Run("seeded admin can log in", func(t *testing.T) {
		resp, err := svc.Login(ctx, r, &domain.LoginRequest{
			Username: "admin",
			Password: testutil.TestAdminPassword,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "admin", resp.User.Username)

		userCtx, err := tokens.Verify(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, userCtx.UserID)
		assert.True(t, userCtx.IsAdmin())

		expiresAt, err := time.Parse("2006-01-02T15:04:05Z", resp.ExpiresAt)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)
	})

	t.Run("username is case-insensitive and trimmed", func(t *testing.T) {
		_, err := svc.Login(ctx, r, &domain.LoginRequest{
			Username: "  ADMIN ",
			Password: testutil.TestAdminPassword,
		})
		assert.NoError(t, err)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, err := svc.Login(ctx, r, &domain.LoginRequest{
			Username: "admin",
			Password: "not-the-password",
		})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown user gets the same error as a wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, r, &domain.LoginRequest{
			Username: "nosuchuser",
			Password: "whatever",
		})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("inactive accounts cannot log in", func(t *testing.T) {
		dept := testutil.CreateTestDepartment(t, db, "Dormant", "DRM")
		user := testutil.CreateTestUser(t, db, "sleeper", domain.RoleEmp, &dept.ID)
		require.NoError(t, db.Model(user).Update("is_active", false).Error)

		_, err := svc.Login(ctx, r, &domain.LoginRequest{
			Username: "sleeper",
			Password: testutil.TestUserPassword,
		})
		assert.ErrorIs(t, err, service.ErrUserInactive)
	})

	t.Run("login records the last login time", func(t *testing.T) {
		dept := testutil.CreateTestDepartment(t, db, "Active", "ACT")
		user := testutil.CreateTestUser(t, db, "tracked", domain.RoleEmp, &dept.ID)
		require.Nil(t, user.LastLoginAt)

		_, err := svc.Login(ctx, r, &domain.LoginRequest{
			Username: "tracked",
			Password: testutil.TestUserPassword,
		})
		require.NoError(t, err)

		var reloaded domain.User
		require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
		require.NotNil(t, reloaded.LastLoginAt)
		assert.WithinDuration(t, time.Now(), *reloaded.LastLoginAt, time.Minute)
	})
}
