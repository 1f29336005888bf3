package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/auth"
	"github.com/kspl/approval-api/internal/config"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenManager(secret, issuer string, ttlMinutes int) *auth.TokenManager {
	return auth.NewTokenManager(&config.AuthConfig{
		JWTSecret:       secret,
		TokenTTLMinutes: ttlMinutes,
		Issuer:          issuer,
	})
}

func testUser(t *testing.T) *domain.User {
	t.Helper()
	deptID := uuid.New()
	user := &domain.User{
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		FirstName:    "Jane",
		LastName:     "Doe",
		DepartmentID: &deptID,
		IsActive:     true,
		Roles: []domain.Role{
			{Name: domain.RoleHOD},
			{Name: domain.RoleEmp},
		},
	}
	user.ID = uuid.New()
	return user
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	tokens := newTokenManager("test-secret", "approval-api", 60)
	user := testUser(t)

	token, expiresAt, err := tokens.Issue(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	userCtx, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userCtx.UserID)
	assert.Equal(t, "jdoe", userCtx.Username)
	assert.Equal(t, "Jane Doe", userCtx.DisplayName)
	assert.Equal(t, "jdoe@example.com", userCtx.Email)
	require.NotNil(t, userCtx.DepartmentID)
	assert.Equal(t, *user.DepartmentID, *userCtx.DepartmentID)
	assert.True(t, userCtx.IsHOD())
	assert.True(t, userCtx.HasRole(domain.RoleEmp))
	assert.False(t, userCtx.IsAdmin())
}

func TestTokenManager_NoDepartment(t *testing.T) {
	tokens := newTokenManager("test-secret", "approval-api", 60)
	user := testUser(t)
	user.DepartmentID = nil

	token, _, err := tokens.Issue(user)
	require.NoError(t, err)

	userCtx, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Nil(t, userCtx.DepartmentID)
}

func TestTokenManager_Expired(t *testing.T) {
	tokens := newTokenManager("test-secret", "approval-api", -1)
	user := testUser(t)

	token, _, err := tokens.Issue(user)
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	issuing := newTokenManager("secret-one", "approval-api", 60)
	verifying := newTokenManager("secret-two", "approval-api", 60)
	user := testUser(t)

	token, _, err := issuing.Issue(user)
	require.NoError(t, err)

	_, err = verifying.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_WrongIssuer(t *testing.T) {
	issuing := newTokenManager("test-secret", "some-other-api", 60)
	verifying := newTokenManager("test-secret", "approval-api", 60)
	user := testUser(t)

	token, _, err := issuing.Issue(user)
	require.NoError(t, err)

	_, err = verifying.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_Garbage(t *testing.T) {
	tokens := newTokenManager("test-secret", "approval-api", 60)

	_, err := tokens.Verify("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
