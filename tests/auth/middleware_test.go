package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kspl/approval-api/internal/auth"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/repository"
	"github.com/kspl/approval-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_Authenticate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	users := repository.NewUserRepository(db)
	tokens := newTokenManager("test-secret", "approval-api", 60)
	mw := auth.NewMiddleware(tokens, users, zap.NewNop())

	dept := testutil.CreateTestDepartment(t, db, "Engineering", "ENG")

	t.Run("valid bearer token passes and resolves permissions", func(t *testing.T) {
		user := testutil.CreateTestUser(t, db, "emp1", domain.RoleEmp, &dept.ID)
		token, _, err := tokens.Issue(user)
		require.NoError(t, err)

		var gotCtx *auth.UserContext
		handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotCtx, _ = auth.FromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotCtx)
		assert.Equal(t, user.ID, gotCtx.UserID)
		assert.True(t, gotCtx.HasPermission(domain.PermissionDocumentView))
		assert.True(t, gotCtx.HasPermission(domain.PermissionDocumentCreate))
		assert.False(t, gotCtx.HasPermission(domain.PermissionDocumentApprove))
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		called := false
		handler := mw.Authenticate(okHandler(&called))

		req := httptest.NewRequest("GET", "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		called := false
		handler := mw.Authenticate(okHandler(&called))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Token abc123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		called := false
		handler := mw.Authenticate(okHandler(&called))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})

	t.Run("token for an unknown user is rejected", func(t *testing.T) {
		ghost := testUser(t)
		token, _, err := tokens.Issue(ghost)
		require.NoError(t, err)

		called := false
		handler := mw.Authenticate(okHandler(&called))
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})

	t.Run("deactivated user is rejected", func(t *testing.T) {
		user := testutil.CreateTestUser(t, db, "leaver", domain.RoleEmp, &dept.ID)
		token, _, err := tokens.Issue(user)
		require.NoError(t, err)

		require.NoError(t, db.Model(&domain.User{}).
			Where("id = ?", user.ID).
			Update("is_active", false).Error)

		called := false
		handler := mw.Authenticate(okHandler(&called))
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})

	t.Run("grant changes in the catalogue apply at authentication", func(t *testing.T) {
		user := testutil.CreateTestUser(t, db, "hod1", domain.RoleHOD, &dept.ID)
		token, _, err := tokens.Issue(user)
		require.NoError(t, err)

		called := false
		handler := mw.Authenticate(
			mw.RequirePermission(domain.PermissionDocumentApprove)(okHandler(&called)))

		serve := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest("POST", "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec
		}

		assert.Equal(t, http.StatusOK, serve().Code)
		assert.True(t, called)

		// Revoke the approve grant from the hod role; the same token must
		// lose the capability on the next request
		var hodRole domain.Role
		require.NoError(t, db.Preload("Permissions").
			Where("name = ?", domain.RoleHOD).First(&hodRole).Error)
		var approve domain.Permission
		require.NoError(t, db.Where("name = ?", domain.PermissionDocumentApprove).
			First(&approve).Error)
		require.NoError(t, db.Model(&hodRole).Association("Permissions").Delete(&approve))

		called = false
		assert.Equal(t, http.StatusForbidden, serve().Code)
		assert.False(t, called)
	})
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	users := repository.NewUserRepository(db)
	tokens := newTokenManager("test-secret", "approval-api", 60)
	mw := auth.NewMiddleware(tokens, users, zap.NewNop())

	serve := func(userCtx *auth.UserContext) (*httptest.ResponseRecorder, *bool) {
		called := false
		handler := mw.RequireAdmin(okHandler(&called))
		req := httptest.NewRequest("GET", "/", nil)
		if userCtx != nil {
			req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec, &called
	}

	t.Run("admin passes", func(t *testing.T) {
		admin := testutil.SeededAdmin(t, db)
		rec, called := serve(testutil.UserContextFor(admin))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, *called)
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		emp := testutil.CreateTestUser(t, db, "emp2", domain.RoleEmp, nil)
		rec, called := serve(testutil.UserContextFor(emp))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, *called)
	})

	t.Run("no user context is forbidden", func(t *testing.T) {
		rec, called := serve(nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, *called)
	})
}

func TestMiddleware_RequirePermission(t *testing.T) {
	db := testutil.SetupTestDB(t)
	users := repository.NewUserRepository(db)
	tokens := newTokenManager("test-secret", "approval-api", 60)
	mw := auth.NewMiddleware(tokens, users, zap.NewNop())

	serve := func(userCtx *auth.UserContext, permission domain.PermissionType) (*httptest.ResponseRecorder, *bool) {
		called := false
		handler := mw.RequirePermission(permission)(okHandler(&called))
		req := httptest.NewRequest("GET", "/", nil)
		req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec, &called
	}

	t.Run("employee cannot approve", func(t *testing.T) {
		emp := testutil.CreateTestUser(t, db, "emp3", domain.RoleEmp, nil)
		rec, called := serve(testutil.UserContextFor(emp), domain.PermissionDocumentApprove)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, *called)
	})

	t.Run("department head can approve", func(t *testing.T) {
		hod := testutil.CreateTestUser(t, db, "hod2", domain.RoleHOD, nil)
		rec, called := serve(testutil.UserContextFor(hod), domain.PermissionDocumentApprove)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, *called)
	})

	t.Run("admin holds the full catalogue", func(t *testing.T) {
		admin := testutil.SeededAdmin(t, db)
		rec, called := serve(testutil.UserContextFor(admin), domain.PermissionRoleManage)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, *called)
	})
}
