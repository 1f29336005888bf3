package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/auth"
	"github.com/kspl/approval-api/internal/database"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestAdminPassword is the password the seeded admin account gets in tests
const TestAdminPassword = "admin123"

// TestUserPassword is the password every user created via CreateTestUser gets
const TestUserPassword = "password123"

// SetupTestDB creates a fresh in-memory SQLite database with the full schema
// migrated and the default roles, permissions and admin account seeded.
// Every call returns an isolated database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")

	require.NoError(t, database.AutoMigrate(db), "failed to migrate test database")
	require.NoError(t, database.Seed(context.Background(), db, TestAdminPassword, zap.NewNop()),
		"failed to seed test database")

	return db
}

// CreateTestDepartment creates a department with the given name and code
func CreateTestDepartment(t *testing.T, db *gorm.DB, name, code string) *domain.Department {
	t.Helper()

	dept := &domain.Department{Name: name, Code: code}
	require.NoError(t, db.Create(dept).Error)
	return dept
}

// CreateTestUser creates an active user holding the given role, optionally
// assigned to a department. Roles come from the seeded catalogue.
func CreateTestUser(t *testing.T, db *gorm.DB, username string, role domain.RoleType, departmentID *uuid.UUID) *domain.User {
	t.Helper()

	var r domain.Role
	require.NoError(t, db.Preload("Permissions").Where("name = ?", role).First(&r).Error,
		"role %s not seeded", role)

	user := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		DepartmentID: departmentID,
		IsActive:     true,
		Roles:        []domain.Role{r},
	}
	require.NoError(t, user.SetPassword(TestUserPassword))
	require.NoError(t, db.Create(user).Error)
	return user
}

// UserContextFor builds the auth context a logged-in user would carry,
// including the permission set resolved from the user's preloaded roles
func UserContextFor(user *domain.User) *auth.UserContext {
	roles := make([]domain.RoleType, 0, len(user.Roles))
	seen := make(map[domain.PermissionType]struct{})
	perms := make([]domain.PermissionType, 0)
	for _, r := range user.Roles {
		roles = append(roles, r.Name)
		for _, p := range r.Permissions {
			if _, ok := seen[p.Name]; ok {
				continue
			}
			seen[p.Name] = struct{}{}
			perms = append(perms, p.Name)
		}
	}
	return &auth.UserContext{
		UserID:       user.ID,
		Username:     user.Username,
		DisplayName:  user.FullName(),
		Email:        user.Email,
		DepartmentID: user.DepartmentID,
		Roles:        roles,
		Permissions:  perms,
	}
}

// ContextFor returns a context carrying the user's auth context, the way the
// authentication middleware would populate it
func ContextFor(user *domain.User) context.Context {
	return auth.WithUserContext(context.Background(), UserContextFor(user))
}

// SeededAdmin loads the admin account created by the seeder
func SeededAdmin(t *testing.T, db *gorm.DB) *domain.User {
	t.Helper()

	var admin domain.User
	require.NoError(t, db.Preload("Roles.Permissions").Where("username = ?", "admin").First(&admin).Error)
	return &admin
}
