package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
)

// UserContext holds authenticated user information. Permissions is the
// effective grant set resolved from the user's role assignments in the
// database when the request is authenticated.
type UserContext struct {
	UserID       uuid.UUID
	Username     string
	DisplayName  string
	Email        string
	DepartmentID *uuid.UUID
	Roles        []domain.RoleType
	Permissions  []domain.PermissionType
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role domain.RoleType) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.RoleType) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// IsAdmin checks if user holds the admin role
func (u *UserContext) IsAdmin() bool {
	return u.HasRole(domain.RoleAdmin)
}

// IsHOD checks if user is a head of department
func (u *UserContext) IsHOD() bool {
	return u.HasRole(domain.RoleHOD)
}

// SameDepartment reports whether the given department matches the user's.
// A user with no department matches nothing.
func (u *UserContext) SameDepartment(departmentID *uuid.UUID) bool {
	if u.DepartmentID == nil || departmentID == nil {
		return false
	}
	return *u.DepartmentID == *departmentID
}

// HasPermission reports whether the user's resolved permission set grants
// the given permission. The set reflects what the role catalogue in the
// database granted at authentication time.
func (u *UserContext) HasPermission(permission domain.PermissionType) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// RolesAsStrings returns roles as a slice of strings
func (u *UserContext) RolesAsStrings() []string {
	result := make([]string, len(u.Roles))
	for i, role := range u.Roles {
		result[i] = string(role)
	}
	return result
}
