package domain_test

import (
	"testing"

	"github.com/kspl/approval-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentType_ReferencePrefix(t *testing.T) {
	prefixes := map[domain.DocumentType]string{
		domain.DocTypeNFA:               "NFA",
		domain.DocTypeWorkOrder:         "WO",
		domain.DocTypeCostContract:      "CC",
		domain.DocTypeRevenueContract:   "RC",
		domain.DocTypeAgreement:         "AGR",
		domain.DocTypeStatutoryDocument: "STAT",
	}

	for docType, want := range prefixes {
		assert.Equal(t, want, docType.ReferencePrefix(), string(docType))
	}

	// Prefixes must stay unique; they key the reference sequences
	seen := map[string]domain.DocumentType{}
	for _, docType := range domain.AllDocumentTypes() {
		prefix := docType.ReferencePrefix()
		if prev, dup := seen[prefix]; dup {
			t.Fatalf("prefix %q shared by %s and %s", prefix, prev, docType)
		}
		seen[prefix] = docType
	}
}

func TestDocumentType_IsValid(t *testing.T) {
	for _, docType := range domain.AllDocumentTypes() {
		assert.True(t, docType.IsValid(), string(docType))
	}
	assert.False(t, domain.DocumentType("invoice").IsValid())
	assert.False(t, domain.DocumentType("").IsValid())
}

func TestDocumentStatus_IsEditable(t *testing.T) {
	assert.True(t, domain.StatusDraft.IsEditable())
	assert.True(t, domain.StatusRejected.IsEditable())
	assert.False(t, domain.StatusSubmitted.IsEditable())
	assert.False(t, domain.StatusApproved.IsEditable())
}

func TestRoleAndPermissionValidation(t *testing.T) {
	for _, role := range domain.AllRoleTypes() {
		assert.True(t, role.IsValid(), string(role))
	}
	assert.False(t, domain.RoleType("superuser").IsValid())

	for _, perm := range domain.AllPermissionTypes() {
		assert.True(t, perm.IsValid(), string(perm))
	}
	assert.False(t, domain.PermissionType("document_destroy").IsValid())
}

func TestUser_Password(t *testing.T) {
	user := &domain.User{Username: "pwtest"}
	require.NoError(t, user.SetPassword("s3cret!"))

	assert.NotEqual(t, "s3cret!", user.PasswordHash)
	assert.True(t, user.CheckPassword("s3cret!"))
	assert.False(t, user.CheckPassword("S3cret!"))
	assert.False(t, user.CheckPassword(""))
}

func TestUser_FullName(t *testing.T) {
	user := &domain.User{Username: "jdoe", FirstName: "Jane", LastName: "Doe"}
	assert.Equal(t, "Jane Doe", user.FullName())

	bare := &domain.User{Username: "jdoe"}
	assert.Equal(t, "jdoe", bare.FullName())

	partial := &domain.User{Username: "jdoe", FirstName: "Jane"}
	assert.Equal(t, "jdoe", partial.FullName())
}

func TestUser_RolesAndPermissions(t *testing.T) {
	hod := domain.Role{
		Name: domain.RoleHOD,
		Permissions: []domain.Permission{
			{Name: domain.PermissionDocumentApprove},
			{Name: domain.PermissionDocumentView},
		},
	}
	user := &domain.User{Username: "head", Roles: []domain.Role{hod}}

	assert.True(t, user.HasRole(domain.RoleHOD))
	assert.False(t, user.HasRole(domain.RoleAdmin))
	assert.True(t, user.HasPermission(domain.PermissionDocumentApprove))
	assert.False(t, user.HasPermission(domain.PermissionUserDelete))
}
