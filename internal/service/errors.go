package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials is returned when login credentials don't match
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrDuplicateReference is returned when a reference number is already taken
	ErrDuplicateReference = errors.New("reference number already exists")

	// ErrImmutableDocument is returned when modifying a document whose status
	// no longer allows edits
	ErrImmutableDocument = errors.New("document cannot be modified in its current status")

	// ErrInvalidState is returned when a workflow action is not valid from the
	// document's current status
	ErrInvalidState = errors.New("invalid state transition")

	// ErrAttachmentRequired is returned when submitting a document without any attachment
	ErrAttachmentRequired = errors.New("at least one attachment is required before submission")

	// ErrRoleNotFound is returned when a role is not found
	ErrRoleNotFound = errors.New("role not found")

	// ErrRoleAlreadyAssigned is returned when trying to assign a role that's already assigned
	ErrRoleAlreadyAssigned = errors.New("role already assigned to user")

	// ErrLastAdmin is returned when an operation would leave no active admin
	ErrLastAdmin = errors.New("cannot remove the last active admin")

	// ErrInvalidRole is returned when an invalid role type is provided
	ErrInvalidRole = errors.New("invalid role type")

	// ErrInvalidPermission is returned when an invalid permission type is provided
	ErrInvalidPermission = errors.New("invalid permission type")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrUserInactive is returned when a disabled account attempts to authenticate
	ErrUserInactive = errors.New("user account is inactive")
)
