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

	// ErrInvalidCredentials is returned on a failed login attempt
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountDisabled is returned when a deactivated user attempts to act
	ErrAccountDisabled = errors.New("account is deactivated")

	// ErrInvalidStateTransition is returned when an entity is approved or
	// rejected outside the pending_approval state
	ErrInvalidStateTransition = errors.New("invalid entity state transition")

	// ErrDuplicateAssignment is returned when the (entity, accountant) pair already exists
	ErrDuplicateAssignment = errors.New("accountant already assigned to entity")

	// ErrFileMissing is returned when a document's backing file is absent
	// from storage even though its metadata record exists
	ErrFileMissing = errors.New("stored file missing")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrEntityNotFound is returned when an entity is not found
	ErrEntityNotFound = errors.New("entity not found")
)
