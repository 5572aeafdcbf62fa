package errors

import (
	"errors"
)

// Sentinel errors for the IAM domain. Services and repositories wrap these
// with fmt.Errorf("...: %w", err) so callers can match with errors.Is.
var (
	// General errors
	ErrInternal       = errors.New("internal server error")
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrForbidden      = errors.New("access denied")

	// Role errors
	ErrRoleNotFound        = errors.New("role not found")
	ErrRoleCodeExists      = errors.New("role code already exists in tenant")
	ErrRoleNameExists      = errors.New("role name already exists in tenant")
	ErrSystemRoleProtected = errors.New("system role is protected")
	ErrRoleUserLimit       = errors.New("role user limit reached")

	// Permission errors
	ErrPermissionNotFound        = errors.New("permission not found")
	ErrPermissionCodeExists      = errors.New("permission code already exists in tenant")
	ErrPermissionNameExists      = errors.New("permission name already exists in tenant")
	ErrSystemPermissionProtected = errors.New("system permission is protected")

	// Lifecycle errors
	ErrInvalidTransition = errors.New("invalid status transition")

	// Hierarchy errors
	ErrInheritanceCycle         = errors.New("role inheritance would create a cycle")
	ErrInheritanceDepthExceeded = errors.New("role inheritance depth exceeded")

	// Scoping errors
	ErrTenantMismatch = errors.New("entity belongs to a different tenant")
	ErrActorRequired  = errors.New("actor id is required")
)

// IsNotFound reports whether err is a "not found" domain error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrRoleNotFound) ||
		errors.Is(err, ErrPermissionNotFound)
}

// IsConflict reports whether err is a per-tenant uniqueness conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrRoleCodeExists) ||
		errors.Is(err, ErrRoleNameExists) ||
		errors.Is(err, ErrPermissionCodeExists) ||
		errors.Is(err, ErrPermissionNameExists)
}

// IsForbidden reports whether err is a protection violation.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrSystemRoleProtected) ||
		errors.Is(err, ErrSystemPermissionProtected)
}

// IsInvalidTransition reports whether err is a status guard failure.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsBadRequest reports whether err is a rejected-input domain error.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInheritanceCycle) ||
		errors.Is(err, ErrInheritanceDepthExceeded) ||
		errors.Is(err, ErrTenantMismatch) ||
		errors.Is(err, ErrActorRequired) ||
		errors.Is(err, ErrRoleUserLimit)
}

// IsValidation reports whether err carries aggregated validation violations.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
