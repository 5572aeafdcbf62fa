package models

// RoleStatus is the lifecycle state of a role. Deleted is recoverable via
// Restore, which always lands in suspended.
type RoleStatus string

const (
	RoleStatusActive    RoleStatus = "active"
	RoleStatusSuspended RoleStatus = "suspended"
	RoleStatusDeleted   RoleStatus = "deleted"
)

// Valid reports whether s is a known role status.
func (s RoleStatus) Valid() bool {
	switch s {
	case RoleStatusActive, RoleStatusSuspended, RoleStatusDeleted:
		return true
	}
	return false
}

// PermissionStatus is the lifecycle state of a permission. It is looser than
// the role lifecycle: inactive and expired exist alongside suspended/deleted.
type PermissionStatus string

const (
	PermissionStatusActive    PermissionStatus = "active"
	PermissionStatusInactive  PermissionStatus = "inactive"
	PermissionStatusSuspended PermissionStatus = "suspended"
	PermissionStatusExpired   PermissionStatus = "expired"
	PermissionStatusDeleted   PermissionStatus = "deleted"
)

// Valid reports whether s is a known permission status.
func (s PermissionStatus) Valid() bool {
	switch s {
	case PermissionStatusActive, PermissionStatusInactive, PermissionStatusSuspended,
		PermissionStatusExpired, PermissionStatusDeleted:
		return true
	}
	return false
}
