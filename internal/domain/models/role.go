package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/your-org/iam-service/internal/domain/errors"
)

// Role is the aggregate root for tenant-scoped role data. All mutation goes
// through named methods so that every change enforces its guard and bumps
// UpdatedAt; fields are exported for persistence and serialization only.
type Role struct {
	ID             string       `json:"id" db:"id"`
	TenantID       string       `json:"tenant_id" db:"tenant_id"`
	OrganizationID *string      `json:"organization_id,omitempty" db:"organization_id"`
	Name           RoleName     `json:"name" db:"name"`
	Code           RoleCode     `json:"code" db:"code"`
	Description    string       `json:"description" db:"description"`
	Status         RoleStatus   `json:"status" db:"status"`
	Priority       RolePriority `json:"priority" db:"priority"`
	IsSystemRole   bool         `json:"is_system_role" db:"is_system_role"`
	IsDefaultRole  bool         `json:"is_default_role" db:"is_default_role"`
	MaxUsers       *int         `json:"max_users,omitempty" db:"max_users"`
	ExpiresAt      *time.Time   `json:"expires_at,omitempty" db:"expires_at"`
	ParentRoleID   *string      `json:"parent_role_id,omitempty" db:"parent_role_id"`
	ChildRoleIDs   IDSet        `json:"child_role_ids" db:"child_role_ids"`
	PermissionIDs  IDSet        `json:"permission_ids" db:"permission_ids"`
	UserIDs        IDSet        `json:"user_ids" db:"user_ids"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
	DeletedAt      *time.Time   `json:"deleted_at,omitempty" db:"deleted_at"`
}

// NewRole creates an active role with a fresh identity in the given tenant.
// Name and code must already be validated value objects.
func NewRole(tenantID string, name RoleName, code RoleCode, priority RolePriority) *Role {
	now := time.Now().UTC()
	return &Role{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Name:      name,
		Code:      code,
		Status:    RoleStatusActive,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *Role) touch() {
	r.UpdatedAt = time.Now().UTC()
}

// IsActive reports whether the role is currently active.
func (r *Role) IsActive() bool { return r.Status == RoleStatusActive }

// IsDeleted reports whether the role is soft-deleted.
func (r *Role) IsDeleted() bool { return r.Status == RoleStatusDeleted }

// IsExpired reports whether the role's optional expiry has passed.
func (r *Role) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// Activate transitions suspended -> active.
func (r *Role) Activate() error {
	if r.Status != RoleStatusSuspended {
		return domainErrors.NewInvalidTransitionError(
			fmt.Sprintf("cannot activate role in status %q", r.Status),
			domainErrors.ErrInvalidTransition,
		)
	}
	r.Status = RoleStatusActive
	r.touch()
	return nil
}

// Suspend transitions active -> suspended.
func (r *Role) Suspend() error {
	if r.Status != RoleStatusActive {
		return domainErrors.NewInvalidTransitionError(
			fmt.Sprintf("cannot suspend role in status %q", r.Status),
			domainErrors.ErrInvalidTransition,
		)
	}
	r.Status = RoleStatusSuspended
	r.touch()
	return nil
}

// MarkAsDeleted soft-deletes the role. System roles are protected.
func (r *Role) MarkAsDeleted() error {
	if r.IsSystemRole {
		return domainErrors.NewForbiddenError("system role cannot be deleted", domainErrors.ErrSystemRoleProtected)
	}
	if r.Status == RoleStatusDeleted {
		return domainErrors.NewInvalidTransitionError(
			"role is already deleted",
			domainErrors.ErrInvalidTransition,
		)
	}
	now := time.Now().UTC()
	r.Status = RoleStatusDeleted
	r.DeletedAt = &now
	r.UpdatedAt = now
	return nil
}

// Restore recovers a soft-deleted role into suspended, requiring an explicit
// re-activation afterwards.
func (r *Role) Restore() error {
	if r.Status != RoleStatusDeleted {
		return domainErrors.NewInvalidTransitionError(
			fmt.Sprintf("cannot restore role in status %q", r.Status),
			domainErrors.ErrInvalidTransition,
		)
	}
	r.Status = RoleStatusSuspended
	r.DeletedAt = nil
	r.touch()
	return nil
}

// Rename changes the display name.
func (r *Role) Rename(name RoleName) {
	r.Name = name
	r.touch()
}

// ChangePriority changes the conflict-resolution priority.
func (r *Role) ChangePriority(priority RolePriority) {
	r.Priority = priority
	r.touch()
}

// AssignPermission adds a permission id to the role's grant set.
func (r *Role) AssignPermission(permissionID string) bool {
	if r.PermissionIDs.Add(permissionID) {
		r.touch()
		return true
	}
	return false
}

// RemovePermission drops a permission id from the role's grant set.
func (r *Role) RemovePermission(permissionID string) bool {
	if r.PermissionIDs.Remove(permissionID) {
		r.touch()
		return true
	}
	return false
}

// AssignUser adds a user to the role, respecting the optional MaxUsers cap.
func (r *Role) AssignUser(userID string) error {
	if r.UserIDs.Contains(userID) {
		return nil
	}
	if r.MaxUsers != nil && r.UserIDs.Len() >= *r.MaxUsers {
		return fmt.Errorf("role %s: %w", r.ID, domainErrors.ErrRoleUserLimit)
	}
	r.UserIDs.Add(userID)
	r.touch()
	return nil
}

// RemoveUser drops a user from the role.
func (r *Role) RemoveUser(userID string) bool {
	if r.UserIDs.Remove(userID) {
		r.touch()
		return true
	}
	return false
}

// SetInheritance points the role at a parent. The orchestrating service must
// pair this with AddChildRole on the parent and reject cycles before linking.
func (r *Role) SetInheritance(parentID string) {
	r.ParentRoleID = &parentID
	r.touch()
}

// RemoveInheritance detaches the role from its parent. The orchestrating
// service must pair this with RemoveChildRole on the former parent.
func (r *Role) RemoveInheritance() {
	r.ParentRoleID = nil
	r.touch()
}

// AddChildRole records a child link on the parent side.
func (r *Role) AddChildRole(childID string) bool {
	if r.ChildRoleIDs.Add(childID) {
		r.touch()
		return true
	}
	return false
}

// RemoveChildRole drops a child link on the parent side.
func (r *Role) RemoveChildRole(childID string) bool {
	if r.ChildRoleIDs.Remove(childID) {
		r.touch()
		return true
	}
	return false
}
