package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/your-org/iam-service/internal/domain/errors"
)

// PermissionType classifies what kind of surface a permission guards.
type PermissionType string

const (
	PermissionTypeAPI    PermissionType = "api"
	PermissionTypeMenu   PermissionType = "menu"
	PermissionTypeButton PermissionType = "button"
	PermissionTypeData   PermissionType = "data"
	PermissionTypePage   PermissionType = "page"
)

// Valid reports whether t is a known permission type.
func (t PermissionType) Valid() bool {
	switch t {
	case PermissionTypeAPI, PermissionTypeMenu, PermissionTypeButton, PermissionTypeData, PermissionTypePage:
		return true
	}
	return false
}

// PermissionAction is the operation the permission allows on its resource.
type PermissionAction string

const (
	PermissionActionCreate  PermissionAction = "create"
	PermissionActionRead    PermissionAction = "read"
	PermissionActionUpdate  PermissionAction = "update"
	PermissionActionDelete  PermissionAction = "delete"
	PermissionActionManage  PermissionAction = "manage"
	PermissionActionApprove PermissionAction = "approve"
	PermissionActionExport  PermissionAction = "export"
	PermissionActionImport  PermissionAction = "import"
)

// Valid reports whether a is a known permission action.
func (a PermissionAction) Valid() bool {
	switch a {
	case PermissionActionCreate, PermissionActionRead, PermissionActionUpdate, PermissionActionDelete,
		PermissionActionManage, PermissionActionApprove, PermissionActionExport, PermissionActionImport:
		return true
	}
	return false
}

// Permission is the aggregate root for tenant-scoped permission data.
type Permission struct {
	ID                  string           `json:"id" db:"id"`
	TenantID            string           `json:"tenant_id" db:"tenant_id"`
	OrganizationID      *string          `json:"organization_id,omitempty" db:"organization_id"`
	Name                PermissionName   `json:"name" db:"name"`
	Code                PermissionCode   `json:"code" db:"code"`
	Description         string           `json:"description" db:"description"`
	Type                PermissionType   `json:"type" db:"type"`
	Action              PermissionAction `json:"action" db:"action"`
	Status              PermissionStatus `json:"status" db:"status"`
	Resource            string           `json:"resource" db:"resource"`
	Module              string           `json:"module" db:"module"`
	Tags                IDSet            `json:"tags" db:"tags"`
	Fields              IDSet            `json:"fields" db:"fields"`
	Conditions          *Conditions      `json:"conditions,omitempty" db:"conditions"`
	ExpiresAt           *time.Time       `json:"expires_at,omitempty" db:"expires_at"`
	ParentPermissionID  *string          `json:"parent_permission_id,omitempty" db:"parent_permission_id"`
	ChildPermissionIDs  IDSet            `json:"child_permission_ids" db:"child_permission_ids"`
	IsSystemPermission  bool             `json:"is_system_permission" db:"is_system_permission"`
	IsDefaultPermission bool             `json:"is_default_permission" db:"is_default_permission"`
	RoleIDs             IDSet            `json:"role_ids" db:"role_ids"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at" db:"updated_at"`
	DeletedAt           *time.Time       `json:"deleted_at,omitempty" db:"deleted_at"`
}

// NewPermission creates an active permission with a fresh identity in the
// given tenant. Name and code must already be validated value objects.
func NewPermission(tenantID string, name PermissionName, code PermissionCode, permType PermissionType, action PermissionAction) (*Permission, error) {
	var violations []string
	if !permType.Valid() {
		violations = append(violations, fmt.Sprintf("unknown permission type %q", permType))
	}
	if !action.Valid() {
		violations = append(violations, fmt.Sprintf("unknown permission action %q", action))
	}
	if len(violations) > 0 {
		return nil, domainErrors.NewValidationError("permission", violations)
	}
	now := time.Now().UTC()
	return &Permission{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Name:      name,
		Code:      code,
		Type:      permType,
		Action:    action,
		Status:    PermissionStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (p *Permission) touch() {
	p.UpdatedAt = time.Now().UTC()
}

// EffectiveStatus returns expired when ExpiresAt has passed, regardless of the
// stored status; otherwise the stored status.
func (p *Permission) EffectiveStatus(now time.Time) PermissionStatus {
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return PermissionStatusExpired
	}
	return p.Status
}

// IsEffectivelyActive reports whether the permission should appear in a
// resolved grant set at the given instant.
func (p *Permission) IsEffectivelyActive(now time.Time) bool {
	return p.EffectiveStatus(now) == PermissionStatusActive
}

// Activate transitions the permission to active.
func (p *Permission) Activate() error {
	switch p.Status {
	case PermissionStatusInactive, PermissionStatusSuspended:
		p.Status = PermissionStatusActive
		p.touch()
		return nil
	default:
		return domainErrors.NewInvalidTransitionError(
			fmt.Sprintf("cannot activate permission in status %q", p.Status),
			domainErrors.ErrInvalidTransition,
		)
	}
}

// Deactivate transitions active -> inactive.
func (p *Permission) Deactivate() error {
	if p.Status != PermissionStatusActive {
		return domainErrors.NewInvalidTransitionError(
			fmt.Sprintf("cannot deactivate permission in status %q", p.Status),
			domainErrors.ErrInvalidTransition,
		)
	}
	p.Status = PermissionStatusInactive
	p.touch()
	return nil
}

// Suspend transitions active -> suspended.
func (p *Permission) Suspend() error {
	if p.Status != PermissionStatusActive {
		return domainErrors.NewInvalidTransitionError(
			fmt.Sprintf("cannot suspend permission in status %q", p.Status),
			domainErrors.ErrInvalidTransition,
		)
	}
	p.Status = PermissionStatusSuspended
	p.touch()
	return nil
}

// MarkAsDeleted soft-deletes the permission. System permissions are protected.
func (p *Permission) MarkAsDeleted() error {
	if p.IsSystemPermission {
		return domainErrors.NewForbiddenError("system permission cannot be deleted", domainErrors.ErrSystemPermissionProtected)
	}
	if p.Status == PermissionStatusDeleted {
		return domainErrors.NewInvalidTransitionError(
			"permission is already deleted",
			domainErrors.ErrInvalidTransition,
		)
	}
	now := time.Now().UTC()
	p.Status = PermissionStatusDeleted
	p.DeletedAt = &now
	p.UpdatedAt = now
	return nil
}

// Restore recovers a soft-deleted permission into inactive.
func (p *Permission) Restore() error {
	if p.Status != PermissionStatusDeleted {
		return domainErrors.NewInvalidTransitionError(
			fmt.Sprintf("cannot restore permission in status %q", p.Status),
			domainErrors.ErrInvalidTransition,
		)
	}
	p.Status = PermissionStatusInactive
	p.DeletedAt = nil
	p.touch()
	return nil
}

// SetConditions replaces the scoping conditions after shape validation.
func (p *Permission) SetConditions(c *Conditions) error {
	if err := c.Validate(); err != nil {
		return err
	}
	p.Conditions = c
	p.touch()
	return nil
}

// AttachRole records reverse membership of a granting role.
func (p *Permission) AttachRole(roleID string) bool {
	if p.RoleIDs.Add(roleID) {
		p.touch()
		return true
	}
	return false
}

// DetachRole drops reverse membership of a granting role.
func (p *Permission) DetachRole(roleID string) bool {
	if p.RoleIDs.Remove(roleID) {
		p.touch()
		return true
	}
	return false
}
