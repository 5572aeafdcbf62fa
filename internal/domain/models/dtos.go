package models

import "time"

// CreateRoleRequest carries the data needed to create a new role.
type CreateRoleRequest struct {
	TenantID       string     `json:"tenant_id" validate:"required,uuid"`
	OrganizationID *string    `json:"organization_id,omitempty" validate:"omitempty,uuid"`
	Name           string     `json:"name" validate:"required,min=2,max=100"`
	Code           string     `json:"code" validate:"required,min=3,max=21"`
	Description    string     `json:"description" validate:"max=255"`
	Priority       *int       `json:"priority,omitempty" validate:"omitempty,min=1,max=1000"`
	IsDefaultRole  bool       `json:"is_default_role"`
	MaxUsers       *int       `json:"max_users,omitempty" validate:"omitempty,min=1"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// UpdateRoleRequest carries a partial role update; nil fields are untouched.
type UpdateRoleRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=255"`
	Priority    *int       `json:"priority,omitempty" validate:"omitempty,min=1,max=1000"`
	MaxUsers    *int       `json:"max_users,omitempty" validate:"omitempty,min=1"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// CreatePermissionRequest carries the data needed to create a new permission.
type CreatePermissionRequest struct {
	TenantID       string      `json:"tenant_id" validate:"required,uuid"`
	OrganizationID *string     `json:"organization_id,omitempty" validate:"omitempty,uuid"`
	Name           string      `json:"name" validate:"required,min=2,max=50"`
	Code           string      `json:"code" validate:"required,min=3,max=31"`
	Description    string      `json:"description" validate:"max=255"`
	Type           string      `json:"type" validate:"required,oneof=api menu button data page"`
	Action         string      `json:"action" validate:"required,oneof=create read update delete manage approve export import"`
	Resource       string      `json:"resource" validate:"max=255"`
	Module         string      `json:"module" validate:"max=100"`
	Tags           []string    `json:"tags,omitempty"`
	Fields         []string    `json:"fields,omitempty"`
	Conditions     *Conditions `json:"conditions,omitempty"`
	ExpiresAt      *time.Time  `json:"expires_at,omitempty"`
}

// UpdatePermissionRequest carries a partial permission update.
type UpdatePermissionRequest struct {
	Name        *string     `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=255"`
	Resource    *string     `json:"resource,omitempty" validate:"omitempty,max=255"`
	Module      *string     `json:"module,omitempty" validate:"omitempty,max=100"`
	Tags        []string    `json:"tags,omitempty"`
	Fields      []string    `json:"fields,omitempty"`
	Conditions  *Conditions `json:"conditions,omitempty"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
}

// RoleResponse is the API shape of a role.
type RoleResponse struct {
	ID             string       `json:"id"`
	TenantID       string       `json:"tenant_id"`
	OrganizationID *string      `json:"organization_id,omitempty"`
	Name           string       `json:"name"`
	Code           string       `json:"code"`
	Description    string       `json:"description"`
	Status         RoleStatus   `json:"status"`
	Priority       int          `json:"priority"`
	PriorityBand   PriorityBand `json:"priority_band"`
	IsSystemRole   bool         `json:"is_system_role"`
	IsDefaultRole  bool         `json:"is_default_role"`
	MaxUsers       *int         `json:"max_users,omitempty"`
	ExpiresAt      *time.Time   `json:"expires_at,omitempty"`
	ParentRoleID   *string      `json:"parent_role_id,omitempty"`
	ChildRoleIDs   []string     `json:"child_role_ids"`
	PermissionIDs  []string     `json:"permission_ids"`
	UserIDs        []string     `json:"user_ids"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// ToResponse converts a role to its API shape.
func (r *Role) ToResponse() RoleResponse {
	return RoleResponse{
		ID:             r.ID,
		TenantID:       r.TenantID,
		OrganizationID: r.OrganizationID,
		Name:           r.Name.String(),
		Code:           r.Code.String(),
		Description:    r.Description,
		Status:         r.Status,
		Priority:       r.Priority.Int(),
		PriorityBand:   r.Priority.Band(),
		IsSystemRole:   r.IsSystemRole,
		IsDefaultRole:  r.IsDefaultRole,
		MaxUsers:       r.MaxUsers,
		ExpiresAt:      r.ExpiresAt,
		ParentRoleID:   r.ParentRoleID,
		ChildRoleIDs:   r.ChildRoleIDs.Values(),
		PermissionIDs:  r.PermissionIDs.Values(),
		UserIDs:        r.UserIDs.Values(),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// PermissionResponse is the API shape of a permission.
type PermissionResponse struct {
	ID             string           `json:"id"`
	TenantID       string           `json:"tenant_id"`
	OrganizationID *string          `json:"organization_id,omitempty"`
	Name           string           `json:"name"`
	Code           string           `json:"code"`
	Description    string           `json:"description"`
	Type           PermissionType   `json:"type"`
	Action         PermissionAction `json:"action"`
	Status         PermissionStatus `json:"status"`
	Resource       string           `json:"resource"`
	Module         string           `json:"module"`
	Tags           []string         `json:"tags"`
	Fields         []string         `json:"fields"`
	Conditions     *Conditions      `json:"conditions,omitempty"`
	ExpiresAt      *time.Time       `json:"expires_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ToResponse converts a permission to its API shape.
func (p *Permission) ToResponse() PermissionResponse {
	return PermissionResponse{
		ID:             p.ID,
		TenantID:       p.TenantID,
		OrganizationID: p.OrganizationID,
		Name:           p.Name.String(),
		Code:           p.Code.String(),
		Description:    p.Description,
		Type:           p.Type,
		Action:         p.Action,
		Status:         p.Status,
		Resource:       p.Resource,
		Module:         p.Module,
		Tags:           p.Tags.Values(),
		Fields:         p.Fields.Values(),
		Conditions:     p.Conditions,
		ExpiresAt:      p.ExpiresAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// BatchFailure records one failed item of a batch operation.
type BatchFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
	Code   string `json:"code"`
}

// BatchResult reports every input id of a batch operation in exactly one of
// Success or Failed.
type BatchResult struct {
	Success []string       `json:"success"`
	Failed  []BatchFailure `json:"failed"`
}

// EffectivePermissionSet is the resolved grant set for a user's roles.
type EffectivePermissionSet struct {
	TenantID      string   `json:"tenant_id"`
	PermissionIDs []string `json:"permission_ids"`
	Codes         []string `json:"codes"`
	ResolvedAt    time.Time `json:"resolved_at"`
}

// Has reports whether the resolved set contains the permission code.
func (s *EffectivePermissionSet) Has(code string) bool {
	for _, c := range s.Codes {
		if c == code {
			return true
		}
	}
	return false
}
