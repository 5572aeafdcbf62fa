package models

import "time"

// Event types published on the role/permission topics. Delivery is
// fire-and-forget: at most one attempt, no ordering guarantee relative to the
// persistence write.
const (
	EventRoleCreated             = "role.created"
	EventRoleUpdated             = "role.updated"
	EventRoleDeleted             = "role.deleted"
	EventRoleStatusChanged       = "role.status_changed"
	EventRoleAssignmentChanged   = "role.assignment_changed"
	EventPermissionCreated       = "permission.created"
	EventPermissionUpdated       = "permission.updated"
	EventPermissionDeleted       = "permission.deleted"
	EventPermissionStatusChanged = "permission.status_changed"
)

// RoleEvent is the payload for role lifecycle events.
type RoleEvent struct {
	RoleID    string     `json:"role_id"`
	TenantID  string     `json:"tenant_id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	Status    RoleStatus `json:"status"`
	ActorID   string     `json:"actor_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// RoleAssignmentEvent is the payload for membership changes on a role.
type RoleAssignmentEvent struct {
	RoleID    string    `json:"role_id"`
	TenantID  string    `json:"tenant_id"`
	Kind      string    `json:"kind"` // "permission" or "user"
	MemberID  string    `json:"member_id"`
	Added     bool      `json:"added"`
	ActorID   string    `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PermissionEvent is the payload for permission lifecycle events.
type PermissionEvent struct {
	PermissionID string           `json:"permission_id"`
	TenantID     string           `json:"tenant_id"`
	Code         string           `json:"code"`
	Name         string           `json:"name"`
	Status       PermissionStatus `json:"status"`
	ActorID      string           `json:"actor_id,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
}

// AuditEntry is the audit record shipped on the events topic for every
// mutation attempt.
type AuditEntry struct {
	ActorID    string                 `json:"actor_id"`
	Action     string                 `json:"action"`
	Status     string                 `json:"status"` // "success" or "failure"
	TargetType string                 `json:"target_type"`
	TargetID   string                 `json:"target_id,omitempty"`
	TenantID   string                 `json:"tenant_id"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

const (
	AuditStatusSuccess = "success"
	AuditStatusFailure = "failure"

	AuditTargetRole       = "role"
	AuditTargetPermission = "permission"
)
