package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/your-org/iam-service/internal/domain/errors"
	"github.com/your-org/iam-service/internal/domain/models"
	"github.com/your-org/iam-service/internal/domain/repository/interfaces"
	domainService "github.com/your-org/iam-service/internal/domain/service"
	"github.com/your-org/iam-service/internal/utils/validator"
)

// EventPublisher is the fire-and-forget notification side-channel consumed by
// the use-case services.
type EventPublisher interface {
	PublishRoleEvent(eventType string, event models.RoleEvent)
	PublishRoleAssignmentEvent(event models.RoleAssignmentEvent)
	PublishPermissionEvent(eventType string, event models.PermissionEvent)
}

// RoleService orchestrates role use-cases: validation, persistence, event
// emission and audit. Consistency relies on the store's unique constraints;
// no in-process locks guard entity mutation.
type RoleService struct {
	roleRepo       interfaces.RoleRepository
	permissionRepo interfaces.PermissionRepository
	validation     *domainService.ValidationService
	publisher      EventPublisher
	audit          domainService.AuditRecorder
	logger         *zap.Logger
}

// NewRoleService creates a RoleService.
func NewRoleService(
	roleRepo interfaces.RoleRepository,
	permissionRepo interfaces.PermissionRepository,
	validation *domainService.ValidationService,
	publisher EventPublisher,
	audit domainService.AuditRecorder,
	logger *zap.Logger,
) *RoleService {
	return &RoleService{
		roleRepo:       roleRepo,
		permissionRepo: permissionRepo,
		validation:     validation,
		publisher:      publisher,
		audit:          audit,
		logger:         logger,
	}
}

func (s *RoleService) recordAudit(ctx context.Context, actorID, action, status, tenantID, targetID string, details map[string]interface{}) {
	s.audit.RecordEvent(ctx, models.AuditEntry{
		ActorID:    actorID,
		Action:     action,
		Status:     status,
		TargetType: models.AuditTargetRole,
		TargetID:   targetID,
		TenantID:   tenantID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	})
}

func (s *RoleService) publishStatusEvent(eventType string, role *models.Role, actorID string) {
	s.publisher.PublishRoleEvent(eventType, models.RoleEvent{
		RoleID:    role.ID,
		TenantID:  role.TenantID,
		Code:      role.Code.String(),
		Name:      role.Name.String(),
		Status:    role.Status,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
	})
}

// Create validates and persists a new role. The uniqueness pre-check and the
// insert are not atomic; a concurrent duplicate surfaces as the same conflict
// sentinel from the store's unique constraint.
func (s *RoleService) Create(ctx context.Context, req models.CreateRoleRequest, actorID string) (*models.Role, error) {
	if err := s.validation.RequireActor(actorID); err != nil {
		return nil, err
	}
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	name, err := models.NewRoleName(req.Name)
	if err != nil {
		return nil, err
	}
	code, err := models.NewRoleCode(req.Code)
	if err != nil {
		return nil, err
	}
	priority := models.DefaultRolePriority
	if req.Priority != nil {
		priority, err = models.NewRolePriority(*req.Priority)
		if err != nil {
			return nil, err
		}
	}

	if err := s.validation.EnsureRoleCodeUnique(ctx, req.TenantID, code); err != nil {
		s.recordAudit(ctx, actorID, "role_create", models.AuditStatusFailure, req.TenantID, "", map[string]interface{}{"code": code.String(), "error": err.Error()})
		return nil, err
	}
	if err := s.validation.EnsureRoleNameUnique(ctx, req.TenantID, name, ""); err != nil {
		s.recordAudit(ctx, actorID, "role_create", models.AuditStatusFailure, req.TenantID, "", map[string]interface{}{"name": name.String(), "error": err.Error()})
		return nil, err
	}

	role := models.NewRole(req.TenantID, name, code, priority)
	role.OrganizationID = req.OrganizationID
	role.Description = req.Description
	role.IsDefaultRole = req.IsDefaultRole
	role.MaxUsers = req.MaxUsers
	role.ExpiresAt = req.ExpiresAt

	if err := s.roleRepo.Save(ctx, role); err != nil {
		s.logger.Error("Failed to create role", zap.String("tenant_id", req.TenantID), zap.String("code", code.String()), zap.Error(err))
		s.recordAudit(ctx, actorID, "role_create", models.AuditStatusFailure, req.TenantID, role.ID, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	s.publishStatusEvent(models.EventRoleCreated, role, actorID)
	s.recordAudit(ctx, actorID, "role_create", models.AuditStatusSuccess, role.TenantID, role.ID, map[string]interface{}{"code": role.Code.String()})
	return role, nil
}

// Get returns a role by id.
func (s *RoleService) Get(ctx context.Context, tenantID, id string) (*models.Role, error) {
	return s.roleRepo.FindByID(ctx, tenantID, id)
}

// GetByCode returns a role by its normalized code.
func (s *RoleService) GetByCode(ctx context.Context, tenantID, rawCode string) (*models.Role, error) {
	code, err := models.NewRoleCode(rawCode)
	if err != nil {
		return nil, err
	}
	return s.roleRepo.FindByCode(ctx, tenantID, code)
}

// List returns one page of roles.
func (s *RoleService) List(ctx context.Context, tenantID string, page interfaces.Page, filter interfaces.RoleFilter, sort interfaces.Sort) (*interfaces.RolePage, error) {
	return s.roleRepo.FindWithPagination(ctx, tenantID, page, filter, sort)
}

// Update applies a partial update to mutable role fields.
func (s *RoleService) Update(ctx context.Context, tenantID, id string, req models.UpdateRoleRequest, actorID string) (*models.Role, error) {
	if err := s.validation.RequireActor(actorID); err != nil {
		return nil, err
	}
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	role, err := s.roleRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	var changed []string
	if req.Name != nil {
		name, err := models.NewRoleName(*req.Name)
		if err != nil {
			return nil, err
		}
		if name != role.Name {
			if err := s.validation.EnsureRoleNameUnique(ctx, tenantID, name, role.ID); err != nil {
				s.recordAudit(ctx, actorID, "role_update", models.AuditStatusFailure, tenantID, id, map[string]interface{}{"error": err.Error()})
				return nil, err
			}
			role.Rename(name)
			changed = append(changed, "name")
		}
	}
	if req.Priority != nil {
		priority, err := models.NewRolePriority(*req.Priority)
		if err != nil {
			return nil, err
		}
		if priority != role.Priority {
			role.ChangePriority(priority)
			changed = append(changed, "priority")
		}
	}
	if req.Description != nil && *req.Description != role.Description {
		role.Description = *req.Description
		changed = append(changed, "description")
	}
	if req.MaxUsers != nil {
		role.MaxUsers = req.MaxUsers
		changed = append(changed, "max_users")
	}
	if req.ExpiresAt != nil {
		role.ExpiresAt = req.ExpiresAt
		changed = append(changed, "expires_at")
	}

	if len(changed) == 0 {
		return role, nil
	}

	if err := s.roleRepo.Save(ctx, role); err != nil {
		s.logger.Error("Failed to update role", zap.String("role_id", id), zap.Error(err))
		s.recordAudit(ctx, actorID, "role_update", models.AuditStatusFailure, tenantID, id, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	s.publishStatusEvent(models.EventRoleUpdated, role, actorID)
	s.recordAudit(ctx, actorID, "role_update", models.AuditStatusSuccess, tenantID, id, map[string]interface{}{"changed_fields": changed})
	return role, nil
}

// Activate transitions a suspended role back to active.
func (s *RoleService) Activate(ctx context.Context, tenantID, id, actorID string) (*models.Role, error) {
	return s.transition(ctx, tenantID, id, actorID, "role_activate", func(role *models.Role) error {
		return role.Activate()
	})
}

// Suspend transitions an active role to suspended.
func (s *RoleService) Suspend(ctx context.Context, tenantID, id, actorID string) (*models.Role, error) {
	return s.transition(ctx, tenantID, id, actorID, "role_suspend", func(role *models.Role) error {
		return role.Suspend()
	})
}

// Delete soft-deletes a non-system role.
func (s *RoleService) Delete(ctx context.Context, tenantID, id, actorID string) (*models.Role, error) {
	return s.transition(ctx, tenantID, id, actorID, "role_delete", func(role *models.Role) error {
		return role.MarkAsDeleted()
	})
}

// Restore recovers a soft-deleted role into suspended.
func (s *RoleService) Restore(ctx context.Context, tenantID, id, actorID string) (*models.Role, error) {
	return s.transition(ctx, tenantID, id, actorID, "role_restore", func(role *models.Role) error {
		return role.Restore()
	})
}

func (s *RoleService) transition(ctx context.Context, tenantID, id, actorID, action string, mutate func(*models.Role) error) (*models.Role, error) {
	if err := s.validation.RequireActor(actorID); err != nil {
		return nil, err
	}
	role, err := s.roleRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(role); err != nil {
		s.recordAudit(ctx, actorID, action, models.AuditStatusFailure, tenantID, id, map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	if err := s.roleRepo.Save(ctx, role); err != nil {
		s.logger.Error("Failed to save role transition", zap.String("role_id", id), zap.String("action", action), zap.Error(err))
		s.recordAudit(ctx, actorID, action, models.AuditStatusFailure, tenantID, id, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	eventType := models.EventRoleStatusChanged
	if role.Status == models.RoleStatusDeleted {
		eventType = models.EventRoleDeleted
	}
	s.publishStatusEvent(eventType, role, actorID)
	s.recordAudit(ctx, actorID, action, models.AuditStatusSuccess, tenantID, id, map[string]interface{}{"status": role.Status})
	return role, nil
}

// HardDelete removes a role row entirely. Forbidden for system roles; this is
// the explicit administrative path, not the regular delete.
func (s *RoleService) HardDelete(ctx context.Context, tenantID, id, actorID string) error {
	if err := s.validation.RequireActor(actorID); err != nil {
		return err
	}
	role, err := s.roleRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if role.IsSystemRole {
		err := domainErrors.NewForbiddenError("system role cannot be hard-deleted", domainErrors.ErrSystemRoleProtected)
		s.recordAudit(ctx, actorID, "role_hard_delete", models.AuditStatusFailure, tenantID, id, map[string]interface{}{"error": err.Error()})
		return err
	}
	if err := s.roleRepo.HardDelete(ctx, tenantID, id); err != nil {
		s.logger.Error("Failed to hard delete role", zap.String("role_id", id), zap.Error(err))
		s.recordAudit(ctx, actorID, "role_hard_delete", models.AuditStatusFailure, tenantID, id, map[string]interface{}{"error": err.Error()})
		return err
	}
	s.publishStatusEvent(models.EventRoleDeleted, role, actorID)
	s.recordAudit(ctx, actorID, "role_hard_delete", models.AuditStatusSuccess, tenantID, id, nil)
	return nil
}
