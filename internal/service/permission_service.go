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

// PermissionService orchestrates permission use-cases.
type PermissionService struct {
	permissionRepo interfaces.PermissionRepository
	roleRepo       interfaces.RoleRepository
	validation     *domainService.ValidationService
	publisher      EventPublisher
	audit          domainService.AuditRecorder
	logger         *zap.Logger
}

// NewPermissionService creates a PermissionService.
func NewPermissionService(
	permissionRepo interfaces.PermissionRepository,
	roleRepo interfaces.RoleRepository,
	validation *domainService.ValidationService,
	publisher EventPublisher,
	audit domainService.AuditRecorder,
	logger *zap.Logger,
) *PermissionService {
	return &PermissionService{
		permissionRepo: permissionRepo,
		roleRepo:       roleRepo,
		validation:     validation,
		publisher:      publisher,
		audit:          audit,
		logger:         logger,
	}
}

func (s *PermissionService) recordAudit(ctx context.Context, actorID, action, status, tenantID, targetID string, details map[string]interface{}) {
	s.audit.RecordEvent(ctx, models.AuditEntry{
		ActorID:    actorID,
		Action:     action,
		Status:     status,
		TargetType: models.AuditTargetPermission,
		TargetID:   targetID,
		TenantID:   tenantID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	})
}

func (s *PermissionService) publishEvent(eventType string, permission *models.Permission, actorID string) {
	s.publisher.PublishPermissionEvent(eventType, models.PermissionEvent{
		PermissionID: permission.ID,
		TenantID:     permission.TenantID,
		Code:         permission.Code.String(),
		Name:         permission.Name.String(),
		Status:       permission.Status,
		ActorID:      actorID,
		Timestamp:    time.Now().UTC(),
	})
}

// Create validates and persists a new permission.
func (s *PermissionService) Create(ctx context.Context, req models.CreatePermissionRequest, actorID string) (*models.Permission, error) {
	if err := s.validation.RequireActor(actorID); err != nil {
		return nil, err
	}
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	name, err := models.NewPermissionName(req.Name)
	if err != nil {
		return nil, err
	}
	code, err := models.NewPermissionCode(req.Code)
	if err != nil {
		return nil, err
	}

	if err := s.validation.EnsurePermissionCodeUnique(ctx, req.TenantID, code); err != nil {
		s.recordAudit(ctx, actorID, "permission_create", models.AuditStatusFailure, req.TenantID, "", map[string]interface{}{"code": code.String(), "error": err.Error()})
		return nil, err
	}
	if err := s.validation.EnsurePermissionNameUnique(ctx, req.TenantID, name, ""); err != nil {
		s.recordAudit(ctx, actorID, "permission_create", models.AuditStatusFailure, req.TenantID, "", map[string]interface{}{"name": name.String(), "error": err.Error()})
		return nil, err
	}

	permission, err := models.NewPermission(req.TenantID, name, code, models.PermissionType(req.Type), models.PermissionAction(req.Action))
	if err != nil {
		return nil, err
	}
	permission.OrganizationID = req.OrganizationID
	permission.Description = req.Description
	permission.Resource = req.Resource
	permission.Module = req.Module
	permission.Tags = models.NewIDSet(req.Tags...)
	permission.Fields = models.NewIDSet(req.Fields...)
	permission.ExpiresAt = req.ExpiresAt
	if req.Conditions != nil {
		if err := permission.SetConditions(req.Conditions); err != nil {
			return nil, err
		}
	}

	if err := s.permissionRepo.Save(ctx, permission); err != nil {
		s.logger.Error("Failed to create permission", zap.String("tenant_id", req.TenantID), zap.String("code", code.String()), zap.Error(err))
		s.recordAudit(ctx, actorID, "permission_create", models.AuditStatusFailure, req.TenantID, permission.ID, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	s.publishEvent(models.EventPermissionCreated, permission, actorID)
	s.recordAudit(ctx, actorID, "permission_create", models.AuditStatusSuccess, permission.TenantID, permission.ID, map[string]interface{}{"code": permission.Code.String()})
	return permission, nil
}

// Get returns a permission by id.
func (s *PermissionService) Get(ctx context.Context, tenantID, id string) (*models.Permission, error) {
	return s.permissionRepo.FindByID(ctx, tenantID, id)
}

// GetByCode returns a permission by its normalized code.
func (s *PermissionService) GetByCode(ctx context.Context, tenantID, rawCode string) (*models.Permission, error) {
	code, err := models.NewPermissionCode(rawCode)
	if err != nil {
		return nil, err
	}
	return s.permissionRepo.FindByCode(ctx, tenantID, code)
}

// List returns one page of permissions.
func (s *PermissionService) List(ctx context.Context, tenantID string, page interfaces.Page, filter interfaces.PermissionFilter, sort interfaces.Sort) (*interfaces.PermissionPage, error) {
	return s.permissionRepo.FindWithPagination(ctx, tenantID, page, filter, sort)
}

// Update applies a partial update to mutable permission fields.
func (s *PermissionService) Update(ctx context.Context, tenantID, id string, req models.UpdatePermissionRequest, actorID string) (*models.Permission, error) {
	if err := s.validation.RequireActor(actorID); err != nil {
		return nil, err
	}
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	permission, err := s.permissionRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	var changed []string
	if req.Name != nil {
		name, err := models.NewPermissionName(*req.Name)
		if err != nil {
			return nil, err
		}
		if name != permission.Name {
			if err := s.validation.EnsurePermissionNameUnique(ctx, tenantID, name, permission.ID); err != nil {
				s.recordAudit(ctx, actorID, "permission_update", models.AuditStatusFailure, tenantID, id, map[string]interface{}{"error": err.Error()})
				return nil, err
			}
			permission.Name = name
			changed = append(changed, "name")
		}
	}
	if req.Description != nil && *req.Description != permission.Description {
		permission.Description = *req.Description
		changed = append(changed, "description")
	}
	if req.Resource != nil && *req.Resource != permission.Resource {
		permission.Resource = *req.Resource
		changed = append(changed, "resource")
	}
	if req.Module != nil && *req.Module != permission.Module {
		permission.Module = *req.Module
		changed = append(changed, "module")
	}
	if req.Tags != nil {
		permission.Tags = models.NewIDSet(req.Tags...)
		changed = append(changed, "tags")
	}
	if req.Fields != nil {
		permission.Fields = models.NewIDSet(req.Fields...)
		changed = append(changed, "fields")
	}
	if req.Conditions != nil {
		if err := permission.SetConditions(req.Conditions); err != nil {
			return nil, err
		}
		changed = append(changed, "conditions")
	}
	if req.ExpiresAt != nil {
		permission.ExpiresAt = req.ExpiresAt
		changed = append(changed, "expires_at")
	}

	if len(changed) == 0 {
		return permission, nil
	}
	permission.UpdatedAt = time.Now().UTC()

	if err := s.permissionRepo.Save(ctx, permission); err != nil {
		s.logger.Error("Failed to update permission", zap.String("permission_id", id), zap.Error(err))
		s.recordAudit(ctx, actorID, "permission_update", models.AuditStatusFailure, tenantID, id, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	s.publishEvent(models.EventPermissionUpdated, permission, actorID)
	s.recordAudit(ctx, actorID, "permission_update", models.AuditStatusSuccess, tenantID, id, map[string]interface{}{"changed_fields": changed})
	return permission, nil
}

// Activate transitions an inactive or suspended permission to active.
func (s *PermissionService) Activate(ctx context.Context, tenantID, id, actorID string) (*models.Permission, error) {
	return s.transition(ctx, tenantID, id, actorID, "permission_activate", func(p *models.Permission) error {
		return p.Activate()
	})
}

// Deactivate transitions an active permission to inactive.
func (s *PermissionService) Deactivate(ctx context.Context, tenantID, id, actorID string) (*models.Permission, error) {
	return s.transition(ctx, tenantID, id, actorID, "permission_deactivate", func(p *models.Permission) error {
		return p.Deactivate()
	})
}

// Suspend transitions an active or inactive permission to suspended.
func (s *PermissionService) Suspend(ctx context.Context, tenantID, id, actorID string) (*models.Permission, error) {
	return s.transition(ctx, tenantID, id, actorID, "permission_suspend", func(p *models.Permission) error {
		return p.Suspend()
	})
}

// Delete soft-deletes a non-system permission.
func (s *PermissionService) Delete(ctx context.Context, tenantID, id, actorID string) (*models.Permission, error) {
	return s.transition(ctx, tenantID, id, actorID, "permission_delete", func(p *models.Permission) error {
		return p.MarkAsDeleted()
	})
}

// Restore recovers a soft-deleted permission into inactive.
func (s *PermissionService) Restore(ctx context.Context, tenantID, id, actorID string) (*models.Permission, error) {
	return s.transition(ctx, tenantID, id, actorID, "permission_restore", func(p *models.Permission) error {
		return p.Restore()
	})
}

func (s *PermissionService) transition(ctx context.Context, tenantID, id, actorID, action string, mutate func(*models.Permission) error) (*models.Permission, error) {
	if err := s.validation.RequireActor(actorID); err != nil {
		return nil, err
	}
	permission, err := s.permissionRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(permission); err != nil {
		s.recordAudit(ctx, actorID, action, models.AuditStatusFailure, tenantID, id, map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	if err := s.permissionRepo.Save(ctx, permission); err != nil {
		s.logger.Error("Failed to save permission transition", zap.String("permission_id", id), zap.String("action", action), zap.Error(err))
		s.recordAudit(ctx, actorID, action, models.AuditStatusFailure, tenantID, id, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	eventType := models.EventPermissionStatusChanged
	if permission.Status == models.PermissionStatusDeleted {
		eventType = models.EventPermissionDeleted
	}
	s.publishEvent(eventType, permission, actorID)
	s.recordAudit(ctx, actorID, action, models.AuditStatusSuccess, tenantID, id, map[string]interface{}{"status": permission.Status})
	return permission, nil
}

// HardDelete removes a permission row entirely and unlinks it from every role
// still holding a grant.
func (s *PermissionService) HardDelete(ctx context.Context, tenantID, id, actorID string) error {
	if err := s.validation.RequireActor(actorID); err != nil {
		return err
	}
	permission, err := s.permissionRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if permission.IsSystemPermission {
		err := domainErrors.NewForbiddenError("system permission cannot be hard-deleted", domainErrors.ErrSystemPermissionProtected)
		s.recordAudit(ctx, actorID, "permission_hard_delete", models.AuditStatusFailure, tenantID, id, map[string]interface{}{"error": err.Error()})
		return err
	}

	for _, roleID := range permission.RoleIDs.Values() {
		role, err := s.roleRepo.FindByID(ctx, tenantID, roleID)
		if err != nil {
			if domainErrors.IsNotFound(err) {
				continue
			}
			return err
		}
		if role.RemovePermission(permission.ID) {
			if err := s.roleRepo.Save(ctx, role); err != nil {
				s.logger.Error("Failed to unlink permission from role", zap.String("permission_id", id), zap.String("role_id", roleID), zap.Error(err))
				return err
			}
		}
	}

	if err := s.permissionRepo.HardDelete(ctx, tenantID, id); err != nil {
		s.logger.Error("Failed to hard delete permission", zap.String("permission_id", id), zap.Error(err))
		s.recordAudit(ctx, actorID, "permission_hard_delete", models.AuditStatusFailure, tenantID, id, map[string]interface{}{"error": err.Error()})
		return err
	}

	s.publishEvent(models.EventPermissionDeleted, permission, actorID)
	s.recordAudit(ctx, actorID, "permission_hard_delete", models.AuditStatusSuccess, tenantID, id, nil)
	return nil
}

// BatchDelete soft-deletes the given permissions one by one. Every input id
// lands in exactly one of Success or Failed.
func (s *PermissionService) BatchDelete(ctx context.Context, tenantID string, ids []string, actorID string) (*models.BatchResult, error) {
	if err := s.validation.RequireActor(actorID); err != nil {
		return nil, err
	}

	result := &models.BatchResult{
		Success: make([]string, 0, len(ids)),
		Failed:  make([]models.BatchFailure, 0),
	}
	for _, id := range ids {
		if _, err := s.Delete(ctx, tenantID, id, actorID); err != nil {
			result.Failed = append(result.Failed, models.BatchFailure{
				ID:     id,
				Reason: err.Error(),
				Code:   domainErrors.CodeOf(err),
			})
			continue
		}
		result.Success = append(result.Success, id)
	}
	return result, nil
}
