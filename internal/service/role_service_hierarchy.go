package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/your-org/iam-service/internal/domain/errors"
	"github.com/your-org/iam-service/internal/domain/models"
	domainService "github.com/your-org/iam-service/internal/domain/service"
)

func (s *RoleService) publishAssignmentEvent(role *models.Role, kind, memberID string, added bool, actorID string) {
	s.publisher.PublishRoleAssignmentEvent(models.RoleAssignmentEvent{
		RoleID:    role.ID,
		TenantID:  role.TenantID,
		Kind:      kind,
		MemberID:  memberID,
		Added:     added,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
	})
}

// AssignPermission grants a permission to a role. Both sides of the link are
// updated so role.PermissionIDs and permission.RoleIDs stay mirrored.
func (s *RoleService) AssignPermission(ctx context.Context, tenantID, roleID, permissionID, actorID string) error {
	if err := s.validation.RequireActor(actorID); err != nil {
		return err
	}
	role, err := s.roleRepo.FindByID(ctx, tenantID, roleID)
	if err != nil {
		return err
	}
	permission, err := s.permissionRepo.FindByID(ctx, tenantID, permissionID)
	if err != nil {
		return err
	}

	if !role.AssignPermission(permission.ID) {
		return nil // already granted
	}
	permission.AttachRole(role.ID)

	if err := s.roleRepo.Save(ctx, role); err != nil {
		s.logger.Error("Failed to save role permission grant", zap.String("role_id", roleID), zap.String("permission_id", permissionID), zap.Error(err))
		s.recordAudit(ctx, actorID, "role_assign_permission", models.AuditStatusFailure, tenantID, roleID, map[string]interface{}{"permission_id": permissionID, "error": err.Error()})
		return err
	}
	if err := s.permissionRepo.Save(ctx, permission); err != nil {
		s.logger.Error("Failed to mirror grant on permission", zap.String("role_id", roleID), zap.String("permission_id", permissionID), zap.Error(err))
		s.recordAudit(ctx, actorID, "role_assign_permission", models.AuditStatusFailure, tenantID, roleID, map[string]interface{}{"permission_id": permissionID, "error": err.Error()})
		return err
	}

	s.publishAssignmentEvent(role, "permission", permission.ID, true, actorID)
	s.recordAudit(ctx, actorID, "role_assign_permission", models.AuditStatusSuccess, tenantID, roleID, map[string]interface{}{"permission_id": permissionID})
	return nil
}

// RemovePermission revokes a permission from a role, mirroring the unlink on
// the permission side.
func (s *RoleService) RemovePermission(ctx context.Context, tenantID, roleID, permissionID, actorID string) error {
	if err := s.validation.RequireActor(actorID); err != nil {
		return err
	}
	role, err := s.roleRepo.FindByID(ctx, tenantID, roleID)
	if err != nil {
		return err
	}

	if !role.RemovePermission(permissionID) {
		return nil // nothing to revoke
	}

	if err := s.roleRepo.Save(ctx, role); err != nil {
		s.logger.Error("Failed to save role permission revoke", zap.String("role_id", roleID), zap.String("permission_id", permissionID), zap.Error(err))
		s.recordAudit(ctx, actorID, "role_remove_permission", models.AuditStatusFailure, tenantID, roleID, map[string]interface{}{"permission_id": permissionID, "error": err.Error()})
		return err
	}

	// The permission may already be hard-deleted; a missing mirror is fine.
	if permission, err := s.permissionRepo.FindByID(ctx, tenantID, permissionID); err == nil {
		if permission.DetachRole(roleID) {
			if err := s.permissionRepo.Save(ctx, permission); err != nil {
				s.logger.Warn("Failed to mirror revoke on permission", zap.String("permission_id", permissionID), zap.Error(err))
			}
		}
	} else if !domainErrors.IsNotFound(err) {
		s.logger.Warn("Failed to load permission for revoke mirror", zap.String("permission_id", permissionID), zap.Error(err))
	}

	s.publishAssignmentEvent(role, "permission", permissionID, false, actorID)
	s.recordAudit(ctx, actorID, "role_remove_permission", models.AuditStatusSuccess, tenantID, roleID, map[string]interface{}{"permission_id": permissionID})
	return nil
}

// AssignUser adds a user to the role, enforcing the optional member cap.
func (s *RoleService) AssignUser(ctx context.Context, tenantID, roleID, userID, actorID string) error {
	if err := s.validation.RequireActor(actorID); err != nil {
		return err
	}
	role, err := s.roleRepo.FindByID(ctx, tenantID, roleID)
	if err != nil {
		return err
	}
	if role.UserIDs.Contains(userID) {
		return nil
	}
	if err := role.AssignUser(userID); err != nil {
		s.recordAudit(ctx, actorID, "role_assign_user", models.AuditStatusFailure, tenantID, roleID, map[string]interface{}{"user_id": userID, "error": err.Error()})
		return err
	}
	if err := s.roleRepo.Save(ctx, role); err != nil {
		s.logger.Error("Failed to save role user assignment", zap.String("role_id", roleID), zap.String("user_id", userID), zap.Error(err))
		s.recordAudit(ctx, actorID, "role_assign_user", models.AuditStatusFailure, tenantID, roleID, map[string]interface{}{"user_id": userID, "error": err.Error()})
		return err
	}

	s.publishAssignmentEvent(role, "user", userID, true, actorID)
	s.recordAudit(ctx, actorID, "role_assign_user", models.AuditStatusSuccess, tenantID, roleID, map[string]interface{}{"user_id": userID})
	return nil
}

// RemoveUser drops a user from the role.
func (s *RoleService) RemoveUser(ctx context.Context, tenantID, roleID, userID, actorID string) error {
	if err := s.validation.RequireActor(actorID); err != nil {
		return err
	}
	role, err := s.roleRepo.FindByID(ctx, tenantID, roleID)
	if err != nil {
		return err
	}
	if !role.RemoveUser(userID) {
		return nil
	}
	if err := s.roleRepo.Save(ctx, role); err != nil {
		s.logger.Error("Failed to save role user removal", zap.String("role_id", roleID), zap.String("user_id", userID), zap.Error(err))
		s.recordAudit(ctx, actorID, "role_remove_user", models.AuditStatusFailure, tenantID, roleID, map[string]interface{}{"user_id": userID, "error": err.Error()})
		return err
	}

	s.publishAssignmentEvent(role, "user", userID, false, actorID)
	s.recordAudit(ctx, actorID, "role_remove_user", models.AuditStatusSuccess, tenantID, roleID, map[string]interface{}{"user_id": userID})
	return nil
}

// SetInheritance links child under parent. Self-links, cross-tenant links and
// any link that would close a cycle are rejected before either side mutates.
func (s *RoleService) SetInheritance(ctx context.Context, tenantID, childID, parentID, actorID string) error {
	if err := s.validation.RequireActor(actorID); err != nil {
		return err
	}
	if childID == parentID {
		return fmt.Errorf("role %s cannot inherit from itself: %w", childID, domainErrors.ErrInheritanceCycle)
	}

	child, err := s.roleRepo.FindByID(ctx, tenantID, childID)
	if err != nil {
		return err
	}
	parent, err := s.roleRepo.FindByID(ctx, tenantID, parentID)
	if err != nil {
		return err
	}
	if child.TenantID != parent.TenantID {
		return fmt.Errorf("roles %s and %s: %w", childID, parentID, domainErrors.ErrTenantMismatch)
	}
	if err := s.ensureNoCycle(ctx, tenantID, childID, parent); err != nil {
		s.recordAudit(ctx, actorID, "role_set_inheritance", models.AuditStatusFailure, tenantID, childID, map[string]interface{}{"parent_role_id": parentID, "error": err.Error()})
		return err
	}

	// Detach from the previous parent first so its child set stays accurate.
	if child.ParentRoleID != nil && *child.ParentRoleID != parentID {
		if err := s.detachFromParent(ctx, tenantID, child); err != nil {
			return err
		}
	}

	child.SetInheritance(parent.ID)
	parent.AddChildRole(child.ID)

	if err := s.roleRepo.Save(ctx, child); err != nil {
		s.logger.Error("Failed to save child role inheritance", zap.String("role_id", childID), zap.Error(err))
		s.recordAudit(ctx, actorID, "role_set_inheritance", models.AuditStatusFailure, tenantID, childID, map[string]interface{}{"parent_role_id": parentID, "error": err.Error()})
		return err
	}
	if err := s.roleRepo.Save(ctx, parent); err != nil {
		s.logger.Error("Failed to save parent role child link", zap.String("role_id", parentID), zap.Error(err))
		s.recordAudit(ctx, actorID, "role_set_inheritance", models.AuditStatusFailure, tenantID, childID, map[string]interface{}{"parent_role_id": parentID, "error": err.Error()})
		return err
	}

	s.publishStatusEvent(models.EventRoleUpdated, child, actorID)
	s.recordAudit(ctx, actorID, "role_set_inheritance", models.AuditStatusSuccess, tenantID, childID, map[string]interface{}{"parent_role_id": parentID})
	return nil
}

// RemoveInheritance detaches the role from its parent, if any.
func (s *RoleService) RemoveInheritance(ctx context.Context, tenantID, childID, actorID string) error {
	if err := s.validation.RequireActor(actorID); err != nil {
		return err
	}
	child, err := s.roleRepo.FindByID(ctx, tenantID, childID)
	if err != nil {
		return err
	}
	if child.ParentRoleID == nil {
		return nil
	}
	if err := s.detachFromParent(ctx, tenantID, child); err != nil {
		return err
	}

	child.RemoveInheritance()
	if err := s.roleRepo.Save(ctx, child); err != nil {
		s.logger.Error("Failed to save inheritance removal", zap.String("role_id", childID), zap.Error(err))
		s.recordAudit(ctx, actorID, "role_remove_inheritance", models.AuditStatusFailure, tenantID, childID, map[string]interface{}{"error": err.Error()})
		return err
	}

	s.publishStatusEvent(models.EventRoleUpdated, child, actorID)
	s.recordAudit(ctx, actorID, "role_remove_inheritance", models.AuditStatusSuccess, tenantID, childID, nil)
	return nil
}

// ensureNoCycle walks the prospective parent's ancestor chain and rejects the
// link if it reaches the child or exceeds the inheritance depth cap.
func (s *RoleService) ensureNoCycle(ctx context.Context, tenantID, childID string, parent *models.Role) error {
	current := parent
	for depth := 1; ; depth++ {
		if current.ID == childID {
			return fmt.Errorf("linking role %s under %s closes a cycle: %w", childID, parent.ID, domainErrors.ErrInheritanceCycle)
		}
		if depth >= domainService.MaxInheritanceDepth {
			return fmt.Errorf("inheritance chain above role %s exceeds %d levels: %w", parent.ID, domainService.MaxInheritanceDepth, domainErrors.ErrInheritanceDepthExceeded)
		}
		if current.ParentRoleID == nil {
			return nil
		}
		next, err := s.roleRepo.FindByID(ctx, tenantID, *current.ParentRoleID)
		if err != nil {
			if domainErrors.IsNotFound(err) {
				return nil // dangling link terminates the chain
			}
			return err
		}
		current = next
	}
}

func (s *RoleService) detachFromParent(ctx context.Context, tenantID string, child *models.Role) error {
	former, err := s.roleRepo.FindByID(ctx, tenantID, *child.ParentRoleID)
	if err != nil {
		if domainErrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if former.RemoveChildRole(child.ID) {
		if err := s.roleRepo.Save(ctx, former); err != nil {
			s.logger.Error("Failed to save former parent child unlink", zap.String("role_id", former.ID), zap.Error(err))
			return err
		}
	}
	return nil
}

// BatchDelete soft-deletes the given roles one by one. Every input id lands in
// exactly one of the result's Success or Failed lists; a failure never aborts
// the remainder of the batch.
func (s *RoleService) BatchDelete(ctx context.Context, tenantID string, ids []string, actorID string) (*models.BatchResult, error) {
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
