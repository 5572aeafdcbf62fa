package service

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/your-org/iam-service/internal/domain/errors"
	"github.com/your-org/iam-service/internal/domain/models"
	"github.com/your-org/iam-service/internal/domain/repository/interfaces"
)

// ValidationService holds the stateless cross-entity business rules that run
// before every mutation. It never applies a change itself; failures surface
// as typed domain errors before any write happens.
type ValidationService struct {
	roleRepo       interfaces.RoleRepository
	permissionRepo interfaces.PermissionRepository
}

// NewValidationService creates a ValidationService.
func NewValidationService(roleRepo interfaces.RoleRepository, permissionRepo interfaces.PermissionRepository) *ValidationService {
	return &ValidationService{
		roleRepo:       roleRepo,
		permissionRepo: permissionRepo,
	}
}

// RequireActor rejects mutations without an acting principal, so every audit
// record has an actor.
func (s *ValidationService) RequireActor(actorID string) error {
	if actorID == "" {
		return domainErrors.ErrActorRequired
	}
	return nil
}

// EnsureRoleCodeUnique fails with a conflict when the code is taken in the
// tenant. The check-then-insert pair is not atomic; the persistence unique
// constraint is the real guarantee and maps to the same sentinel.
func (s *ValidationService) EnsureRoleCodeUnique(ctx context.Context, tenantID string, code models.RoleCode) error {
	_, err := s.roleRepo.FindByCode(ctx, tenantID, code)
	if err == nil {
		return fmt.Errorf("code %q: %w", code, domainErrors.ErrRoleCodeExists)
	}
	if errors.Is(err, domainErrors.ErrRoleNotFound) {
		return nil
	}
	return err
}

// EnsureRoleNameUnique fails with a conflict when the name is taken in the
// tenant. An optional excludeID skips the role being renamed.
func (s *ValidationService) EnsureRoleNameUnique(ctx context.Context, tenantID string, name models.RoleName, excludeID string) error {
	existing, err := s.roleRepo.FindByName(ctx, tenantID, name)
	if err == nil {
		if existing.ID == excludeID {
			return nil
		}
		return fmt.Errorf("name %q: %w", name, domainErrors.ErrRoleNameExists)
	}
	if errors.Is(err, domainErrors.ErrRoleNotFound) {
		return nil
	}
	return err
}

// EnsurePermissionCodeUnique fails with a conflict when the code is taken.
func (s *ValidationService) EnsurePermissionCodeUnique(ctx context.Context, tenantID string, code models.PermissionCode) error {
	_, err := s.permissionRepo.FindByCode(ctx, tenantID, code)
	if err == nil {
		return fmt.Errorf("code %q: %w", code, domainErrors.ErrPermissionCodeExists)
	}
	if errors.Is(err, domainErrors.ErrPermissionNotFound) {
		return nil
	}
	return err
}

// EnsurePermissionNameUnique fails with a conflict when the name is taken.
func (s *ValidationService) EnsurePermissionNameUnique(ctx context.Context, tenantID string, name models.PermissionName, excludeID string) error {
	existing, err := s.permissionRepo.FindByName(ctx, tenantID, name)
	if err == nil {
		if existing.ID == excludeID {
			return nil
		}
		return fmt.Errorf("name %q: %w", name, domainErrors.ErrPermissionNameExists)
	}
	if errors.Is(err, domainErrors.ErrPermissionNotFound) {
		return nil
	}
	return err
}

// CanActivate mirrors the role transition guard without mutating.
func (s *ValidationService) CanActivate(role *models.Role) error {
	if role.Status != models.RoleStatusSuspended {
		return fmt.Errorf("role %s in status %q: %w", role.ID, role.Status, domainErrors.ErrInvalidTransition)
	}
	return nil
}

// CanSuspend mirrors the role transition guard without mutating.
func (s *ValidationService) CanSuspend(role *models.Role) error {
	if role.Status != models.RoleStatusActive {
		return fmt.Errorf("role %s in status %q: %w", role.ID, role.Status, domainErrors.ErrInvalidTransition)
	}
	return nil
}

// CanDelete mirrors the soft-delete guard without mutating.
func (s *ValidationService) CanDelete(role *models.Role) error {
	if role.IsSystemRole {
		return fmt.Errorf("role %s: %w", role.ID, domainErrors.ErrSystemRoleProtected)
	}
	if role.Status == models.RoleStatusDeleted {
		return fmt.Errorf("role %s already deleted: %w", role.ID, domainErrors.ErrInvalidTransition)
	}
	return nil
}

// CanRestore mirrors the restore guard without mutating.
func (s *ValidationService) CanRestore(role *models.Role) error {
	if role.Status != models.RoleStatusDeleted {
		return fmt.Errorf("role %s in status %q: %w", role.ID, role.Status, domainErrors.ErrInvalidTransition)
	}
	return nil
}

// Known values for tenant/role settings maps.
var (
	settingsThemes    = map[string]struct{}{"light": {}, "dark": {}, "system": {}}
	settingsLanguages = map[string]struct{}{"en": {}, "ru": {}, "es": {}, "zh": {}}
)

// ValidateSettings checks the shape of an opaque settings map, rejecting
// unknown enum values. All violations are reported together.
func (s *ValidationService) ValidateSettings(settings map[string]interface{}) error {
	var violations []string
	for key, raw := range settings {
		switch key {
		case "theme":
			value, ok := raw.(string)
			if !ok {
				violations = append(violations, "theme must be a string")
				continue
			}
			if _, known := settingsThemes[value]; !known {
				violations = append(violations, fmt.Sprintf("unknown theme %q", value))
			}
		case "language":
			value, ok := raw.(string)
			if !ok {
				violations = append(violations, "language must be a string")
				continue
			}
			if _, known := settingsLanguages[value]; !known {
				violations = append(violations, fmt.Sprintf("unknown language %q", value))
			}
		}
	}
	if len(violations) > 0 {
		return domainErrors.NewValidationError("settings", violations)
	}
	return nil
}
