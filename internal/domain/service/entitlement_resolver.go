package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/your-org/iam-service/internal/domain/errors"
	"github.com/your-org/iam-service/internal/domain/models"
	"github.com/your-org/iam-service/internal/domain/repository/interfaces"
	"github.com/your-org/iam-service/internal/utils/metrics"
)

// MaxInheritanceDepth bounds the parent walk during resolution. Cycle creation
// is rejected at link time, but the cap keeps an unbroken cycle that reached
// production from hanging resolution.
const MaxInheritanceDepth = 32

// EntitlementResolver computes the effective permission set a user holds
// after expanding role inheritance and applying priority tie-breaks.
type EntitlementResolver struct {
	roleRepo       interfaces.RoleRepository
	permissionRepo interfaces.PermissionRepository
	logger         *zap.Logger
}

// NewEntitlementResolver creates an EntitlementResolver. Pass the cached
// repository decorators to keep lookups fast.
func NewEntitlementResolver(roleRepo interfaces.RoleRepository, permissionRepo interfaces.PermissionRepository, logger *zap.Logger) *EntitlementResolver {
	return &EntitlementResolver{
		roleRepo:       roleRepo,
		permissionRepo: permissionRepo,
		logger:         logger,
	}
}

// ResolveForUser resolves the grant set for every role the user holds.
func (r *EntitlementResolver) ResolveForUser(ctx context.Context, tenantID, userID string) (*models.EffectivePermissionSet, error) {
	roles, err := r.roleRepo.FindByUserID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	roleIDs := make([]string, 0, len(roles))
	for _, role := range roles {
		roleIDs = append(roleIDs, role.ID)
	}
	return r.Resolve(ctx, tenantID, roleIDs)
}

// Resolve expands the role set with inherited ancestors, unions their
// permission grants, drops permissions that are not effectively active, and
// resolves explicit allow/deny conflicts per permission code in favor of the
// role with the lowest numeric priority. A deny wins ties.
func (r *EntitlementResolver) Resolve(ctx context.Context, tenantID string, roleIDs []string) (*models.EffectivePermissionSet, error) {
	started := time.Now()
	defer func() {
		metrics.ResolverRunsTotal.Inc()
		metrics.ResolverDuration.Observe(time.Since(started).Seconds())
	}()

	// Phase 1: expand inheritance, tracking the highest-precedence granting
	// priority per permission id.
	grantPriority := make(map[string]models.RolePriority)
	visited := make(map[string]bool)
	for _, roleID := range roleIDs {
		if err := r.collect(ctx, tenantID, roleID, 0, visited, grantPriority); err != nil {
			return nil, err
		}
	}

	permissionIDs := make([]string, 0, len(grantPriority))
	for id := range grantPriority {
		permissionIDs = append(permissionIDs, id)
	}
	sort.Strings(permissionIDs)

	permissions, err := r.permissionRepo.FindByIDs(ctx, tenantID, permissionIDs)
	if err != nil {
		return nil, err
	}

	// Phase 2: drop inactive grants, then settle allow/deny conflicts per code.
	now := time.Now().UTC()
	type codeGrants struct {
		allows        []*models.Permission
		allowPriority models.RolePriority
		denyPriority  models.RolePriority
		hasAllow      bool
		hasDeny       bool
	}
	byCode := make(map[string]*codeGrants)
	for _, p := range permissions {
		if !p.IsEffectivelyActive(now) {
			continue
		}
		priority := grantPriority[p.ID]
		code := p.Code.String()
		cg, ok := byCode[code]
		if !ok {
			cg = &codeGrants{}
			byCode[code] = cg
		}
		if p.Conditions.IsDeny() {
			if !cg.hasDeny || priority.IsHigherThan(cg.denyPriority) {
				cg.denyPriority = priority
				cg.hasDeny = true
			}
			continue
		}
		cg.allows = append(cg.allows, p)
		if !cg.hasAllow || priority.IsHigherThan(cg.allowPriority) {
			cg.allowPriority = priority
			cg.hasAllow = true
		}
	}

	result := &models.EffectivePermissionSet{
		TenantID:   tenantID,
		ResolvedAt: now,
	}
	for code, cg := range byCode {
		if !cg.hasAllow {
			continue
		}
		if cg.hasDeny && !cg.allowPriority.IsHigherThan(cg.denyPriority) {
			continue
		}
		result.Codes = append(result.Codes, code)
		for _, p := range cg.allows {
			result.PermissionIDs = append(result.PermissionIDs, p.ID)
		}
	}
	sort.Strings(result.Codes)
	sort.Strings(result.PermissionIDs)
	return result, nil
}

// collect walks role and its ancestor chain, recording each permission grant
// with the highest-precedence priority among the granting roles.
func (r *EntitlementResolver) collect(ctx context.Context, tenantID, roleID string, depth int, visited map[string]bool, grantPriority map[string]models.RolePriority) error {
	if depth > MaxInheritanceDepth {
		r.logger.Warn("Role inheritance depth cap hit during resolution",
			zap.String("tenant_id", tenantID),
			zap.String("role_id", roleID),
		)
		return fmt.Errorf("role %s: %w", roleID, domainErrors.ErrInheritanceDepthExceeded)
	}
	if visited[roleID] {
		return nil
	}
	visited[roleID] = true

	role, err := r.roleRepo.FindByID(ctx, tenantID, roleID)
	if err != nil {
		return err
	}
	if !role.IsActive() || role.IsExpired(time.Now().UTC()) {
		return nil
	}

	for _, permissionID := range role.PermissionIDs.Values() {
		current, ok := grantPriority[permissionID]
		if !ok || role.Priority.IsHigherThan(current) {
			grantPriority[permissionID] = role.Priority
		}
	}

	if role.ParentRoleID != nil {
		return r.collect(ctx, tenantID, *role.ParentRoleID, depth+1, visited, grantPriority)
	}
	return nil
}
