package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/iam-service/internal/domain/models"
	"github.com/your-org/iam-service/internal/domain/repository/interfaces"
)

// CachedRoleRepository is a read-through, write-invalidate decorator over a
// RoleRepository. Cache failures degrade to repository reads and never fail
// the call.
type CachedRoleRepository struct {
	interfaces.RoleRepository
	cache  EntityCache
	logger *zap.Logger
	ttl    time.Duration
}

// NewCachedRoleRepository wraps repo with the given cache.
func NewCachedRoleRepository(repo interfaces.RoleRepository, entityCache EntityCache, logger *zap.Logger, ttl time.Duration) *CachedRoleRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedRoleRepository{
		RoleRepository: repo,
		cache:          entityCache,
		logger:         logger,
		ttl:            ttl,
	}
}

// FindByID serves from the cache when possible, loading and caching on miss.
func (r *CachedRoleRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Role, error) {
	key := EntityKey(KindRole, tenantID, id)

	var cached models.Role
	if r.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	role, err := r.RoleRepository.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, role, r.ttl); err != nil {
		r.logger.Warn("Failed to cache role", zap.String("role_id", id), zap.Error(err))
	}
	return role, nil
}

// Save writes through and invalidates the cached snapshot.
func (r *CachedRoleRepository) Save(ctx context.Context, role *models.Role) error {
	if err := r.RoleRepository.Save(ctx, role); err != nil {
		return err
	}
	r.invalidate(ctx, role.TenantID, role.ID)
	return nil
}

// Delete soft-deletes and invalidates.
func (r *CachedRoleRepository) Delete(ctx context.Context, tenantID, id string) error {
	if err := r.RoleRepository.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	r.invalidate(ctx, tenantID, id)
	return nil
}

// HardDelete removes the row and invalidates.
func (r *CachedRoleRepository) HardDelete(ctx context.Context, tenantID, id string) error {
	if err := r.RoleRepository.HardDelete(ctx, tenantID, id); err != nil {
		return err
	}
	r.invalidate(ctx, tenantID, id)
	return nil
}

// Restore recovers the role and invalidates.
func (r *CachedRoleRepository) Restore(ctx context.Context, tenantID, id string) error {
	if err := r.RoleRepository.Restore(ctx, tenantID, id); err != nil {
		return err
	}
	r.invalidate(ctx, tenantID, id)
	return nil
}

func (r *CachedRoleRepository) invalidate(ctx context.Context, tenantID, id string) {
	key := EntityKey(KindRole, tenantID, id)
	if err := r.cache.Delete(ctx, key); err != nil {
		r.logger.Warn("Failed to invalidate cached role", zap.String("role_id", id), zap.Error(err))
	}
}
