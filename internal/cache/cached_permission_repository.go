package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/iam-service/internal/domain/models"
	"github.com/your-org/iam-service/internal/domain/repository/interfaces"
)

// CachedPermissionRepository is a read-through, write-invalidate decorator
// over a PermissionRepository.
type CachedPermissionRepository struct {
	interfaces.PermissionRepository
	cache  EntityCache
	logger *zap.Logger
	ttl    time.Duration
}

// NewCachedPermissionRepository wraps repo with the given cache.
func NewCachedPermissionRepository(repo interfaces.PermissionRepository, entityCache EntityCache, logger *zap.Logger, ttl time.Duration) *CachedPermissionRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedPermissionRepository{
		PermissionRepository: repo,
		cache:                entityCache,
		logger:               logger,
		ttl:                  ttl,
	}
}

// FindByID serves from the cache when possible, loading and caching on miss.
func (r *CachedPermissionRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Permission, error) {
	key := EntityKey(KindPermission, tenantID, id)

	var cached models.Permission
	if r.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	permission, err := r.PermissionRepository.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, permission, r.ttl); err != nil {
		r.logger.Warn("Failed to cache permission", zap.String("permission_id", id), zap.Error(err))
	}
	return permission, nil
}

// FindByIDs serves each id from the cache, falling back to one bulk load for
// the misses.
func (r *CachedPermissionRepository) FindByIDs(ctx context.Context, tenantID string, ids []string) ([]*models.Permission, error) {
	var result []*models.Permission
	var misses []string
	for _, id := range ids {
		var cached models.Permission
		if r.cache.Get(ctx, EntityKey(KindPermission, tenantID, id), &cached) {
			result = append(result, &cached)
			continue
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return result, nil
	}

	loaded, err := r.PermissionRepository.FindByIDs(ctx, tenantID, misses)
	if err != nil {
		return nil, err
	}
	for _, p := range loaded {
		if err := r.cache.Set(ctx, EntityKey(KindPermission, tenantID, p.ID), p, r.ttl); err != nil {
			r.logger.Warn("Failed to cache permission", zap.String("permission_id", p.ID), zap.Error(err))
		}
	}
	return append(result, loaded...), nil
}

// Save writes through and invalidates the cached snapshot.
func (r *CachedPermissionRepository) Save(ctx context.Context, permission *models.Permission) error {
	if err := r.PermissionRepository.Save(ctx, permission); err != nil {
		return err
	}
	r.invalidate(ctx, permission.TenantID, permission.ID)
	return nil
}

// Delete soft-deletes and invalidates.
func (r *CachedPermissionRepository) Delete(ctx context.Context, tenantID, id string) error {
	if err := r.PermissionRepository.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	r.invalidate(ctx, tenantID, id)
	return nil
}

// HardDelete removes the row and invalidates.
func (r *CachedPermissionRepository) HardDelete(ctx context.Context, tenantID, id string) error {
	if err := r.PermissionRepository.HardDelete(ctx, tenantID, id); err != nil {
		return err
	}
	r.invalidate(ctx, tenantID, id)
	return nil
}

// Restore recovers the permission and invalidates.
func (r *CachedPermissionRepository) Restore(ctx context.Context, tenantID, id string) error {
	if err := r.PermissionRepository.Restore(ctx, tenantID, id); err != nil {
		return err
	}
	r.invalidate(ctx, tenantID, id)
	return nil
}

func (r *CachedPermissionRepository) invalidate(ctx context.Context, tenantID, id string) {
	key := EntityKey(KindPermission, tenantID, id)
	if err := r.cache.Delete(ctx, key); err != nil {
		r.logger.Warn("Failed to invalidate cached permission", zap.String("permission_id", id), zap.Error(err))
	}
}
