package interfaces

import (
	"context"

	"github.com/your-org/iam-service/internal/domain/models"
)

// PermissionPage is one page of a permission listing.
type PermissionPage struct {
	Permissions []*models.Permission
	TotalCount  int64
	Page        int
	Limit       int
}

// PermissionRepository is the persistence contract for permissions. Every
// lookup is tenant-scoped.
type PermissionRepository interface {
	// FindByID returns the permission or ErrPermissionNotFound.
	FindByID(ctx context.Context, tenantID, id string) (*models.Permission, error)

	// FindByCode returns the permission with the given normalized code.
	FindByCode(ctx context.Context, tenantID string, code models.PermissionCode) (*models.Permission, error)

	// FindByName returns the permission with the given name.
	FindByName(ctx context.Context, tenantID string, name models.PermissionName) (*models.Permission, error)

	// FindByIDs returns the subset of ids that exist in the tenant.
	FindByIDs(ctx context.Context, tenantID string, ids []string) ([]*models.Permission, error)

	// Save upserts the permission by id.
	Save(ctx context.Context, permission *models.Permission) error

	// Delete soft-deletes: status -> deleted, deleted_at set.
	Delete(ctx context.Context, tenantID, id string) error

	// HardDelete removes the row. Protection of system permissions is enforced above.
	HardDelete(ctx context.Context, tenantID, id string) error

	// Restore recovers a soft-deleted permission into inactive.
	Restore(ctx context.Context, tenantID, id string) error

	FindByStatus(ctx context.Context, tenantID string, status models.PermissionStatus) ([]*models.Permission, error)
	FindActive(ctx context.Context, tenantID string) ([]*models.Permission, error)
	FindSuspended(ctx context.Context, tenantID string) ([]*models.Permission, error)
	FindDeleted(ctx context.Context, tenantID string) ([]*models.Permission, error)
	FindSystem(ctx context.Context, tenantID string) ([]*models.Permission, error)
	FindDefault(ctx context.Context, tenantID string) ([]*models.Permission, error)
	FindExpired(ctx context.Context, tenantID string) ([]*models.Permission, error)

	FindWithPagination(ctx context.Context, tenantID string, page Page, filter PermissionFilter, sort Sort) (*PermissionPage, error)

	CountByStatus(ctx context.Context, tenantID string, status models.PermissionStatus) (int64, error)
	CountByTenant(ctx context.Context, tenantID string) (int64, error)
}
