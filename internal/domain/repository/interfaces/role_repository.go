package interfaces

import (
	"context"

	"github.com/your-org/iam-service/internal/domain/models"
)

// RolePage is one page of a role listing.
type RolePage struct {
	Roles      []*models.Role
	TotalCount int64
	Page       int
	Limit      int
}

// RoleRepository is the persistence contract for roles. Every lookup is
// tenant-scoped; an id that exists under another tenant is a not-found.
type RoleRepository interface {
	// FindByID returns the role or ErrRoleNotFound.
	FindByID(ctx context.Context, tenantID, id string) (*models.Role, error)

	// FindByCode returns the role with the given normalized code.
	FindByCode(ctx context.Context, tenantID string, code models.RoleCode) (*models.Role, error)

	// FindByName returns the role with the given name.
	FindByName(ctx context.Context, tenantID string, name models.RoleName) (*models.Role, error)

	// FindByIDs returns the subset of ids that exist in the tenant.
	FindByIDs(ctx context.Context, tenantID string, ids []string) ([]*models.Role, error)

	// FindByUserID returns the roles whose user membership contains userID.
	FindByUserID(ctx context.Context, tenantID, userID string) ([]*models.Role, error)

	// Save upserts the role by id.
	Save(ctx context.Context, role *models.Role) error

	// Delete soft-deletes: status -> deleted, deleted_at set.
	Delete(ctx context.Context, tenantID, id string) error

	// HardDelete removes the row. Protection of system roles is enforced above.
	HardDelete(ctx context.Context, tenantID, id string) error

	// Restore recovers a soft-deleted role into suspended.
	Restore(ctx context.Context, tenantID, id string) error

	FindByStatus(ctx context.Context, tenantID string, status models.RoleStatus) ([]*models.Role, error)
	FindActive(ctx context.Context, tenantID string) ([]*models.Role, error)
	FindSuspended(ctx context.Context, tenantID string) ([]*models.Role, error)
	FindDeleted(ctx context.Context, tenantID string) ([]*models.Role, error)
	FindSystem(ctx context.Context, tenantID string) ([]*models.Role, error)
	FindDefault(ctx context.Context, tenantID string) ([]*models.Role, error)
	FindExpired(ctx context.Context, tenantID string) ([]*models.Role, error)

	FindWithPagination(ctx context.Context, tenantID string, page Page, filter RoleFilter, sort Sort) (*RolePage, error)

	CountByStatus(ctx context.Context, tenantID string, status models.RoleStatus) (int64, error)
	CountByTenant(ctx context.Context, tenantID string) (int64, error)
}
