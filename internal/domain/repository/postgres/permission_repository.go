package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/your-org/iam-service/internal/domain/errors"
	"github.com/your-org/iam-service/internal/domain/models"
	"github.com/your-org/iam-service/internal/domain/repository/interfaces"
)

const permissionColumns = `id, tenant_id, organization_id, name, code, description, type, action, status,
	resource, module, tags, fields, conditions, expires_at, parent_permission_id,
	child_permission_ids, is_system_permission, is_default_permission, role_ids,
	created_at, updated_at, deleted_at`

// PermissionRepositoryPostgres implements interfaces.PermissionRepository on pgx.
type PermissionRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewPermissionRepositoryPostgres creates a new PermissionRepositoryPostgres.
func NewPermissionRepositoryPostgres(pool *pgxpool.Pool) *PermissionRepositoryPostgres {
	return &PermissionRepositoryPostgres{pool: pool}
}

func scanPermission(row pgx.Row) (*models.Permission, error) {
	p := &models.Permission{}
	err := row.Scan(
		&p.ID, &p.TenantID, &p.OrganizationID, &p.Name, &p.Code, &p.Description,
		&p.Type, &p.Action, &p.Status, &p.Resource, &p.Module, &p.Tags, &p.Fields,
		&p.Conditions, &p.ExpiresAt, &p.ParentPermissionID, &p.ChildPermissionIDs,
		&p.IsSystemPermission, &p.IsDefaultPermission, &p.RoleIDs,
		&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func collectPermissions(rows pgx.Rows) ([]*models.Permission, error) {
	defer rows.Close()
	var permissions []*models.Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		permissions = append(permissions, p)
	}
	return permissions, rows.Err()
}

func mapPermissionUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "code"):
			return fmt.Errorf("save permission: %w", domainErrors.ErrPermissionCodeExists)
		case strings.Contains(pgErr.ConstraintName, "name"):
			return fmt.Errorf("save permission: %w", domainErrors.ErrPermissionNameExists)
		default:
			return fmt.Errorf("save permission (constraint %s): %w", pgErr.ConstraintName, domainErrors.ErrAlreadyExists)
		}
	}
	return err
}

// FindByID returns the permission or ErrPermissionNotFound.
func (r *PermissionRepositoryPostgres) FindByID(ctx context.Context, tenantID, id string) (*models.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE tenant_id = $1 AND id = $2`
	p, err := scanPermission(r.pool.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrPermissionNotFound
		}
		return nil, fmt.Errorf("failed to get permission by id: %w", err)
	}
	return p, nil
}

// FindByCode returns the permission with the given normalized code.
func (r *PermissionRepositoryPostgres) FindByCode(ctx context.Context, tenantID string, code models.PermissionCode) (*models.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE tenant_id = $1 AND code = $2 AND deleted_at IS NULL`
	p, err := scanPermission(r.pool.QueryRow(ctx, query, tenantID, code.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrPermissionNotFound
		}
		return nil, fmt.Errorf("failed to get permission by code: %w", err)
	}
	return p, nil
}

// FindByName returns the permission with the given name.
func (r *PermissionRepositoryPostgres) FindByName(ctx context.Context, tenantID string, name models.PermissionName) (*models.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE tenant_id = $1 AND name = $2 AND deleted_at IS NULL`
	p, err := scanPermission(r.pool.QueryRow(ctx, query, tenantID, name.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrPermissionNotFound
		}
		return nil, fmt.Errorf("failed to get permission by name: %w", err)
	}
	return p, nil
}

// FindByIDs returns the subset of ids that exist in the tenant.
func (r *PermissionRepositoryPostgres) FindByIDs(ctx context.Context, tenantID string, ids []string) ([]*models.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE tenant_id = $1 AND id = ANY($2)`
	rows, err := r.pool.Query(ctx, query, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions by ids: %w", err)
	}
	return collectPermissions(rows)
}

// Save upserts the permission by id.
func (r *PermissionRepositoryPostgres) Save(ctx context.Context, p *models.Permission) error {
	query := `
		INSERT INTO permissions (` + permissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (id) DO UPDATE SET
			organization_id = EXCLUDED.organization_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			resource = EXCLUDED.resource,
			module = EXCLUDED.module,
			tags = EXCLUDED.tags,
			fields = EXCLUDED.fields,
			conditions = EXCLUDED.conditions,
			expires_at = EXCLUDED.expires_at,
			parent_permission_id = EXCLUDED.parent_permission_id,
			child_permission_ids = EXCLUDED.child_permission_ids,
			is_default_permission = EXCLUDED.is_default_permission,
			role_ids = EXCLUDED.role_ids,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID, p.TenantID, p.OrganizationID, p.Name.String(), p.Code.String(), p.Description,
		p.Type, p.Action, p.Status, p.Resource, p.Module, p.Tags, p.Fields,
		p.Conditions, p.ExpiresAt, p.ParentPermissionID, p.ChildPermissionIDs,
		p.IsSystemPermission, p.IsDefaultPermission, p.RoleIDs,
		p.CreatedAt, p.UpdatedAt, p.DeletedAt,
	)
	if err != nil {
		return mapPermissionUniqueViolation(err)
	}
	return nil
}

// Delete soft-deletes the permission.
func (r *PermissionRepositoryPostgres) Delete(ctx context.Context, tenantID, id string) error {
	query := `
		UPDATE permissions SET status = $3, deleted_at = $4, updated_at = $4
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`
	tag, err := r.pool.Exec(ctx, query, tenantID, id, models.PermissionStatusDeleted, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to delete permission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrPermissionNotFound
	}
	return nil
}

// HardDelete removes the row.
func (r *PermissionRepositoryPostgres) HardDelete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to hard delete permission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrPermissionNotFound
	}
	return nil
}

// Restore recovers a soft-deleted permission into inactive.
func (r *PermissionRepositoryPostgres) Restore(ctx context.Context, tenantID, id string) error {
	query := `
		UPDATE permissions SET status = $3, deleted_at = NULL, updated_at = $4
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NOT NULL
	`
	tag, err := r.pool.Exec(ctx, query, tenantID, id, models.PermissionStatusInactive, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to restore permission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrPermissionNotFound
	}
	return nil
}

// FindByStatus returns all permissions in the given status.
func (r *PermissionRepositoryPostgres) FindByStatus(ctx context.Context, tenantID string, status models.PermissionStatus) ([]*models.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE tenant_id = $1 AND status = $2 ORDER BY code`
	rows, err := r.pool.Query(ctx, query, tenantID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions by status: %w", err)
	}
	return collectPermissions(rows)
}

func (r *PermissionRepositoryPostgres) FindActive(ctx context.Context, tenantID string) ([]*models.Permission, error) {
	return r.FindByStatus(ctx, tenantID, models.PermissionStatusActive)
}

func (r *PermissionRepositoryPostgres) FindSuspended(ctx context.Context, tenantID string) ([]*models.Permission, error) {
	return r.FindByStatus(ctx, tenantID, models.PermissionStatusSuspended)
}

func (r *PermissionRepositoryPostgres) FindDeleted(ctx context.Context, tenantID string) ([]*models.Permission, error) {
	return r.FindByStatus(ctx, tenantID, models.PermissionStatusDeleted)
}

func (r *PermissionRepositoryPostgres) FindSystem(ctx context.Context, tenantID string) ([]*models.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE tenant_id = $1 AND is_system_permission ORDER BY code`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get system permissions: %w", err)
	}
	return collectPermissions(rows)
}

func (r *PermissionRepositoryPostgres) FindDefault(ctx context.Context, tenantID string) ([]*models.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE tenant_id = $1 AND is_default_permission ORDER BY code`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get default permissions: %w", err)
	}
	return collectPermissions(rows)
}

func (r *PermissionRepositoryPostgres) FindExpired(ctx context.Context, tenantID string) ([]*models.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions
		WHERE tenant_id = $1 AND expires_at IS NOT NULL AND expires_at < NOW() ORDER BY expires_at`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired permissions: %w", err)
	}
	return collectPermissions(rows)
}

var permissionSortColumns = map[string]string{
	"code":       "code",
	"name":       "name",
	"type":       "type",
	"action":     "action",
	"status":     "status",
	"module":     "module",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// FindWithPagination returns one page of permissions matching the filter.
func (r *PermissionRepositoryPostgres) FindWithPagination(ctx context.Context, tenantID string, page interfaces.Page, filter interfaces.PermissionFilter, sort interfaces.Sort) (*interfaces.PermissionPage, error) {
	where := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}

	addArg := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != nil {
		addArg("status = $%d", *filter.Status)
	}
	if filter.OrganizationID != nil {
		addArg("organization_id = $%d", *filter.OrganizationID)
	}
	if filter.Type != nil {
		addArg("type = $%d", *filter.Type)
	}
	if filter.Action != nil {
		addArg("action = $%d", *filter.Action)
	}
	if filter.Module != nil {
		addArg("module = $%d", *filter.Module)
	}
	if filter.Search != "" {
		args = append(args, filter.Search)
		idx := len(args)
		where = append(where, fmt.Sprintf("(code ILIKE $%d || '%%' OR name ILIKE '%%' || $%d || '%%')", idx, idx))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM permissions WHERE ` + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count permissions: %w", err)
	}

	orderBy, ok := permissionSortColumns[sort.Field]
	if !ok {
		orderBy = "created_at"
	}
	direction := "ASC"
	if sort.Desc {
		direction = "DESC"
	}

	if page.Number < 1 {
		page.Number = 1
	}
	if page.Limit < 1 {
		page.Limit = 20
	}
	offset := (page.Number - 1) * page.Limit

	query := fmt.Sprintf(`SELECT %s FROM permissions WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		permissionColumns, whereClause, orderBy, direction, len(args)+1, len(args)+2)
	args = append(args, page.Limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	permissions, err := collectPermissions(rows)
	if err != nil {
		return nil, err
	}

	return &interfaces.PermissionPage{
		Permissions: permissions,
		TotalCount:  total,
		Page:        page.Number,
		Limit:       page.Limit,
	}, nil
}

// CountByStatus counts permissions in the given status.
func (r *PermissionRepositoryPostgres) CountByStatus(ctx context.Context, tenantID string, status models.PermissionStatus) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM permissions WHERE tenant_id = $1 AND status = $2`, tenantID, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count permissions by status: %w", err)
	}
	return count, nil
}

// CountByTenant counts all permissions in the tenant.
func (r *PermissionRepositoryPostgres) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM permissions WHERE tenant_id = $1`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count permissions by tenant: %w", err)
	}
	return count, nil
}
