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

const roleColumns = `id, tenant_id, organization_id, name, code, description, status, priority,
	is_system_role, is_default_role, max_users, expires_at, parent_role_id,
	child_role_ids, permission_ids, user_ids, created_at, updated_at, deleted_at`

// RoleRepositoryPostgres implements interfaces.RoleRepository on pgx.
type RoleRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewRoleRepositoryPostgres creates a new RoleRepositoryPostgres.
func NewRoleRepositoryPostgres(pool *pgxpool.Pool) *RoleRepositoryPostgres {
	return &RoleRepositoryPostgres{pool: pool}
}

func scanRole(row pgx.Row) (*models.Role, error) {
	role := &models.Role{}
	err := row.Scan(
		&role.ID, &role.TenantID, &role.OrganizationID, &role.Name, &role.Code,
		&role.Description, &role.Status, &role.Priority, &role.IsSystemRole,
		&role.IsDefaultRole, &role.MaxUsers, &role.ExpiresAt, &role.ParentRoleID,
		&role.ChildRoleIDs, &role.PermissionIDs, &role.UserIDs,
		&role.CreatedAt, &role.UpdatedAt, &role.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return role, nil
}

func collectRoles(rows pgx.Rows) ([]*models.Role, error) {
	defer rows.Close()
	var roles []*models.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// mapRoleUniqueViolation converts a 23505 into the matching conflict sentinel.
func mapRoleUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "code"):
			return fmt.Errorf("save role: %w", domainErrors.ErrRoleCodeExists)
		case strings.Contains(pgErr.ConstraintName, "name"):
			return fmt.Errorf("save role: %w", domainErrors.ErrRoleNameExists)
		default:
			return fmt.Errorf("save role (constraint %s): %w", pgErr.ConstraintName, domainErrors.ErrAlreadyExists)
		}
	}
	return err
}

// FindByID returns the role or ErrRoleNotFound.
func (r *RoleRepositoryPostgres) FindByID(ctx context.Context, tenantID, id string) (*models.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE tenant_id = $1 AND id = $2`
	role, err := scanRole(r.pool.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role by id: %w", err)
	}
	return role, nil
}

// FindByCode returns the role with the given normalized code.
func (r *RoleRepositoryPostgres) FindByCode(ctx context.Context, tenantID string, code models.RoleCode) (*models.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE tenant_id = $1 AND code = $2 AND deleted_at IS NULL`
	role, err := scanRole(r.pool.QueryRow(ctx, query, tenantID, code.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role by code: %w", err)
	}
	return role, nil
}

// FindByName returns the role with the given name.
func (r *RoleRepositoryPostgres) FindByName(ctx context.Context, tenantID string, name models.RoleName) (*models.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE tenant_id = $1 AND name = $2 AND deleted_at IS NULL`
	role, err := scanRole(r.pool.QueryRow(ctx, query, tenantID, name.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role by name: %w", err)
	}
	return role, nil
}

// FindByIDs returns the subset of ids that exist in the tenant.
func (r *RoleRepositoryPostgres) FindByIDs(ctx context.Context, tenantID string, ids []string) ([]*models.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + roleColumns + ` FROM roles WHERE tenant_id = $1 AND id = ANY($2)`
	rows, err := r.pool.Query(ctx, query, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles by ids: %w", err)
	}
	return collectRoles(rows)
}

// FindByUserID returns the roles whose user membership contains userID.
func (r *RoleRepositoryPostgres) FindByUserID(ctx context.Context, tenantID, userID string) ([]*models.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles
		WHERE tenant_id = $1 AND user_ids @> jsonb_build_array($2::text)`
	rows, err := r.pool.Query(ctx, query, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles by user id: %w", err)
	}
	return collectRoles(rows)
}

// Save upserts the role by id. Unique violations on (tenant_id, code) and
// (tenant_id, name) are mapped to conflict sentinels; this constraint is the
// real guard behind the service layer's check-then-insert.
func (r *RoleRepositoryPostgres) Save(ctx context.Context, role *models.Role) error {
	query := `
		INSERT INTO roles (` + roleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			organization_id = EXCLUDED.organization_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			is_default_role = EXCLUDED.is_default_role,
			max_users = EXCLUDED.max_users,
			expires_at = EXCLUDED.expires_at,
			parent_role_id = EXCLUDED.parent_role_id,
			child_role_ids = EXCLUDED.child_role_ids,
			permission_ids = EXCLUDED.permission_ids,
			user_ids = EXCLUDED.user_ids,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
	`
	_, err := r.pool.Exec(ctx, query,
		role.ID, role.TenantID, role.OrganizationID, role.Name.String(), role.Code.String(),
		role.Description, role.Status, role.Priority.Int(), role.IsSystemRole,
		role.IsDefaultRole, role.MaxUsers, role.ExpiresAt, role.ParentRoleID,
		role.ChildRoleIDs, role.PermissionIDs, role.UserIDs,
		role.CreatedAt, role.UpdatedAt, role.DeletedAt,
	)
	if err != nil {
		return mapRoleUniqueViolation(err)
	}
	return nil
}

// Delete soft-deletes the role.
func (r *RoleRepositoryPostgres) Delete(ctx context.Context, tenantID, id string) error {
	query := `
		UPDATE roles SET status = $3, deleted_at = $4, updated_at = $4
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`
	tag, err := r.pool.Exec(ctx, query, tenantID, id, models.RoleStatusDeleted, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrRoleNotFound
	}
	return nil
}

// HardDelete removes the row.
func (r *RoleRepositoryPostgres) HardDelete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to hard delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrRoleNotFound
	}
	return nil
}

// Restore recovers a soft-deleted role into suspended.
func (r *RoleRepositoryPostgres) Restore(ctx context.Context, tenantID, id string) error {
	query := `
		UPDATE roles SET status = $3, deleted_at = NULL, updated_at = $4
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NOT NULL
	`
	tag, err := r.pool.Exec(ctx, query, tenantID, id, models.RoleStatusSuspended, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to restore role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrRoleNotFound
	}
	return nil
}

// FindByStatus returns all roles in the given status.
func (r *RoleRepositoryPostgres) FindByStatus(ctx context.Context, tenantID string, status models.RoleStatus) ([]*models.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE tenant_id = $1 AND status = $2 ORDER BY priority, code`
	rows, err := r.pool.Query(ctx, query, tenantID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles by status: %w", err)
	}
	return collectRoles(rows)
}

func (r *RoleRepositoryPostgres) FindActive(ctx context.Context, tenantID string) ([]*models.Role, error) {
	return r.FindByStatus(ctx, tenantID, models.RoleStatusActive)
}

func (r *RoleRepositoryPostgres) FindSuspended(ctx context.Context, tenantID string) ([]*models.Role, error) {
	return r.FindByStatus(ctx, tenantID, models.RoleStatusSuspended)
}

func (r *RoleRepositoryPostgres) FindDeleted(ctx context.Context, tenantID string) ([]*models.Role, error) {
	return r.FindByStatus(ctx, tenantID, models.RoleStatusDeleted)
}

func (r *RoleRepositoryPostgres) FindSystem(ctx context.Context, tenantID string) ([]*models.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE tenant_id = $1 AND is_system_role ORDER BY priority, code`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get system roles: %w", err)
	}
	return collectRoles(rows)
}

func (r *RoleRepositoryPostgres) FindDefault(ctx context.Context, tenantID string) ([]*models.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE tenant_id = $1 AND is_default_role ORDER BY priority, code`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get default roles: %w", err)
	}
	return collectRoles(rows)
}

func (r *RoleRepositoryPostgres) FindExpired(ctx context.Context, tenantID string) ([]*models.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles
		WHERE tenant_id = $1 AND expires_at IS NOT NULL AND expires_at < NOW() ORDER BY expires_at`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired roles: %w", err)
	}
	return collectRoles(rows)
}

var roleSortColumns = map[string]string{
	"code":       "code",
	"name":       "name",
	"priority":   "priority",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// FindWithPagination returns one page of roles matching the filter.
func (r *RoleRepositoryPostgres) FindWithPagination(ctx context.Context, tenantID string, page interfaces.Page, filter interfaces.RoleFilter, sort interfaces.Sort) (*interfaces.RolePage, error) {
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
	if filter.IsSystemRole != nil {
		addArg("is_system_role = $%d", *filter.IsSystemRole)
	}
	if filter.IsDefaultRole != nil {
		addArg("is_default_role = $%d", *filter.IsDefaultRole)
	}
	if filter.Search != "" {
		args = append(args, filter.Search)
		idx := len(args)
		where = append(where, fmt.Sprintf("(code ILIKE $%d || '%%' OR name ILIKE '%%' || $%d || '%%')", idx, idx))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM roles WHERE ` + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count roles: %w", err)
	}

	orderBy, ok := roleSortColumns[sort.Field]
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

	query := fmt.Sprintf(`SELECT %s FROM roles WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		roleColumns, whereClause, orderBy, direction, len(args)+1, len(args)+2)
	args = append(args, page.Limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	roles, err := collectRoles(rows)
	if err != nil {
		return nil, err
	}

	return &interfaces.RolePage{
		Roles:      roles,
		TotalCount: total,
		Page:       page.Number,
		Limit:      page.Limit,
	}, nil
}

// CountByStatus counts roles in the given status.
func (r *RoleRepositoryPostgres) CountByStatus(ctx context.Context, tenantID string, status models.RoleStatus) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles WHERE tenant_id = $1 AND status = $2`, tenantID, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count roles by status: %w", err)
	}
	return count, nil
}

// CountByTenant counts all roles in the tenant.
func (r *RoleRepositoryPostgres) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles WHERE tenant_id = $1`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count roles by tenant: %w", err)
	}
	return count, nil
}
