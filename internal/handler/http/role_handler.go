package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/your-org/iam-service/internal/domain/models"
	"github.com/your-org/iam-service/internal/domain/repository/interfaces"
	"github.com/your-org/iam-service/internal/service"
)

// RoleHandler handles HTTP requests for role management.
type RoleHandler struct {
	roleService *service.RoleService
	logger      *zap.Logger
}

// NewRoleHandler creates a RoleHandler.
func NewRoleHandler(roleService *service.RoleService, logger *zap.Logger) *RoleHandler {
	return &RoleHandler{roleService: roleService, logger: logger}
}

func tenantID(c *gin.Context) string { return c.Param("tenant_id") }

// actorID pulls the acting user from the gateway-provided header. The service
// layer rejects mutations without one.
func actorID(c *gin.Context) string { return c.GetHeader("X-Actor-ID") }

func pageFrom(c *gin.Context) interfaces.Page {
	number, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return interfaces.Page{Number: number, Limit: limit}
}

func sortFrom(c *gin.Context) interfaces.Sort {
	return interfaces.Sort{
		Field: c.DefaultQuery("sort", "created_at"),
		Desc:  c.DefaultQuery("order", "asc") == "desc",
	}
}

func optionalQuery(c *gin.Context, name string) *string {
	if value := c.Query(name); value != "" {
		return &value
	}
	return nil
}

// ListRoles handles GET /tenants/:tenant_id/roles.
func (h *RoleHandler) ListRoles(c *gin.Context) {
	filter := interfaces.RoleFilter{
		Status:         optionalQuery(c, "status"),
		OrganizationID: optionalQuery(c, "organization_id"),
		Search:         c.Query("search"),
	}
	page, err := h.roleService.List(c.Request.Context(), tenantID(c), pageFrom(c), filter, sortFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	items := make([]models.RoleResponse, 0, len(page.Roles))
	for _, role := range page.Roles {
		items = append(items, role.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"total":     page.TotalCount,
		"page":      page.Page,
		"page_size": page.Limit,
	})
}

// GetRole handles GET /tenants/:tenant_id/roles/:id.
func (h *RoleHandler) GetRole(c *gin.Context) {
	role, err := h.roleService.Get(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, role.ToResponse())
}

// GetRoleByCode handles GET /tenants/:tenant_id/roles/by-code/:code.
func (h *RoleHandler) GetRoleByCode(c *gin.Context) {
	role, err := h.roleService.GetByCode(c.Request.Context(), tenantID(c), c.Param("code"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, role.ToResponse())
}

// CreateRole handles POST /tenants/:tenant_id/roles.
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req models.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "VALIDATION_ERROR"})
		return
	}
	req.TenantID = tenantID(c)

	role, err := h.roleService.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, role.ToResponse())
}

// UpdateRole handles PATCH /tenants/:tenant_id/roles/:id.
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "VALIDATION_ERROR"})
		return
	}

	role, err := h.roleService.Update(c.Request.Context(), tenantID(c), c.Param("id"), req, actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, role.ToResponse())
}

func (h *RoleHandler) statusAction(c *gin.Context, do func() (*models.Role, error)) {
	role, err := do()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, role.ToResponse())
}

// ActivateRole handles POST /tenants/:tenant_id/roles/:id/activate.
func (h *RoleHandler) ActivateRole(c *gin.Context) {
	h.statusAction(c, func() (*models.Role, error) {
		return h.roleService.Activate(c.Request.Context(), tenantID(c), c.Param("id"), actorID(c))
	})
}

// SuspendRole handles POST /tenants/:tenant_id/roles/:id/suspend.
func (h *RoleHandler) SuspendRole(c *gin.Context) {
	h.statusAction(c, func() (*models.Role, error) {
		return h.roleService.Suspend(c.Request.Context(), tenantID(c), c.Param("id"), actorID(c))
	})
}

// DeleteRole handles DELETE /tenants/:tenant_id/roles/:id.
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	h.statusAction(c, func() (*models.Role, error) {
		return h.roleService.Delete(c.Request.Context(), tenantID(c), c.Param("id"), actorID(c))
	})
}

// RestoreRole handles POST /tenants/:tenant_id/roles/:id/restore.
func (h *RoleHandler) RestoreRole(c *gin.Context) {
	h.statusAction(c, func() (*models.Role, error) {
		return h.roleService.Restore(c.Request.Context(), tenantID(c), c.Param("id"), actorID(c))
	})
}

type batchDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// BatchDeleteRoles handles POST /tenants/:tenant_id/roles/batch-delete.
func (h *RoleHandler) BatchDeleteRoles(c *gin.Context) {
	var req batchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "VALIDATION_ERROR"})
		return
	}

	result, err := h.roleService.BatchDelete(c.Request.Context(), tenantID(c), req.IDs, actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AssignPermission handles PUT /tenants/:tenant_id/roles/:id/permissions/:permission_id.
func (h *RoleHandler) AssignPermission(c *gin.Context) {
	err := h.roleService.AssignPermission(c.Request.Context(), tenantID(c), c.Param("id"), c.Param("permission_id"), actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "permission assigned"})
}

// RemovePermission handles DELETE /tenants/:tenant_id/roles/:id/permissions/:permission_id.
func (h *RoleHandler) RemovePermission(c *gin.Context) {
	err := h.roleService.RemovePermission(c.Request.Context(), tenantID(c), c.Param("id"), c.Param("permission_id"), actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "permission removed"})
}

// AssignUser handles PUT /tenants/:tenant_id/roles/:id/users/:user_id.
func (h *RoleHandler) AssignUser(c *gin.Context) {
	err := h.roleService.AssignUser(c.Request.Context(), tenantID(c), c.Param("id"), c.Param("user_id"), actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user assigned"})
}

// RemoveUser handles DELETE /tenants/:tenant_id/roles/:id/users/:user_id.
func (h *RoleHandler) RemoveUser(c *gin.Context) {
	err := h.roleService.RemoveUser(c.Request.Context(), tenantID(c), c.Param("id"), c.Param("user_id"), actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user removed"})
}

type setInheritanceRequest struct {
	ParentRoleID string `json:"parent_role_id" binding:"required"`
}

// SetInheritance handles PUT /tenants/:tenant_id/roles/:id/parent.
func (h *RoleHandler) SetInheritance(c *gin.Context) {
	var req setInheritanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "VALIDATION_ERROR"})
		return
	}

	err := h.roleService.SetInheritance(c.Request.Context(), tenantID(c), c.Param("id"), req.ParentRoleID, actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "inheritance set"})
}

// RemoveInheritance handles DELETE /tenants/:tenant_id/roles/:id/parent.
func (h *RoleHandler) RemoveInheritance(c *gin.Context) {
	err := h.roleService.RemoveInheritance(c.Request.Context(), tenantID(c), c.Param("id"), actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "inheritance removed"})
}
