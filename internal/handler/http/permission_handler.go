package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/your-org/iam-service/internal/domain/models"
	"github.com/your-org/iam-service/internal/domain/repository/interfaces"
	"github.com/your-org/iam-service/internal/service"
)

// PermissionHandler handles HTTP requests for permission management.
type PermissionHandler struct {
	permissionService *service.PermissionService
	logger            *zap.Logger
}

// NewPermissionHandler creates a PermissionHandler.
func NewPermissionHandler(permissionService *service.PermissionService, logger *zap.Logger) *PermissionHandler {
	return &PermissionHandler{permissionService: permissionService, logger: logger}
}

// ListPermissions handles GET /tenants/:tenant_id/permissions.
func (h *PermissionHandler) ListPermissions(c *gin.Context) {
	filter := interfaces.PermissionFilter{
		Status:         optionalQuery(c, "status"),
		OrganizationID: optionalQuery(c, "organization_id"),
		Type:           optionalQuery(c, "type"),
		Action:         optionalQuery(c, "action"),
		Module:         optionalQuery(c, "module"),
		Search:         c.Query("search"),
	}
	page, err := h.permissionService.List(c.Request.Context(), tenantID(c), pageFrom(c), filter, sortFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	items := make([]models.PermissionResponse, 0, len(page.Permissions))
	for _, permission := range page.Permissions {
		items = append(items, permission.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"total":     page.TotalCount,
		"page":      page.Page,
		"page_size": page.Limit,
	})
}

// GetPermission handles GET /tenants/:tenant_id/permissions/:id.
func (h *PermissionHandler) GetPermission(c *gin.Context) {
	permission, err := h.permissionService.Get(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, permission.ToResponse())
}

// GetPermissionByCode handles GET /tenants/:tenant_id/permissions/by-code/:code.
func (h *PermissionHandler) GetPermissionByCode(c *gin.Context) {
	permission, err := h.permissionService.GetByCode(c.Request.Context(), tenantID(c), c.Param("code"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, permission.ToResponse())
}

// CreatePermission handles POST /tenants/:tenant_id/permissions.
func (h *PermissionHandler) CreatePermission(c *gin.Context) {
	var req models.CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "VALIDATION_ERROR"})
		return
	}
	req.TenantID = tenantID(c)

	permission, err := h.permissionService.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, permission.ToResponse())
}

// UpdatePermission handles PATCH /tenants/:tenant_id/permissions/:id.
func (h *PermissionHandler) UpdatePermission(c *gin.Context) {
	var req models.UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "VALIDATION_ERROR"})
		return
	}

	permission, err := h.permissionService.Update(c.Request.Context(), tenantID(c), c.Param("id"), req, actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, permission.ToResponse())
}

func (h *PermissionHandler) statusAction(c *gin.Context, do func() (*models.Permission, error)) {
	permission, err := do()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, permission.ToResponse())
}

// ActivatePermission handles POST /tenants/:tenant_id/permissions/:id/activate.
func (h *PermissionHandler) ActivatePermission(c *gin.Context) {
	h.statusAction(c, func() (*models.Permission, error) {
		return h.permissionService.Activate(c.Request.Context(), tenantID(c), c.Param("id"), actorID(c))
	})
}

// DeactivatePermission handles POST /tenants/:tenant_id/permissions/:id/deactivate.
func (h *PermissionHandler) DeactivatePermission(c *gin.Context) {
	h.statusAction(c, func() (*models.Permission, error) {
		return h.permissionService.Deactivate(c.Request.Context(), tenantID(c), c.Param("id"), actorID(c))
	})
}

// SuspendPermission handles POST /tenants/:tenant_id/permissions/:id/suspend.
func (h *PermissionHandler) SuspendPermission(c *gin.Context) {
	h.statusAction(c, func() (*models.Permission, error) {
		return h.permissionService.Suspend(c.Request.Context(), tenantID(c), c.Param("id"), actorID(c))
	})
}

// DeletePermission handles DELETE /tenants/:tenant_id/permissions/:id.
func (h *PermissionHandler) DeletePermission(c *gin.Context) {
	h.statusAction(c, func() (*models.Permission, error) {
		return h.permissionService.Delete(c.Request.Context(), tenantID(c), c.Param("id"), actorID(c))
	})
}

// RestorePermission handles POST /tenants/:tenant_id/permissions/:id/restore.
func (h *PermissionHandler) RestorePermission(c *gin.Context) {
	h.statusAction(c, func() (*models.Permission, error) {
		return h.permissionService.Restore(c.Request.Context(), tenantID(c), c.Param("id"), actorID(c))
	})
}

// BatchDeletePermissions handles POST /tenants/:tenant_id/permissions/batch-delete.
func (h *PermissionHandler) BatchDeletePermissions(c *gin.Context) {
	var req batchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "VALIDATION_ERROR"})
		return
	}

	result, err := h.permissionService.BatchDelete(c.Request.Context(), tenantID(c), req.IDs, actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
