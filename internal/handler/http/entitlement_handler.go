package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainService "github.com/your-org/iam-service/internal/domain/service"
)

// EntitlementHandler exposes effective-permission resolution.
type EntitlementHandler struct {
	resolver *domainService.EntitlementResolver
	logger   *zap.Logger
}

// NewEntitlementHandler creates an EntitlementHandler.
func NewEntitlementHandler(resolver *domainService.EntitlementResolver, logger *zap.Logger) *EntitlementHandler {
	return &EntitlementHandler{resolver: resolver, logger: logger}
}

// GetUserEntitlements handles GET /tenants/:tenant_id/users/:user_id/entitlements.
func (h *EntitlementHandler) GetUserEntitlements(c *gin.Context) {
	set, err := h.resolver.ResolveForUser(c.Request.Context(), tenantID(c), c.Param("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

type resolveRequest struct {
	RoleIDs []string `json:"role_ids" binding:"required,min=1"`
}

// ResolveEntitlements handles POST /tenants/:tenant_id/entitlements/resolve.
func (h *EntitlementHandler) ResolveEntitlements(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "VALIDATION_ERROR"})
		return
	}

	set, err := h.resolver.Resolve(c.Request.Context(), tenantID(c), req.RoleIDs)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

// CheckEntitlement handles GET /tenants/:tenant_id/users/:user_id/entitlements/:code.
func (h *EntitlementHandler) CheckEntitlement(c *gin.Context) {
	set, err := h.resolver.ResolveForUser(c.Request.Context(), tenantID(c), c.Param("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    c.Param("code"),
		"allowed": set.Has(c.Param("code")),
	})
}
