package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	domainService "github.com/your-org/iam-service/internal/domain/service"
	"github.com/your-org/iam-service/internal/handler/http/middleware"
	"github.com/your-org/iam-service/internal/service"
)

// SetupRouter wires handlers, middleware and the operational endpoints.
func SetupRouter(
	roleService *service.RoleService,
	permissionService *service.PermissionService,
	resolver *domainService.EntitlementResolver,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())

	roleHandler := NewRoleHandler(roleService, logger)
	permissionHandler := NewPermissionHandler(permissionService, logger)
	entitlementHandler := NewEntitlementHandler(resolver, logger)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/readiness", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		tenant := api.Group("/tenants/:tenant_id")

		roles := tenant.Group("/roles")
		{
			roles.GET("", roleHandler.ListRoles)
			roles.POST("", roleHandler.CreateRole)
			roles.POST("/batch-delete", roleHandler.BatchDeleteRoles)
			roles.GET("/by-code/:code", roleHandler.GetRoleByCode)
			roles.GET("/:id", roleHandler.GetRole)
			roles.PATCH("/:id", roleHandler.UpdateRole)
			roles.DELETE("/:id", roleHandler.DeleteRole)
			roles.POST("/:id/activate", roleHandler.ActivateRole)
			roles.POST("/:id/suspend", roleHandler.SuspendRole)
			roles.POST("/:id/restore", roleHandler.RestoreRole)
			roles.PUT("/:id/permissions/:permission_id", roleHandler.AssignPermission)
			roles.DELETE("/:id/permissions/:permission_id", roleHandler.RemovePermission)
			roles.PUT("/:id/users/:user_id", roleHandler.AssignUser)
			roles.DELETE("/:id/users/:user_id", roleHandler.RemoveUser)
			roles.PUT("/:id/parent", roleHandler.SetInheritance)
			roles.DELETE("/:id/parent", roleHandler.RemoveInheritance)
		}

		permissions := tenant.Group("/permissions")
		{
			permissions.GET("", permissionHandler.ListPermissions)
			permissions.POST("", permissionHandler.CreatePermission)
			permissions.POST("/batch-delete", permissionHandler.BatchDeletePermissions)
			permissions.GET("/by-code/:code", permissionHandler.GetPermissionByCode)
			permissions.GET("/:id", permissionHandler.GetPermission)
			permissions.PATCH("/:id", permissionHandler.UpdatePermission)
			permissions.DELETE("/:id", permissionHandler.DeletePermission)
			permissions.POST("/:id/activate", permissionHandler.ActivatePermission)
			permissions.POST("/:id/deactivate", permissionHandler.DeactivatePermission)
			permissions.POST("/:id/suspend", permissionHandler.SuspendPermission)
			permissions.POST("/:id/restore", permissionHandler.RestorePermission)
		}

		tenant.GET("/users/:user_id/entitlements", entitlementHandler.GetUserEntitlements)
		tenant.GET("/users/:user_id/entitlements/:code", entitlementHandler.CheckEntitlement)
		tenant.POST("/entitlements/resolve", entitlementHandler.ResolveEntitlements)
	}

	return router
}
