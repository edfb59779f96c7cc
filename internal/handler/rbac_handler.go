package handler

import (
	"net/http"

	"storehub/internal/middleware"
	"storehub/internal/service"
	"storehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type RBACHandler struct {
	rbacService service.RBACService
}

func NewRBACHandler(rbacService service.RBACService) *RBACHandler {
	return &RBACHandler{rbacService: rbacService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *RBACHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/roles")
	{
		roles.GET("", middleware.RequirePermission("roles.read"), h.ListRoles)
		roles.GET("/:id", middleware.RequirePermission("roles.read"), h.GetRole)
		roles.POST("", middleware.RequirePermission("roles.write"), h.CreateRole)
		roles.PUT("/:id", middleware.RequirePermission("roles.write"), h.UpdateRole)
		roles.PUT("/:id/permissions", middleware.RequirePermission("roles.write"), h.UpdateRolePermissions)
		roles.DELETE("/:id", middleware.RequirePermission("roles.delete"), h.DeleteRole)
	}

	router.GET("/permissions", middleware.RequirePermission("roles.read"), h.ListPermissions)

	// Module administration shares the roles permission family so that
	// deactivating a module can never strand the permissions needed to undo it.
	modules := router.Group("/modules")
	{
		modules.GET("", middleware.RequirePermission("roles.read"), h.ListModules)
		modules.POST("", middleware.RequirePermission("roles.write"), h.CreateModule)
		modules.PUT("/:id", middleware.RequirePermission("roles.write"), h.UpdateModule)
		modules.DELETE("/:id", middleware.RequirePermission("roles.delete"), h.DeleteModule)
	}
}

// ListRoles handles GET /roles
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RoleResponse}
// @Router       /roles [get]
func (h *RBACHandler) ListRoles(c *gin.Context) {
	roles, err := h.rbacService.ListRoles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// GetRole handles GET /roles/:id
// @Summary      Get role by ID
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  response.Response{data=service.RoleResponse}
// @Failure      404  {object}  response.Response
// @Router       /roles/{id} [get]
func (h *RBACHandler) GetRole(c *gin.Context) {
	role, err := h.rbacService.GetRole(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// CreateRole handles POST /roles
// @Summary      Create a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRoleRequest  true  "Create Role Payload"
// @Success      201      {object}  response.Response{data=service.RoleResponse}
// @Failure      400      {object}  response.Response
// @Router       /roles [post]
func (h *RBACHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.rbacService.CreateRole(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, role))
}

// UpdateRole handles PUT /roles/:id
// @Summary      Update a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Role ID"
// @Param        payload  body      service.UpdateRoleRequest  true  "Update Role Payload"
// @Success      200      {object}  response.Response{data=service.RoleResponse}
// @Failure      404      {object}  response.Response
// @Router       /roles/{id} [put]
func (h *RBACHandler) UpdateRole(c *gin.Context) {
	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.rbacService.UpdateRole(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// UpdateRolePermissions handles PUT /roles/:id/permissions replacing the grant set
// @Summary      Replace role permissions
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                                true  "Role ID"
// @Param        payload  body      service.UpdateRolePermissionsRequest  true  "Permission IDs"
// @Success      200      {object}  response.Response{data=service.RoleResponse}
// @Failure      404      {object}  response.Response
// @Router       /roles/{id}/permissions [put]
func (h *RBACHandler) UpdateRolePermissions(c *gin.Context) {
	var req service.UpdateRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.rbacService.UpdateRolePermissions(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// DeleteRole handles DELETE /roles/:id
// @Summary      Delete a role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /roles/{id} [delete]
func (h *RBACHandler) DeleteRole(c *gin.Context) {
	if err := h.rbacService.DeleteRole(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "role deleted"}))
}

// ListPermissions handles GET /permissions
// @Summary      List permissions
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.PermissionResponse}
// @Router       /permissions [get]
func (h *RBACHandler) ListPermissions(c *gin.Context) {
	permissions, err := h.rbacService.ListPermissions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, permissions))
}

// ListModules handles GET /modules
// @Summary      List modules
// @Tags         modules
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.ModuleResponse}
// @Router       /modules [get]
func (h *RBACHandler) ListModules(c *gin.Context) {
	modules, err := h.rbacService.ListModules(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, modules))
}

// CreateModule handles POST /modules
// @Summary      Create a module
// @Tags         modules
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateModuleRequest  true  "Create Module Payload"
// @Success      201      {object}  response.Response{data=service.ModuleResponse}
// @Failure      400      {object}  response.Response
// @Router       /modules [post]
func (h *RBACHandler) CreateModule(c *gin.Context) {
	var req service.CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	module, err := h.rbacService.CreateModule(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, module))
}

// UpdateModule handles PUT /modules/:id
// @Summary      Update a module
// @Description  Updates module fields; deactivating a module suspends all its permissions
// @Tags         modules
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Module ID"
// @Param        payload  body      service.UpdateModuleRequest  true  "Update Module Payload"
// @Success      200      {object}  response.Response{data=service.ModuleResponse}
// @Failure      404      {object}  response.Response
// @Router       /modules/{id} [put]
func (h *RBACHandler) UpdateModule(c *gin.Context) {
	var req service.UpdateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	module, err := h.rbacService.UpdateModule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, module))
}

// DeleteModule handles DELETE /modules/:id
// @Summary      Delete a module
// @Tags         modules
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Module ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /modules/{id} [delete]
func (h *RBACHandler) DeleteModule(c *gin.Context) {
	if err := h.rbacService.DeleteModule(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "module deleted"}))
}
