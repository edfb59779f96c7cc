package handler

import (
	"net/http"

	"storehub/internal/middleware"
	"storehub/internal/service"
	"storehub/pkg/pagination"
	"storehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type WarehouseHandler struct {
	warehouseService service.WarehouseService
}

func NewWarehouseHandler(warehouseService service.WarehouseService) *WarehouseHandler {
	return &WarehouseHandler{warehouseService: warehouseService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *WarehouseHandler) RegisterRoutes(router *gin.RouterGroup) {
	warehouses := router.Group("/warehouses")
	{
		warehouses.GET("", middleware.RequirePermission("warehouses.read"), h.ListWarehouses)
		warehouses.GET("/:id/inventory", middleware.RequirePermission("warehouses.read"), h.ListInventory)
		warehouses.POST("", middleware.RequirePermission("warehouses.write"), h.CreateWarehouse)
		warehouses.PUT("/:id", middleware.RequirePermission("warehouses.write"), h.UpdateWarehouse)
		warehouses.DELETE("/:id", middleware.RequirePermission("warehouses.delete"), h.DeleteWarehouse)
	}

	router.GET("/products/:id/movements", middleware.RequirePermission("warehouses.read"), h.ListMovements)
}

// ListWarehouses handles GET /warehouses
// @Summary      List warehouses
// @Tags         warehouses
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.WarehouseResponse}
// @Router       /warehouses [get]
func (h *WarehouseHandler) ListWarehouses(c *gin.Context) {
	params := pagination.Parse(c)

	warehouses, total, err := h.warehouseService.ListWarehouses(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, warehouses, params.Page, params.Limit, total))
}

// CreateWarehouse handles POST /warehouses
// @Summary      Create a warehouse
// @Tags         warehouses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.WarehouseRequest  true  "Warehouse Payload"
// @Success      201      {object}  response.Response{data=service.WarehouseResponse}
// @Failure      400      {object}  response.Response
// @Router       /warehouses [post]
func (h *WarehouseHandler) CreateWarehouse(c *gin.Context) {
	var req service.WarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	warehouse, err := h.warehouseService.CreateWarehouse(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, warehouse))
}

// UpdateWarehouse handles PUT /warehouses/:id
// @Summary      Update a warehouse
// @Tags         warehouses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Warehouse ID"
// @Param        payload  body      service.WarehouseRequest  true  "Warehouse Payload"
// @Success      200      {object}  response.Response{data=service.WarehouseResponse}
// @Failure      404      {object}  response.Response
// @Router       /warehouses/{id} [put]
func (h *WarehouseHandler) UpdateWarehouse(c *gin.Context) {
	var req service.WarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	warehouse, err := h.warehouseService.UpdateWarehouse(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, warehouse))
}

// DeleteWarehouse handles DELETE /warehouses/:id
// @Summary      Delete a warehouse
// @Tags         warehouses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Warehouse ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /warehouses/{id} [delete]
func (h *WarehouseHandler) DeleteWarehouse(c *gin.Context) {
	if err := h.warehouseService.DeleteWarehouse(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "warehouse deleted"}))
}

// ListInventory handles GET /warehouses/:id/inventory
// @Summary      List stock levels in a warehouse
// @Tags         warehouses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Warehouse ID"
// @Success      200  {object}  response.Response{data=[]service.InventoryResponse}
// @Router       /warehouses/{id}/inventory [get]
func (h *WarehouseHandler) ListInventory(c *gin.Context) {
	params := pagination.Parse(c)

	inventory, total, err := h.warehouseService.ListInventory(c.Request.Context(), c.Param("id"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, inventory, params.Page, params.Limit, total))
}

// ListMovements handles GET /products/:id/movements
// @Summary      List stock movements for a product
// @Tags         warehouses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=[]service.StockMovementResponse}
// @Router       /products/{id}/movements [get]
func (h *WarehouseHandler) ListMovements(c *gin.Context) {
	params := pagination.Parse(c)

	movements, total, err := h.warehouseService.ListMovements(c.Request.Context(), c.Param("id"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, movements, params.Page, params.Limit, total))
}
