package handler

import (
	"net/http"

	"storehub/internal/middleware"
	"storehub/internal/model"
	"storehub/internal/service"
	"storehub/pkg/pagination"
	"storehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// RegisterRoutes binds order endpoints. Checkout creation is gated on
// orders.create; each workflow action carries its own permission and the
// service re-checks it, so the middleware here is the fast path and the
// service check is the authoritative one.
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.GET("", middleware.RequirePermission("orders.read"), h.ListOrders)
		orders.GET("/:id", middleware.RequirePermission("orders.read"), h.GetOrder)
		orders.GET("/:id/status-logs", middleware.RequirePermission("orders.read"), h.GetStatusLogs)
		orders.POST("", middleware.RequirePermission("orders.create"), h.CreateOrder)

		// Workflow actions: permission enforced inside ApplyTransition
		orders.POST("/:id/confirm", middleware.RequireAuth(), h.transition(model.ActionConfirm))
		orders.POST("/:id/export", middleware.RequireAuth(), h.transition(model.ActionExport))
		orders.POST("/:id/deliver", middleware.RequireAuth(), h.transition(model.ActionDeliver))
		orders.POST("/:id/complete", middleware.RequireAuth(), h.transition(model.ActionComplete))
	}
}

// CreateOrder handles POST /orders
// @Summary      Create an order
// @Description  Creates a PENDING order, capturing unit prices from the catalog at this moment
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateOrderRequest  true  "Checkout Payload"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders handles GET /orders
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Limit"
// @Param        status  query     string  false  "Filter by status"
// @Success      200     {object}  response.Response{data=[]service.OrderResponse}
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := pagination.Parse(c)
	status := c.Query("status")

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), params.Page, params.Limit, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, orders, params.Page, params.Limit, total))
}

// GetOrder handles GET /orders/:id
// @Summary      Get order detail
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// GetStatusLogs handles GET /orders/:id/status-logs
// @Summary      Get order transition history
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]service.StatusLogResponse}
// @Router       /orders/{id}/status-logs [get]
func (h *OrderHandler) GetStatusLogs(c *gin.Context) {
	logs, err := h.orderService.GetStatusLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}

// transition builds the handler for one workflow action endpoint.
// The request body selects the direction; an empty body means submit.
// @Summary      Apply an order workflow action
// @Description  Moves the order along the confirm/export/deliver/complete workflow. Direction "cancel" rolls back to the action's starting status. A 409 means the order status changed concurrently; refetch before retrying.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true   "Order ID"
// @Param        payload  body      service.TransitionRequest  false  "Direction"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /orders/{id}/confirm [post]
func (h *OrderHandler) transition(action model.OrderAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.TransitionRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
				return
			}
		}

		actorID := c.GetString("userID")
		order, err := h.orderService.ApplyTransition(
			c.Request.Context(),
			c.Param("id"),
			action,
			model.TransitionDirection(req.Direction),
			actorID,
		)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
	}
}
