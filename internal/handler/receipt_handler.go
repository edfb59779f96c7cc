package handler

import (
	"net/http"

	"storehub/internal/middleware"
	"storehub/internal/service"
	"storehub/pkg/pagination"
	"storehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReceiptHandler struct {
	receiptService service.ReceiptService
}

func NewReceiptHandler(receiptService service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *ReceiptHandler) RegisterRoutes(router *gin.RouterGroup) {
	receipts := router.Group("/goods-receipts")
	{
		receipts.GET("", middleware.RequirePermission("receipts.read"), h.ListReceipts)
		receipts.GET("/:id", middleware.RequirePermission("receipts.read"), h.GetReceipt)
		receipts.POST("", middleware.RequirePermission("receipts.write"), h.CreateReceipt)
		receipts.POST("/:id/post", middleware.RequirePermission("receipts.post"), h.PostReceipt)
	}
}

// ListReceipts handles GET /goods-receipts
// @Summary      List goods receipts
// @Tags         goods-receipts
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status (DRAFT, POSTED)"
// @Success      200     {object}  response.Response{data=[]service.ReceiptResponse}
// @Router       /goods-receipts [get]
func (h *ReceiptHandler) ListReceipts(c *gin.Context) {
	params := pagination.Parse(c)

	receipts, total, err := h.receiptService.ListReceipts(c.Request.Context(), params.Page, params.Limit, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, receipts, params.Page, params.Limit, total))
}

// GetReceipt handles GET /goods-receipts/:id
// @Summary      Get goods receipt by ID
// @Tags         goods-receipts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Receipt ID"
// @Success      200  {object}  response.Response{data=service.ReceiptResponse}
// @Failure      404  {object}  response.Response
// @Router       /goods-receipts/{id} [get]
func (h *ReceiptHandler) GetReceipt(c *gin.Context) {
	receipt, err := h.receiptService.GetReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, receipt))
}

// CreateReceipt handles POST /goods-receipts
// @Summary      Create a draft goods receipt
// @Tags         goods-receipts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateReceiptRequest  true  "Create Receipt Payload"
// @Success      201      {object}  response.Response{data=service.ReceiptResponse}
// @Failure      400      {object}  response.Response
// @Router       /goods-receipts [post]
func (h *ReceiptHandler) CreateReceipt(c *gin.Context) {
	var req service.CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	receipt, err := h.receiptService.CreateReceipt(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, receipt))
}

// PostReceipt handles POST /goods-receipts/:id/post
// @Summary      Post a draft receipt
// @Description  Moves the receipt DRAFT -> POSTED and applies stock quantities. Returns 409 if the receipt was already posted.
// @Tags         goods-receipts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Receipt ID"
// @Success      200  {object}  response.Response{data=service.ReceiptResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /goods-receipts/{id}/post [post]
func (h *ReceiptHandler) PostReceipt(c *gin.Context) {
	receipt, err := h.receiptService.PostReceipt(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, receipt))
}
