package handler

import (
	"net/http"

	"storehub/internal/middleware"
	"storehub/internal/service"
	"storehub/pkg/pagination"
	"storehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/audit-logs", middleware.RequirePermission("audit.read"), h.GetAuditLogs)
}

// GetAuditLogs handles GET /audit-logs
// @Summary      List audit logs
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Limit"
// @Param        action  query     string  false  "Filter by action"
// @Success      200     {object}  response.Response{data=[]service.AuditLogResponse}
// @Router       /audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), params.Page, params.Limit, c.Query("action"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, logs, params.Page, params.Limit, total))
}
