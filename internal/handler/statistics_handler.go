package handler

import (
	"net/http"
	"time"

	"storehub/internal/middleware"
	"storehub/internal/service"
	"storehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/statistics/dashboard", middleware.RequirePermission("statistics.read"), h.GetDashboard)
}

// GetDashboard handles GET /statistics/dashboard
// @Summary      Dashboard statistics
// @Description  Aggregates order counts by status, completed revenue, stock totals and top selling products for a date range. Defaults to the last 30 days.
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Param        start_date  query     string  false  "Start date (YYYY-MM-DD)"
// @Param        end_date    query     string  false  "End date (YYYY-MM-DD)"
// @Success      200         {object}  response.Response{data=service.DashboardResponse}
// @Failure      400         {object}  response.Response
// @Router       /statistics/dashboard [get]
func (h *StatisticsHandler) GetDashboard(c *gin.Context) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -30)

	if v := c.Query("start_date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD"))
			return
		}
		startDate = parsed
	}
	if v := c.Query("end_date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD"))
			return
		}
		// Include the whole end day
		endDate = parsed.AddDate(0, 0, 1)
	}

	dashboard, err := h.statisticsService.GetDashboard(c.Request.Context(), startDate, endDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, dashboard))
}
