package service

import (
	"context"
	"time"

	"storehub/internal/model"

	"gorm.io/gorm"
)

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type ProductRanking struct {
	ProductID     string  `json:"product_id"`
	ProductName   string  `json:"product_name"`
	ProductSKU    string  `json:"product_sku"`
	TotalQuantity int64   `json:"total_quantity"`
	TotalValue    float64 `json:"total_value"`
}

type DashboardResponse struct {
	TimeRangeStartDate time.Time        `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time        `json:"time_range_end_date"`
	OrdersByStatus     []StatusCount    `json:"orders_by_status"`
	CompletedRevenue   float64          `json:"completed_revenue"`
	TotalStockUnits    int64            `json:"total_stock_units"`
	TopSellingProducts []ProductRanking `json:"top_selling_products"`
}

type StatisticsService interface {
	GetDashboard(ctx context.Context, startDate, endDate time.Time) (DashboardResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetDashboard aggregates order and inventory metrics over a time bracket
func (s *statisticsService) GetDashboard(ctx context.Context, startDate, endDate time.Time) (DashboardResponse, error) {
	var response DashboardResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	// Order counts per status
	var counts []StatusCount
	s.db.WithContext(ctx).Table("orders").
		Select("status, COUNT(*) as count").
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Group("status").
		Scan(&counts)
	response.OrdersByStatus = counts

	// Revenue of completed orders (captured line-item prices, not catalog)
	var revenue struct {
		Value float64
	}
	s.db.WithContext(ctx).Table("order_items").
		Select("COALESCE(SUM(order_items.quantity * order_items.unit_price), 0) as value").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status = ? AND orders.created_at >= ? AND orders.created_at <= ?", model.OrderStatusCompleted, startDate, endDate).
		Scan(&revenue)
	response.CompletedRevenue = revenue.Value

	// Total on-hand stock across warehouses
	var stock struct {
		Units int64
	}
	s.db.WithContext(ctx).Table("inventories").
		Select("COALESCE(SUM(quantity), 0) as units").
		Scan(&stock)
	response.TotalStockUnits = stock.Units

	// Top selling products within the bracket
	var top []ProductRanking
	s.db.WithContext(ctx).Table("order_items").
		Select("products.id as product_id, products.name as product_name, products.sku as product_sku, SUM(order_items.quantity) as total_quantity, SUM(order_items.quantity * order_items.unit_price) as total_value").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status = ? AND orders.created_at >= ? AND orders.created_at <= ?", model.OrderStatusCompleted, startDate, endDate).
		Group("products.id, products.name, products.sku").
		Order("total_quantity DESC").
		Limit(5).
		Scan(&top)
	response.TopSellingProducts = top

	return response, nil
}
