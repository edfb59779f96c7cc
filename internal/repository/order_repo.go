package repository

import (
	"context"

	"storehub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// UpdateStatusFrom is the compare-and-swap commit of a workflow
	// transition: the status column changes only if the persisted value
	// still equals expected. A zero row count means another transition
	// won the race and the caller must surface a conflict.
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, expected, target string) (int64, error)
	CreateStatusLog(ctx context.Context, entry *model.OrderStatusLog) error
	ListStatusLogs(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusLog, error)
	List(ctx context.Context, page, limit int, status string) ([]model.Order, int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, expected, target string) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", target)
	return res.RowsAffected, res.Error
}

func (r *orderRepository) CreateStatusLog(ctx context.Context, entry *model.OrderStatusLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *orderRepository) ListStatusLogs(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusLog, error) {
	var logs []model.OrderStatusLog
	if err := GetDB(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *orderRepository) List(ctx context.Context, page, limit int, status string) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Order{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
