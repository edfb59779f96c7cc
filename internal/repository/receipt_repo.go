package repository

import (
	"context"

	"storehub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReceiptRepository interface {
	Create(ctx context.Context, receipt *model.GoodsReceipt) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.GoodsReceipt, error)
	// UpdateStatusFrom flips the receipt status only when the persisted
	// status still matches expected; returns the number of rows updated.
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, expected, target string) (int64, error)
	MarkPosted(ctx context.Context, receipt *model.GoodsReceipt) error
	List(ctx context.Context, page, limit int, status string) ([]model.GoodsReceipt, int64, error)
}

type receiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) Create(ctx context.Context, receipt *model.GoodsReceipt) error {
	return GetDB(ctx, r.db).Create(receipt).Error
}

func (r *receiptRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.GoodsReceipt, error) {
	var receipt model.GoodsReceipt
	err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Product").
		Preload("Supplier").
		Preload("Warehouse").
		First(&receipt, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, expected, target string) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.GoodsReceipt{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", target)
	return res.RowsAffected, res.Error
}

func (r *receiptRepository) MarkPosted(ctx context.Context, receipt *model.GoodsReceipt) error {
	return GetDB(ctx, r.db).Model(receipt).Updates(map[string]interface{}{
		"status":    model.ReceiptStatusPosted,
		"posted_at": receipt.PostedAt,
	}).Error
}

func (r *receiptRepository) List(ctx context.Context, page, limit int, status string) ([]model.GoodsReceipt, int64, error) {
	var receipts []model.GoodsReceipt
	var total int64

	db := GetDB(ctx, r.db).Model(&model.GoodsReceipt{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Items").
		Preload("Supplier").
		Preload("Warehouse").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&receipts).Error; err != nil {
		return nil, 0, err
	}

	return receipts, total, nil
}
