package repository

import (
	"context"

	"storehub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *model.Warehouse) error
	Update(ctx context.Context, warehouse *model.Warehouse) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Warehouse, error)
	List(ctx context.Context, page, limit int) ([]model.Warehouse, int64, error)
}

type warehouseRepository struct {
	db *gorm.DB
}

func NewWarehouseRepository(db *gorm.DB) WarehouseRepository {
	return &warehouseRepository{db: db}
}

func (r *warehouseRepository) Create(ctx context.Context, warehouse *model.Warehouse) error {
	return GetDB(ctx, r.db).Create(warehouse).Error
}

func (r *warehouseRepository) Update(ctx context.Context, warehouse *model.Warehouse) error {
	return GetDB(ctx, r.db).Save(warehouse).Error
}

func (r *warehouseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Warehouse{}).Error
}

func (r *warehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Warehouse, error) {
	var warehouse model.Warehouse
	if err := GetDB(ctx, r.db).First(&warehouse, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func (r *warehouseRepository) List(ctx context.Context, page, limit int) ([]model.Warehouse, int64, error) {
	var warehouses []model.Warehouse
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Warehouse{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("code ASC").Offset(offset).Limit(limit).Find(&warehouses).Error; err != nil {
		return nil, 0, err
	}

	return warehouses, total, nil
}

// InventoryRepository tracks per-warehouse stock and its movement ledger
type InventoryRepository interface {
	FindForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*model.Inventory, error)
	Upsert(ctx context.Context, inv *model.Inventory) error
	ListByWarehouse(ctx context.Context, warehouseID uuid.UUID, page, limit int) ([]model.Inventory, int64, error)
	CreateMovement(ctx context.Context, movement *model.StockMovement) error
	ListMovements(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error)
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

// FindForUpdate loads the inventory row with a row lock so concurrent
// postings against the same product/warehouse pair serialize.
func (r *inventoryRepository) FindForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*model.Inventory, error) {
	var inv model.Inventory
	err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *inventoryRepository) Upsert(ctx context.Context, inv *model.Inventory) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(inv).Error
}

func (r *inventoryRepository) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID, page, limit int) ([]model.Inventory, int64, error) {
	var rows []model.Inventory
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Inventory{}).Where("warehouse_id = ?", warehouseID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Product").Preload("Warehouse").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (r *inventoryRepository) CreateMovement(ctx context.Context, movement *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *inventoryRepository) ListMovements(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	var movements []model.StockMovement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockMovement{}).Where("product_id = ?", productID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&movements).Error; err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}
