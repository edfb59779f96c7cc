package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GoodsReceipt status constants
const (
	ReceiptStatusDraft  = "DRAFT"
	ReceiptStatusPosted = "POSTED"
)

// StockMovement type constants
const (
	MovementTypeIn  = "IN"
	MovementTypeOut = "OUT"
)

// Warehouse represents a physical stock location
type Warehouse struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Address   string         `gorm:"type:text" json:"address"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Inventory tracks on-hand quantity of one product in one warehouse
type Inventory struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_warehouse" json:"product_id"`
	Product     *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_warehouse" json:"warehouse_id"`
	Warehouse   *Warehouse `gorm:"foreignKey:WarehouseID" json:"warehouse,omitempty"`
	Quantity    int       `gorm:"type:int;default:0;not null" json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GoodsReceipt records incoming stock from a supplier into a warehouse.
// A receipt is created as DRAFT and stock only moves when it is posted.
type GoodsReceipt struct {
	ID          uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code        string             `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Status      string             `gorm:"type:varchar(20);default:'DRAFT'" json:"status"`
	SupplierID  uuid.UUID          `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier    *Supplier          `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	WarehouseID uuid.UUID          `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	Warehouse   *Warehouse         `gorm:"foreignKey:WarehouseID" json:"warehouse,omitempty"`
	Note        string             `gorm:"type:text" json:"note"`
	Items       []GoodsReceiptItem `gorm:"foreignKey:ReceiptID" json:"items"`
	CreatedByID *uuid.UUID         `gorm:"type:uuid" json:"created_by_id"`
	PostedAt    *time.Time         `json:"posted_at"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// GoodsReceiptItem represents a line item within a GoodsReceipt
type GoodsReceiptItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReceiptID uuid.UUID       `gorm:"type:uuid;not null;index" json:"receipt_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_cost"`
}

// StockMovement records every inventory change strictly, with the
// resulting on-hand quantity after the change.
type StockMovement struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	WarehouseID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	ReceiptID    *uuid.UUID `gorm:"type:uuid;index" json:"receipt_id"` // Nullable for manual adjustments
	MovementType string     `gorm:"type:varchar(10);not null" json:"movement_type"` // IN, OUT
	Quantity     int        `gorm:"type:int;not null" json:"quantity"`
	StockAfter   int        `gorm:"type:int;not null" json:"stock_after"`
	CreatedAt    time.Time  `json:"created_at"`
}
