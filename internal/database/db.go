package database

import (
	"log"

	"storehub/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Module{},
		&model.Permission{},
		&model.Role{},
		&model.Category{},
		&model.Product{},
		&model.Supplier{},
		&model.Warehouse{},
		&model.Inventory{},
		&model.GoodsReceipt{},
		&model.GoodsReceiptItem{},
		&model.StockMovement{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusLog{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
