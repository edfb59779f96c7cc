package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storehub/internal/model"
	"storehub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type WarehouseRequest struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Address  string `json:"address"`
	IsActive *bool  `json:"is_active"`
}

type WarehouseResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	IsActive bool   `json:"is_active"`
}

type InventoryResponse struct {
	ProductID     string `json:"product_id"`
	ProductSKU    string `json:"product_sku"`
	ProductName   string `json:"product_name"`
	WarehouseID   string `json:"warehouse_id"`
	WarehouseCode string `json:"warehouse_code"`
	Quantity      int    `json:"quantity"`
}

type StockMovementResponse struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id"`
	WarehouseID  string `json:"warehouse_id"`
	MovementType string `json:"movement_type"`
	Quantity     int    `json:"quantity"`
	StockAfter   int    `json:"stock_after"`
	CreatedAt    string `json:"created_at"`
}

// WarehouseService manages stock locations and exposes the per-warehouse
// inventory view plus the movement ledger.
type WarehouseService interface {
	ListWarehouses(ctx context.Context, page, limit int) ([]WarehouseResponse, int64, error)
	CreateWarehouse(ctx context.Context, userID string, req WarehouseRequest) (*WarehouseResponse, error)
	UpdateWarehouse(ctx context.Context, userID, id string, req WarehouseRequest) (*WarehouseResponse, error)
	DeleteWarehouse(ctx context.Context, userID, id string) error
	ListInventory(ctx context.Context, warehouseID string, page, limit int) ([]InventoryResponse, int64, error)
	ListMovements(ctx context.Context, productID string, page, limit int) ([]StockMovementResponse, int64, error)
}

type warehouseService struct {
	warehouseRepo repository.WarehouseRepository
	inventoryRepo repository.InventoryRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
}

func NewWarehouseService(
	warehouseRepo repository.WarehouseRepository,
	inventoryRepo repository.InventoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) WarehouseService {
	return &warehouseService{
		warehouseRepo: warehouseRepo,
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
	}
}

func mapWarehouseToResponse(w *model.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		ID:       w.ID.String(),
		Code:     w.Code,
		Name:     w.Name,
		Address:  w.Address,
		IsActive: w.IsActive,
	}
}

func (s *warehouseService) ListWarehouses(ctx context.Context, page, limit int) ([]WarehouseResponse, int64, error) {
	warehouses, total, err := s.warehouseRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]WarehouseResponse, 0, len(warehouses))
	for i := range warehouses {
		res = append(res, mapWarehouseToResponse(&warehouses[i]))
	}
	return res, total, nil
}

func (s *warehouseService) CreateWarehouse(ctx context.Context, userID string, req WarehouseRequest) (*WarehouseResponse, error) {
	warehouse := model.Warehouse{
		Code:     req.Code,
		Name:     req.Name,
		Address:  req.Address,
		IsActive: true,
	}
	if req.IsActive != nil {
		warehouse.IsActive = *req.IsActive
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.warehouseRepo.Create(txCtx, &warehouse); err != nil {
			return fmt.Errorf("failed to create warehouse: %w", err)
		}

		var uid *uuid.UUID
		if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
			uid = &parsed
		}
		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionCreateWarehouse,
			EntityID:   warehouse.ID.String(),
			EntityName: warehouse.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	resp := mapWarehouseToResponse(&warehouse)
	return &resp, nil
}

func (s *warehouseService) UpdateWarehouse(ctx context.Context, userID, id string, req WarehouseRequest) (*WarehouseResponse, error) {
	whID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	warehouse, err := s.warehouseRepo.FindByID(ctx, whID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	warehouse.Code = req.Code
	warehouse.Name = req.Name
	warehouse.Address = req.Address
	if req.IsActive != nil {
		warehouse.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.warehouseRepo.Update(txCtx, warehouse); err != nil {
			return fmt.Errorf("failed to update warehouse: %w", err)
		}

		var uid *uuid.UUID
		if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
			uid = &parsed
		}
		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionUpdateWarehouse,
			EntityID:   warehouse.ID.String(),
			EntityName: warehouse.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	resp := mapWarehouseToResponse(warehouse)
	return &resp, nil
}

func (s *warehouseService) DeleteWarehouse(ctx context.Context, userID, id string) error {
	whID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	warehouse, err := s.warehouseRepo.FindByID(ctx, whID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.warehouseRepo.Delete(txCtx, whID); err != nil {
			return fmt.Errorf("failed to delete warehouse: %w", err)
		}

		var uid *uuid.UUID
		if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
			uid = &parsed
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionDeleteWarehouse,
			EntityID:   warehouse.ID.String(),
			EntityName: warehouse.Name,
		})
	})
}

func (s *warehouseService) ListInventory(ctx context.Context, warehouseID string, page, limit int) ([]InventoryResponse, int64, error) {
	whID, err := uuid.Parse(warehouseID)
	if err != nil {
		return nil, 0, ErrNotFound
	}

	rows, total, err := s.inventoryRepo.ListByWarehouse(ctx, whID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]InventoryResponse, 0, len(rows))
	for _, inv := range rows {
		entry := InventoryResponse{
			ProductID:   inv.ProductID.String(),
			WarehouseID: inv.WarehouseID.String(),
			Quantity:    inv.Quantity,
		}
		if inv.Product != nil {
			entry.ProductSKU = inv.Product.SKU
			entry.ProductName = inv.Product.Name
		}
		if inv.Warehouse != nil {
			entry.WarehouseCode = inv.Warehouse.Code
		}
		res = append(res, entry)
	}
	return res, total, nil
}

func (s *warehouseService) ListMovements(ctx context.Context, productID string, page, limit int) ([]StockMovementResponse, int64, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, 0, ErrNotFound
	}

	movements, total, err := s.inventoryRepo.ListMovements(ctx, pid, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		res = append(res, StockMovementResponse{
			ID:           m.ID.String(),
			ProductID:    m.ProductID.String(),
			WarehouseID:  m.WarehouseID.String(),
			MovementType: m.MovementType,
			Quantity:     m.Quantity,
			StockAfter:   m.StockAfter,
			CreatedAt:    m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return res, total, nil
}
