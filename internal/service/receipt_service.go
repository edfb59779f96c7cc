package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storehub/internal/model"
	"storehub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type ReceiptItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	UnitCost  string `json:"unit_cost" binding:"required"`
}

type CreateReceiptRequest struct {
	Code        string               `json:"code" binding:"required"`
	SupplierID  string               `json:"supplier_id" binding:"required"`
	WarehouseID string               `json:"warehouse_id" binding:"required"`
	Note        string               `json:"note"`
	Items       []ReceiptItemRequest `json:"items" binding:"required,min=1,dive"`
}

type ReceiptItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitCost  string `json:"unit_cost"`
}

type ReceiptResponse struct {
	ID          string                `json:"id"`
	Code        string                `json:"code"`
	Status      string                `json:"status"`
	SupplierID  string                `json:"supplier_id"`
	WarehouseID string                `json:"warehouse_id"`
	Note        string                `json:"note"`
	Items       []ReceiptItemResponse `json:"items"`
	PostedAt    string                `json:"posted_at,omitempty"`
	CreatedAt   string                `json:"created_at"`
}

// ReceiptService manages goods receipts. A receipt is created as a DRAFT
// and posting it is what actually moves stock: inventory rows are
// incremented and a movement ledger entry is written per line item, all in
// one transaction. Posting uses the same conditional status update as the
// order workflow, so a receipt can be posted exactly once.
type ReceiptService interface {
	CreateReceipt(ctx context.Context, userID string, req CreateReceiptRequest) (*ReceiptResponse, error)
	GetReceipt(ctx context.Context, id string) (*ReceiptResponse, error)
	ListReceipts(ctx context.Context, page, limit int, status string) ([]ReceiptResponse, int64, error)
	PostReceipt(ctx context.Context, userID, id string) (*ReceiptResponse, error)
}

type receiptService struct {
	receiptRepo   repository.ReceiptRepository
	productRepo   repository.ProductRepository
	supplierRepo  repository.SupplierRepository
	warehouseRepo repository.WarehouseRepository
	inventoryRepo repository.InventoryRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	hub           EventBroadcaster
}

func NewReceiptService(
	receiptRepo repository.ReceiptRepository,
	productRepo repository.ProductRepository,
	supplierRepo repository.SupplierRepository,
	warehouseRepo repository.WarehouseRepository,
	inventoryRepo repository.InventoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub EventBroadcaster,
) ReceiptService {
	return &receiptService{
		receiptRepo:   receiptRepo,
		productRepo:   productRepo,
		supplierRepo:  supplierRepo,
		warehouseRepo: warehouseRepo,
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		hub:           hub,
	}
}

func mapReceiptToResponse(r *model.GoodsReceipt) ReceiptResponse {
	items := make([]ReceiptItemResponse, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, ReceiptItemResponse{
			ID:        item.ID.String(),
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost.StringFixed(2),
		})
	}

	postedAt := ""
	if r.PostedAt != nil {
		postedAt = r.PostedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	return ReceiptResponse{
		ID:          r.ID.String(),
		Code:        r.Code,
		Status:      r.Status,
		SupplierID:  r.SupplierID.String(),
		WarehouseID: r.WarehouseID.String(),
		Note:        r.Note,
		Items:       items,
		PostedAt:    postedAt,
		CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *receiptService) CreateReceipt(ctx context.Context, userID string, req CreateReceiptRequest) (*ReceiptResponse, error) {
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return nil, errors.New("invalid supplier id")
	}
	warehouseID, err := uuid.Parse(req.WarehouseID)
	if err != nil {
		return nil, errors.New("invalid warehouse id")
	}

	if _, err := s.supplierRepo.FindByID(ctx, supplierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("supplier: %w", ErrNotFound)
		}
		return nil, err
	}
	if _, err := s.warehouseRepo.FindByID(ctx, warehouseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("warehouse: %w", ErrNotFound)
		}
		return nil, err
	}

	receipt := model.GoodsReceipt{
		Code:        req.Code,
		Status:      model.ReceiptStatusDraft,
		SupplierID:  supplierID,
		WarehouseID: warehouseID,
		Note:        req.Note,
	}
	if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
		receipt.CreatedByID = &parsed
	}

	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product id '%s'", item.ProductID)
		}
		if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("product '%s': %w", item.ProductID, ErrNotFound)
			}
			return nil, err
		}

		unitCost, err := decimal.NewFromString(item.UnitCost)
		if err != nil || unitCost.IsNegative() {
			return nil, errors.New("unit_cost must be a non-negative decimal")
		}

		receipt.Items = append(receipt.Items, model.GoodsReceiptItem{
			ProductID: productID,
			Quantity:  item.Quantity,
			UnitCost:  unitCost,
		})
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.receiptRepo.Create(txCtx, &receipt); err != nil {
			return fmt.Errorf("failed to create goods receipt: %w", err)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     receipt.CreatedByID,
			Action:     model.ActionCreateReceipt,
			EntityID:   receipt.ID.String(),
			EntityName: receipt.Code,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	resp := mapReceiptToResponse(&receipt)
	return &resp, nil
}

func (s *receiptService) GetReceipt(ctx context.Context, id string) (*ReceiptResponse, error) {
	receiptID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	receipt, err := s.receiptRepo.FindByIDWithItems(ctx, receiptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	resp := mapReceiptToResponse(receipt)
	return &resp, nil
}

func (s *receiptService) ListReceipts(ctx context.Context, page, limit int, status string) ([]ReceiptResponse, int64, error) {
	receipts, total, err := s.receiptRepo.List(ctx, page, limit, status)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ReceiptResponse, 0, len(receipts))
	for i := range receipts {
		res = append(res, mapReceiptToResponse(&receipts[i]))
	}
	return res, total, nil
}

// PostReceipt moves the receipt DRAFT -> POSTED and applies its items to
// inventory. The status flip is a conditional update, so two concurrent
// postings of the same receipt cannot both increment stock.
func (s *receiptService) PostReceipt(ctx context.Context, userID, id string) (*ReceiptResponse, error) {
	receiptID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	receipt, err := s.receiptRepo.FindByIDWithItems(ctx, receiptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if receipt.Status != model.ReceiptStatusDraft {
		return nil, ErrStaleState
	}

	var actor *uuid.UUID
	if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
		actor = &parsed
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rows, txErr := s.receiptRepo.UpdateStatusFrom(txCtx, receiptID, model.ReceiptStatusDraft, model.ReceiptStatusPosted)
		if txErr != nil {
			return txErr
		}
		if rows == 0 {
			return ErrStaleState
		}

		for _, item := range receipt.Items {
			inv, invErr := s.inventoryRepo.FindForUpdate(txCtx, item.ProductID, receipt.WarehouseID)
			if invErr != nil {
				if !errors.Is(invErr, gorm.ErrRecordNotFound) {
					return invErr
				}
				inv = &model.Inventory{
					ProductID:   item.ProductID,
					WarehouseID: receipt.WarehouseID,
					Quantity:    0,
				}
			}

			inv.Quantity += item.Quantity
			if invErr := s.inventoryRepo.Upsert(txCtx, inv); invErr != nil {
				return invErr
			}

			if invErr := s.inventoryRepo.CreateMovement(txCtx, &model.StockMovement{
				ProductID:    item.ProductID,
				WarehouseID:  receipt.WarehouseID,
				ReceiptID:    &receipt.ID,
				MovementType: model.MovementTypeIn,
				Quantity:     item.Quantity,
				StockAfter:   inv.Quantity,
			}); invErr != nil {
				return invErr
			}
		}

		now := time.Now()
		receipt.PostedAt = &now
		if txErr := s.receiptRepo.MarkPosted(txCtx, receipt); txErr != nil {
			return txErr
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     actor,
			Action:     model.ActionPostReceipt,
			EntityID:   receipt.ID.String(),
			EntityName: receipt.Code,
		})
	})
	if err != nil {
		return nil, err
	}

	receipt.Status = model.ReceiptStatusPosted
	if s.hub != nil {
		s.hub.BroadcastEvent("stock_changed", map[string]interface{}{
			"receipt_id":   receipt.ID.String(),
			"warehouse_id": receipt.WarehouseID.String(),
		})
	}

	resp := mapReceiptToResponse(receipt)
	return &resp, nil
}
