package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storehub/internal/model"
	"storehub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	OrderCode     string             `json:"order_code" binding:"required"`
	CustomerName  string             `json:"customer_name" binding:"required"`
	CustomerEmail string             `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone string             `json:"customer_phone"`
	Note          string             `json:"note"`
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type TransitionRequest struct {
	Direction string `json:"direction" binding:"omitempty,oneof=submit cancel"`
}

type OrderItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	OrderCode     string              `json:"order_code"`
	Status        string              `json:"status"`
	CustomerName  string              `json:"customer_name"`
	CustomerEmail string              `json:"customer_email"`
	CustomerPhone string              `json:"customer_phone"`
	TotalAmount   string              `json:"total_amount"`
	Note          string              `json:"note"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     string              `json:"created_at"`
	UpdatedAt     string              `json:"updated_at"`
}

type StatusLogResponse struct {
	ID         string `json:"id"`
	ActorID    string `json:"actor_id"`
	Action     string `json:"action"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	CreatedAt  string `json:"created_at"`
}

// EventBroadcaster pushes realtime events to connected dashboard clients
type EventBroadcaster interface {
	BroadcastEvent(event string, data map[string]interface{})
}

// OrderService owns checkout creation and the staff workflow engine.
//
// The workflow is the four-action table declared in model: confirm, export,
// deliver, complete, each starting from exactly one status, with a submit
// target and a cancel target. A transition commits through a conditional
// update keyed on order id plus expected status; losing that race surfaces
// ErrStaleState and the order is left untouched.
type OrderService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error)
	GetOrder(ctx context.Context, id string) (*OrderResponse, error)
	ListOrders(ctx context.Context, page, limit int, status string) ([]OrderResponse, int64, error)
	GetStatusLogs(ctx context.Context, orderID string) ([]StatusLogResponse, error)
	ApplyTransition(ctx context.Context, orderID string, action model.OrderAction, direction model.TransitionDirection, actorID string) (*OrderResponse, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	authz       AuthzService
	txManager   repository.TransactionManager
	hub         EventBroadcaster
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	authz AuthzService,
	txManager repository.TransactionManager,
	hub EventBroadcaster,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		auditRepo:   auditRepo,
		authz:       authz,
		txManager:   txManager,
		hub:         hub,
	}
}

// CreateOrder builds a PENDING order from the checkout payload. Unit prices
// are copied from the catalog here, once; later catalog price changes never
// touch the created order.
func (s *orderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	productIDs := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product id '%s': %w", item.ProductID, err)
		}
		productIDs = append(productIDs, pid)
	}

	products, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	productByID := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	order := model.Order{
		OrderCode:     req.OrderCode,
		Status:        model.OrderStatusPending,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Note:          req.Note,
	}

	total := decimal.Zero
	for i, item := range req.Items {
		product, ok := productByID[productIDs[i]]
		if !ok {
			return nil, fmt.Errorf("product '%s': %w", item.ProductID, ErrNotFound)
		}
		if !product.IsActive {
			return nil, fmt.Errorf("product '%s' is not available", product.SKU)
		}

		order.Items = append(order.Items, model.OrderItem{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price, // price captured now, immutable afterwards
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	order.TotalAmount = total

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.orderRepo.Create(txCtx, &order)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	resp := mapOrderToResponse(&order)
	return &resp, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	resp := mapOrderToResponse(order)
	return &resp, nil
}

func (s *orderService) ListOrders(ctx context.Context, page, limit int, status string) ([]OrderResponse, int64, error) {
	orders, total, err := s.orderRepo.List(ctx, page, limit, status)
	if err != nil {
		return nil, 0, err
	}

	res := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		res = append(res, mapOrderToResponse(&orders[i]))
	}
	return res, total, nil
}

func (s *orderService) GetStatusLogs(ctx context.Context, orderID string) ([]StatusLogResponse, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, ErrNotFound
	}

	logs, err := s.orderRepo.ListStatusLogs(ctx, id)
	if err != nil {
		return nil, err
	}

	res := make([]StatusLogResponse, 0, len(logs))
	for _, l := range logs {
		actorID := ""
		if l.ActorID != nil {
			actorID = l.ActorID.String()
		}
		res = append(res, StatusLogResponse{
			ID:         l.ID.String(),
			ActorID:    actorID,
			Action:     l.Action,
			FromStatus: l.FromStatus,
			ToStatus:   l.ToStatus,
			CreatedAt:  l.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return res, nil
}

// ApplyTransition runs one workflow action against an order.
//
// Check order: permission first (FORBIDDEN beats conflict reporting), then
// the status precondition. The commit re-checks the status inside a
// conditional update, so a concurrent winner turns this call into
// ErrStaleState with the order unmodified. The call is deliberately not
// idempotent: repeating a transition against its own target status fails
// the precondition.
func (s *orderService) ApplyTransition(ctx context.Context, orderID string, action model.OrderAction, direction model.TransitionDirection, actorID string) (*OrderResponse, error) {
	spec, ok := model.TransitionFor(action)
	if !ok {
		return nil, fmt.Errorf("unknown order action '%s'", action)
	}
	if direction == "" {
		direction = model.DirectionSubmit
	}
	if !model.ValidDirection(direction) {
		return nil, fmt.Errorf("invalid direction '%s'", direction)
	}

	allowed, err := s.authz.HasPermission(ctx, actorID, spec.Permission)
	if err != nil {
		return nil, fmt.Errorf("failed to verify permissions: %w", err)
	}
	if !allowed {
		return nil, ErrForbidden
	}

	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, ErrNotFound
	}

	order, err := s.orderRepo.FindByIDWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	expected := spec.Expected(direction)
	target := spec.Target(direction)
	if order.Status != expected {
		return nil, ErrStaleState
	}

	var actor *uuid.UUID
	if parsed, parseErr := uuid.Parse(actorID); parseErr == nil {
		actor = &parsed
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rows, txErr := s.orderRepo.UpdateStatusFrom(txCtx, id, expected, target)
		if txErr != nil {
			return txErr
		}
		if rows == 0 {
			// A concurrent transition won; leave everything untouched
			return ErrStaleState
		}

		if txErr := s.orderRepo.CreateStatusLog(txCtx, &model.OrderStatusLog{
			OrderID:    id,
			ActorID:    actor,
			Action:     string(action),
			FromStatus: expected,
			ToStatus:   target,
		}); txErr != nil {
			return txErr
		}

		details, _ := json.Marshal(map[string]string{
			"action":    string(action),
			"direction": string(direction),
			"from":      expected,
			"to":        target,
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     actor,
			Action:     model.ActionTransitionOrder,
			EntityID:   order.ID.String(),
			EntityName: order.OrderCode,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = target
	if s.hub != nil {
		s.hub.BroadcastEvent("order_status_changed", map[string]interface{}{
			"order_id":   order.ID.String(),
			"order_code": order.OrderCode,
			"status":     target,
		})
	}

	resp := mapOrderToResponse(order)
	return &resp, nil
}

func mapOrderToResponse(order *model.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			ID:        item.ID.String(),
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
		})
	}

	return OrderResponse{
		ID:            order.ID.String(),
		OrderCode:     order.OrderCode,
		Status:        order.Status,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		CustomerPhone: order.CustomerPhone,
		TotalAmount:   order.TotalAmount.StringFixed(2),
		Note:          order.Note,
		Items:         items,
		CreatedAt:     order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     order.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
