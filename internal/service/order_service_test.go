package service_test

import (
	"context"
	"sync"
	"testing"

	"storehub/internal/model"
	"storehub/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeOrderRepo is an in-memory OrderRepository. UpdateStatusFrom performs
// a real compare-and-swap under a mutex, so racing transitions behave like
// they do against the conditional UPDATE in Postgres.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.Order
	logs   []model.OrderStatusLog
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	stored := *order
	r.orders[order.ID] = &stored
	return nil
}

func (r *fakeOrderRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (r *fakeOrderRepo) UpdateStatusFrom(_ context.Context, id uuid.UUID, expected, target string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.Status != expected {
		return 0, nil
	}
	order.Status = target
	return 1, nil
}

func (r *fakeOrderRepo) CreateStatusLog(_ context.Context, entry *model.OrderStatusLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.logs = append(r.logs, *entry)
	return nil
}

func (r *fakeOrderRepo) ListStatusLogs(_ context.Context, orderID uuid.UUID) ([]model.OrderStatusLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var logs []model.OrderStatusLog
	for _, l := range r.logs {
		if l.OrderID == orderID {
			logs = append(logs, l)
		}
	}
	return logs, nil
}

func (r *fakeOrderRepo) List(_ context.Context, _, _ int, status string) ([]model.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []model.Order
	for _, o := range r.orders {
		if status == "" || o.Status == status {
			orders = append(orders, *o)
		}
	}
	return orders, int64(len(orders)), nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]model.Product
}

func newFakeProductRepo(products ...model.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[uuid.UUID]model.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *fakeProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []model.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			found = append(found, p)
		}
	}
	return found, nil
}

func (r *fakeProductRepo) List(_ context.Context, _, _ int, _ string, _ *uuid.UUID) ([]model.Product, int64, error) {
	return nil, 0, nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _, _ int, _ string) ([]model.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries, int64(len(r.entries)), nil
}

// fakeTxManager executes the function directly; the in-memory repos do not
// need transactional isolation.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// stubAuthz grants exactly the configured codes to every caller
type stubAuthz struct {
	codes map[string]bool
}

func (s stubAuthz) HasPermission(_ context.Context, _ string, code string) (bool, error) {
	return s.codes[code], nil
}

func (s stubAuthz) PermissionCodes(_ context.Context, _ string) ([]string, error) {
	var codes []string
	for c := range s.codes {
		codes = append(codes, c)
	}
	return codes, nil
}

func (stubAuthz) InvalidateRole(uuid.UUID) {}
func (stubAuthz) InvalidateAll()           {}

func grantAll() stubAuthz {
	return stubAuthz{codes: map[string]bool{
		"orders.confirm":  true,
		"orders.export":   true,
		"orders.deliver":  true,
		"orders.complete": true,
	}}
}

func grantNone() stubAuthz {
	return stubAuthz{codes: map[string]bool{}}
}

func newOrderFixture(t *testing.T, authz service.AuthzService, products ...model.Product) (service.OrderService, *fakeOrderRepo, *fakeProductRepo, *fakeAuditRepo) {
	t.Helper()
	orderRepo := newFakeOrderRepo()
	productRepo := newFakeProductRepo(products...)
	auditRepo := &fakeAuditRepo{}
	svc := service.NewOrderService(orderRepo, productRepo, auditRepo, authz, fakeTxManager{}, nil)
	return svc, orderRepo, productRepo, auditRepo
}

func testProduct(price string) model.Product {
	return model.Product{
		ID:       uuid.New(),
		SKU:      "SKU-" + uuid.NewString()[:8],
		Name:     "Test product",
		Price:    decimal.RequireFromString(price),
		IsActive: true,
	}
}

func seedOrder(t *testing.T, repo *fakeOrderRepo, status string, items ...model.OrderItem) uuid.UUID {
	t.Helper()
	order := &model.Order{
		OrderCode:    "ORD-" + uuid.NewString()[:8],
		Status:       status,
		CustomerName: "Jamie Doe",
		Items:        items,
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order.ID
}

func TestCreateOrder_CapturesPricesAndStartsPending(t *testing.T) {
	product := testProduct("19.90")
	svc, _, _, _ := newOrderFixture(t, grantAll(), product)

	resp, err := svc.CreateOrder(context.Background(), service.CreateOrderRequest{
		OrderCode:    "ORD-1001",
		CustomerName: "Jamie Doe",
		Items: []service.OrderItemRequest{
			{ProductID: product.ID.String(), Quantity: 3},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, resp.Status)
	assert.Equal(t, "59.70", resp.TotalAmount)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "19.90", resp.Items[0].UnitPrice)
}

func TestCreateOrder_RejectsInactiveProduct(t *testing.T) {
	product := testProduct("5.00")
	product.IsActive = false
	svc, _, _, _ := newOrderFixture(t, grantAll(), product)

	_, err := svc.CreateOrder(context.Background(), service.CreateOrderRequest{
		OrderCode:    "ORD-1002",
		CustomerName: "Jamie Doe",
		Items: []service.OrderItemRequest{
			{ProductID: product.ID.String(), Quantity: 1},
		},
	})

	require.Error(t, err)
}

func TestCreateOrder_UnknownProductIsNotFound(t *testing.T) {
	svc, _, _, _ := newOrderFixture(t, grantAll())

	_, err := svc.CreateOrder(context.Background(), service.CreateOrderRequest{
		OrderCode:    "ORD-1003",
		CustomerName: "Jamie Doe",
		Items: []service.OrderItemRequest{
			{ProductID: uuid.NewString(), Quantity: 1},
		},
	})

	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestApplyTransition_ConfirmSubmit(t *testing.T) {
	svc, orderRepo, _, auditRepo := newOrderFixture(t, grantAll())
	orderID := seedOrder(t, orderRepo, model.OrderStatusPending)
	actorID := uuid.NewString()

	resp, err := svc.ApplyTransition(context.Background(), orderID.String(), model.ActionConfirm, model.DirectionSubmit, actorID)

	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, resp.Status)

	stored, err := orderRepo.FindByIDWithItems(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, stored.Status)

	logs, err := orderRepo.ListStatusLogs(context.Background(), orderID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "confirm", logs[0].Action)
	assert.Equal(t, model.OrderStatusPending, logs[0].FromStatus)
	assert.Equal(t, model.OrderStatusConfirmed, logs[0].ToStatus)

	require.Len(t, auditRepo.entries, 1)
	assert.Equal(t, model.ActionTransitionOrder, auditRepo.entries[0].Action)
}

func TestApplyTransition_EmptyDirectionDefaultsToSubmit(t *testing.T) {
	svc, orderRepo, _, _ := newOrderFixture(t, grantAll())
	orderID := seedOrder(t, orderRepo, model.OrderStatusPending)

	resp, err := svc.ApplyTransition(context.Background(), orderID.String(), model.ActionConfirm, "", uuid.NewString())

	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, resp.Status)
}

func TestApplyTransition_WithoutPermissionIsForbidden(t *testing.T) {
	svc, orderRepo, _, auditRepo := newOrderFixture(t, grantNone())
	orderID := seedOrder(t, orderRepo, model.OrderStatusPending)

	_, err := svc.ApplyTransition(context.Background(), orderID.String(), model.ActionConfirm, model.DirectionSubmit, uuid.NewString())

	require.ErrorIs(t, err, service.ErrForbidden)

	// The order and its trail are untouched
	stored, findErr := orderRepo.FindByIDWithItems(context.Background(), orderID)
	require.NoError(t, findErr)
	assert.Equal(t, model.OrderStatusPending, stored.Status)
	logs, _ := orderRepo.ListStatusLogs(context.Background(), orderID)
	assert.Empty(t, logs)
	assert.Empty(t, auditRepo.entries)
}

func TestApplyTransition_WrongStatusIsStale(t *testing.T) {
	// Export requires CONFIRMED. Against a PENDING order it must fail the
	// precondition even for a fully-permitted actor.
	svc, orderRepo, _, _ := newOrderFixture(t, grantAll())
	orderID := seedOrder(t, orderRepo, model.OrderStatusPending)

	_, err := svc.ApplyTransition(context.Background(), orderID.String(), model.ActionExport, model.DirectionSubmit, uuid.NewString())

	require.ErrorIs(t, err, service.ErrStaleState)
}

func TestApplyTransition_RepeatIsNotIdempotent(t *testing.T) {
	svc, orderRepo, _, _ := newOrderFixture(t, grantAll())
	orderID := seedOrder(t, orderRepo, model.OrderStatusPending)

	_, err := svc.ApplyTransition(context.Background(), orderID.String(), model.ActionConfirm, model.DirectionSubmit, uuid.NewString())
	require.NoError(t, err)

	// The order now sits on the submit target; re-submitting fails
	_, err = svc.ApplyTransition(context.Background(), orderID.String(), model.ActionConfirm, model.DirectionSubmit, uuid.NewString())
	require.ErrorIs(t, err, service.ErrStaleState)
}

func TestApplyTransition_UnknownOrderIsNotFound(t *testing.T) {
	svc, _, _, _ := newOrderFixture(t, grantAll())

	_, err := svc.ApplyTransition(context.Background(), uuid.NewString(), model.ActionConfirm, model.DirectionSubmit, uuid.NewString())
	require.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.ApplyTransition(context.Background(), "not-a-uuid", model.ActionConfirm, model.DirectionSubmit, uuid.NewString())
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestApplyTransition_UnknownActionFails(t *testing.T) {
	svc, orderRepo, _, _ := newOrderFixture(t, grantAll())
	orderID := seedOrder(t, orderRepo, model.OrderStatusPending)

	_, err := svc.ApplyTransition(context.Background(), orderID.String(), model.OrderAction("archive"), model.DirectionSubmit, uuid.NewString())

	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrStaleState)
}

func TestApplyTransition_ConcurrentConfirm_OneWinner(t *testing.T) {
	svc, orderRepo, _, _ := newOrderFixture(t, grantAll())
	orderID := seedOrder(t, orderRepo, model.OrderStatusPending)

	const racers = 8
	errs := make(chan error, racers)
	var start sync.WaitGroup
	start.Add(1)

	for i := 0; i < racers; i++ {
		go func() {
			start.Wait()
			_, err := svc.ApplyTransition(context.Background(), orderID.String(), model.ActionConfirm, model.DirectionSubmit, uuid.NewString())
			errs <- err
		}()
	}
	start.Done()

	var wins, stale int
	for i := 0; i < racers; i++ {
		err := <-errs
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, service.ErrStaleState)
			stale++
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, stale)

	stored, err := orderRepo.FindByIDWithItems(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, stored.Status)

	// Exactly the winner appended a trail entry
	logs, err := orderRepo.ListStatusLogs(context.Background(), orderID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestApplyTransition_ConfirmThenCancelRoundTrip(t *testing.T) {
	svc, orderRepo, _, _ := newOrderFixture(t, grantAll())
	orderID := seedOrder(t, orderRepo, model.OrderStatusPending)
	actorID := uuid.NewString()

	_, err := svc.ApplyTransition(context.Background(), orderID.String(), model.ActionConfirm, model.DirectionSubmit, actorID)
	require.NoError(t, err)

	resp, err := svc.ApplyTransition(context.Background(), orderID.String(), model.ActionConfirm, model.DirectionCancel, actorID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, resp.Status)

	// Both legs are recorded
	logs, err := orderRepo.ListStatusLogs(context.Background(), orderID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, model.OrderStatusPending, logs[0].FromStatus)
	assert.Equal(t, model.OrderStatusConfirmed, logs[0].ToStatus)
	assert.Equal(t, model.OrderStatusConfirmed, logs[1].FromStatus)
	assert.Equal(t, model.OrderStatusPending, logs[1].ToStatus)
}

func TestOrder_CapturedPriceSurvivesCatalogUpdate(t *testing.T) {
	product := testProduct("10.00")
	svc, _, productRepo, _ := newOrderFixture(t, grantAll(), product)

	resp, err := svc.CreateOrder(context.Background(), service.CreateOrderRequest{
		OrderCode:    "ORD-2001",
		CustomerName: "Jamie Doe",
		Items: []service.OrderItemRequest{
			{ProductID: product.ID.String(), Quantity: 2},
		},
	})
	require.NoError(t, err)

	// Catalog price changes after checkout
	product.Price = decimal.RequireFromString("99.99")
	require.NoError(t, productRepo.Update(context.Background(), &product))

	// Walk the order through the whole workflow
	for _, action := range []model.OrderAction{
		model.ActionConfirm, model.ActionExport, model.ActionDeliver, model.ActionComplete,
	} {
		var trErr error
		resp, trErr = svc.ApplyTransition(context.Background(), resp.ID, action, model.DirectionSubmit, uuid.NewString())
		require.NoError(t, trErr)
	}

	assert.Equal(t, model.OrderStatusCompleted, resp.Status)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "10.00", resp.Items[0].UnitPrice)
	assert.Equal(t, "20.00", resp.TotalAmount)
}
