package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus constants. An order is created as PENDING by the checkout
// flow and walks forward through the statuses below; each workflow action
// also has a cancel direction that rolls the order back to the action's
// starting status. There is no self-transition and no hard delete.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusExported  = "EXPORTED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCompleted = "COMPLETED"
)

// OrderAction names one staff-facing workflow step
type OrderAction string

const (
	ActionConfirm  OrderAction = "confirm"
	ActionExport   OrderAction = "export"
	ActionDeliver  OrderAction = "deliver"
	ActionComplete OrderAction = "complete"
)

// TransitionDirection selects the submit or cancel target of an action
type TransitionDirection string

const (
	DirectionSubmit TransitionDirection = "submit"
	DirectionCancel TransitionDirection = "cancel"
)

// Transition declares, for one action, the status it may be submitted from,
// the submit and cancel targets, and the permission required to run it.
// Submit moves From -> SubmitTo; cancel is the rollback edge, moving
// SubmitTo -> CancelTo (back where the action started).
type Transition struct {
	Action     OrderAction
	From       string
	SubmitTo   string
	CancelTo   string
	Permission string
}

var transitions = map[OrderAction]Transition{
	ActionConfirm:  {Action: ActionConfirm, From: OrderStatusPending, SubmitTo: OrderStatusConfirmed, CancelTo: OrderStatusPending, Permission: "orders.confirm"},
	ActionExport:   {Action: ActionExport, From: OrderStatusConfirmed, SubmitTo: OrderStatusExported, CancelTo: OrderStatusConfirmed, Permission: "orders.export"},
	ActionDeliver:  {Action: ActionDeliver, From: OrderStatusExported, SubmitTo: OrderStatusDelivered, CancelTo: OrderStatusExported, Permission: "orders.deliver"},
	ActionComplete: {Action: ActionComplete, From: OrderStatusDelivered, SubmitTo: OrderStatusCompleted, CancelTo: OrderStatusDelivered, Permission: "orders.complete"},
}

// TransitionFor returns the transition declared for the given action.
// Unknown actions return ok=false; callers must treat that as a client error.
func TransitionFor(action OrderAction) (Transition, bool) {
	t, ok := transitions[action]
	return t, ok
}

// Expected resolves the status the order must hold for a direction to apply:
// From for submit, SubmitTo for cancel. The zero value of direction defaults
// to submit.
func (t Transition) Expected(direction TransitionDirection) string {
	if direction == DirectionCancel {
		return t.SubmitTo
	}
	return t.From
}

// Target resolves the destination status for a direction. The zero value
// of direction defaults to submit.
func (t Transition) Target(direction TransitionDirection) string {
	if direction == DirectionCancel {
		return t.CancelTo
	}
	return t.SubmitTo
}

// ValidDirection reports whether the direction is one of submit/cancel
func ValidDirection(d TransitionDirection) bool {
	return d == DirectionSubmit || d == DirectionCancel
}

// Order represents a checkout transaction. Line items carry the unit price
// captured at creation time; a later catalog price change never alters an
// existing order. Orders are never hard-deleted.
type Order struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderCode     string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"order_code"`
	Status        string          `gorm:"type:varchar(20);default:'PENDING';index" json:"status"`
	CustomerName  string          `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerEmail string          `gorm:"type:varchar(255)" json:"customer_email"`
	CustomerPhone string          `gorm:"type:varchar(50)" json:"customer_phone"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	Note          string          `gorm:"type:text" json:"note"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// OrderItem represents a line item within an Order
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"-"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"` // Captured at order time
}

// OrderStatusLog is the audit trail of workflow transitions: who moved
// the order, from which status to which, and when.
type OrderStatusLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	ActorID    *uuid.UUID `gorm:"type:uuid;index" json:"actor_id"`
	Action     string     `gorm:"type:varchar(20);not null" json:"action"`
	FromStatus string     `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus   string     `gorm:"type:varchar(20);not null" json:"to_status"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
