package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/comandapos/comanda-backend/pkg/enums"
)

// Actor identifies the staff member performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// CreateOrderItemInput is one requested line of a new order.
type CreateOrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Note      *string
}

// CreateOrderInput captures the data required to open a tab on a table.
type CreateOrderInput struct {
	TableID  uuid.UUID
	WaiterID uuid.UUID
	Items    []CreateOrderItemInput
}

// PaymentInput captures how an order is settled. Cash and credit amounts are
// required for split payments and must sum to the order total exactly.
type PaymentInput struct {
	Method       enums.PaymentMethod
	CashAmount   *decimal.Decimal
	CreditAmount *decimal.Decimal
}

// OrderFilters describe the inputs supported by the order list.
type OrderFilters struct {
	Status   *enums.OrderStatus
	TableID  *uuid.UUID
	WaiterID *uuid.UUID
}

// OrderItemEvent is one line of an order event payload.
type OrderItemEvent struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Note      *string         `json:"note,omitempty"`
}

// OrderEvent is the payload shared by order:new, order:statusUpdated and
// order:cancelled.
type OrderEvent struct {
	OrderID       uuid.UUID            `json:"orderId"`
	TableID       uuid.UUID            `json:"tableId"`
	TableNumber   int                  `json:"tableNumber"`
	WaiterID      uuid.UUID            `json:"waiterId"`
	Status        enums.OrderStatus    `json:"status"`
	Total         decimal.Decimal      `json:"total"`
	PaymentMethod *enums.PaymentMethod `json:"paymentMethod,omitempty"`
	Items         []OrderItemEvent     `json:"items,omitempty"`
}

// TableClearedEvent is the payload of table:statusUpdated emitted by
// ClearTableOrders.
type TableClearedEvent struct {
	TableID     uuid.UUID         `json:"tableId"`
	TableNumber int               `json:"tableNumber"`
	Status      enums.TableStatus `json:"status"`
	OpenTotal   decimal.Decimal   `json:"openTotal"`
}
