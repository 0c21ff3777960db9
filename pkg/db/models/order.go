package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/comandapos/comanda-backend/pkg/enums"
)

// Order is one tab opened by a waiter against a table. Items are owned by the
// order and share its lifecycle.
type Order struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TableID       uuid.UUID            `gorm:"column:table_id;type:uuid;not null"`
	WaiterID      uuid.UUID            `gorm:"column:waiter_id;type:uuid;not null"`
	Status        enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending'"`
	Total         decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	PaymentMethod *enums.PaymentMethod `gorm:"column:payment_method;type:text"`
	CashAmount    *decimal.Decimal     `gorm:"column:cash_amount;type:numeric(12,2)"`
	CreditAmount  *decimal.Decimal     `gorm:"column:credit_amount;type:numeric(12,2)"`
	PaidAt        *time.Time           `gorm:"column:paid_at"`
	CancelledAt   *time.Time           `gorm:"column:cancelled_at"`
	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots one line of an order. UnitPrice is captured at order
// time and never follows later product price changes.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Note      *string         `gorm:"column:note"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
