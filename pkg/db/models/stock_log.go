package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/comandapos/comanda-backend/pkg/enums"
)

// StockLog is one append-only row of the stock ledger. Quantity is stored as
// a positive magnitude; Type carries the sign. A product's cached stock must
// equal the signed sum of its ledger rows at all times.
type StockLog struct {
	ID         uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID               `gorm:"column:product_id;type:uuid;not null;index"`
	Quantity   int                     `gorm:"column:quantity;not null"`
	Type       enums.StockMovementType `gorm:"column:type;type:text;not null"`
	SupplierID *uuid.UUID              `gorm:"column:supplier_id;type:uuid"`
	OrderID    *uuid.UUID              `gorm:"column:order_id;type:uuid"`
	ReversedBy *uuid.UUID              `gorm:"column:reversed_by;type:uuid"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
}
