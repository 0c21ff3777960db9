package stock

import (
	"github.com/google/uuid"

	"github.com/comandapos/comanda-backend/pkg/enums"
)

// AdjustInput captures a manual stock movement.
type AdjustInput struct {
	ProductID  uuid.UUID
	Quantity   int
	Type       enums.StockMovementType
	SupplierID *uuid.UUID
	ActorID    uuid.UUID
	ActorRole  string
}

// ConsumeItem is one order line the fulfillment path depletes.
type ConsumeItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// LowStockAlert describes a product that crossed its reorder threshold.
type LowStockAlert struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
	MinStock  int       `json:"minStock"`
}

// StockUpdatedEvent is the payload of stock:statusUpdated.
type StockUpdatedEvent struct {
	ProductID  uuid.UUID               `json:"productId"`
	Name       string                  `json:"name"`
	Stock      int                     `json:"stock"`
	MinStock   int                     `json:"minStock"`
	Quantity   int                     `json:"quantity"`
	Type       enums.StockMovementType `json:"type"`
	StockLogID uuid.UUID               `json:"stockLogId"`
}
