package billrequests

import (
	"github.com/google/uuid"

	"github.com/comandapos/comanda-backend/pkg/enums"
)

// Actor identifies the staff member performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// CreateInput captures a waiter's settlement signal for a table.
type CreateInput struct {
	TableID  uuid.UUID
	WaiterID uuid.UUID
	Note     *string
}

// BillRequestEvent is the payload of billRequest:new and billRequest:updated.
type BillRequestEvent struct {
	RequestID   uuid.UUID               `json:"requestId"`
	TableID     uuid.UUID               `json:"tableId"`
	TableNumber int                     `json:"tableNumber"`
	WaiterID    uuid.UUID               `json:"waiterId"`
	Status      enums.BillRequestStatus `json:"status"`
	Note        *string                 `json:"note,omitempty"`
	ResolvedBy  *uuid.UUID              `json:"resolvedBy,omitempty"`
}
