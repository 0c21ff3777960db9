package tables

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

// CreateTableInput captures the fields accepted when adding a table.
type CreateTableInput struct {
	Number   int
	Capacity int
	AreaID   *uuid.UUID
}

// MergeInput captures a merge or transfer between two tables.
type MergeInput struct {
	SourceID      uuid.UUID
	TargetID      uuid.UUID
	OperationType enums.TableOperationType
	Actor         Actor
}

// TableSnapshot is the per-table view carried on table events.
type TableSnapshot struct {
	TableID     uuid.UUID         `json:"tableId"`
	TableNumber int               `json:"tableNumber"`
	Status      enums.TableStatus `json:"status"`
	OpenTotal   decimal.Decimal   `json:"openTotal"`
	Note        *string           `json:"note,omitempty"`
}

// TableStatusEvent is the payload of table:statusUpdated.
type TableStatusEvent struct {
	Table TableSnapshot `json:"table"`
}

// TableMergeEvent is the payload of table:statusUpdated for merge/transfer.
type TableMergeEvent struct {
	OperationType enums.TableOperationType `json:"operationType"`
	SourceTable   TableSnapshot            `json:"sourceTable"`
	TargetTable   TableSnapshot            `json:"targetTable"`
	MovedOrders   int64                    `json:"movedOrders"`
}

// MergeResult reports both tables after a merge or transfer.
type MergeResult struct {
	SourceTable TableSnapshot `json:"sourceTable"`
	TargetTable TableSnapshot `json:"targetTable"`
}
