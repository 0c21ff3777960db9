package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/comandapos/comanda-backend/pkg/enums"
)

// BillRequest is a waiter's signal that a table wants to settle. At most one
// non-terminal request may exist per table; the partial unique index
// ux_bill_requests_active_table backs the in-transaction check.
type BillRequest struct {
	ID         uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TableID    uuid.UUID               `gorm:"column:table_id;type:uuid;not null;index"`
	WaiterID   uuid.UUID               `gorm:"column:waiter_id;type:uuid;not null;index"`
	Status     enums.BillRequestStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Note       *string                 `gorm:"column:note"`
	ResolvedBy *uuid.UUID              `gorm:"column:resolved_by;type:uuid"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
