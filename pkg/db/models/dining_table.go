package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/comandapos/comanda-backend/pkg/enums"
)

// DiningTable is a physical table on the floor. OpenTotal caches the summed
// total of the table's open orders; the orders themselves remain the source
// of truth.
type DiningTable struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Number    int               `gorm:"column:number;not null;uniqueIndex"`
	Capacity  int               `gorm:"column:capacity;not null;default:4"`
	AreaID    *uuid.UUID        `gorm:"column:area_id;type:uuid"`
	Status    enums.TableStatus `gorm:"column:status;type:text;not null;default:'available'"`
	Note      *string           `gorm:"column:note"`
	OpenTotal decimal.Decimal   `gorm:"column:open_total;type:numeric(12,2);not null;default:0"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName maps the struct away from the reserved word "tables".
func (DiningTable) TableName() string {
	return "dining_tables"
}
