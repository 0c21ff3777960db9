package tables

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/comandapos/comanda-backend/pkg/db/models"
)

// Repository defines persistence operations for the floor plan.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTable(ctx context.Context, table *models.DiningTable) (*models.DiningTable, error)
	FindTable(ctx context.Context, id uuid.UUID) (*models.DiningTable, error)
	// FindTableForUpdate loads a table holding a row lock for the rest of the
	// transaction, so concurrent merges and order creation serialize on it.
	FindTableForUpdate(ctx context.Context, id uuid.UUID) (*models.DiningTable, error)
	ListTables(ctx context.Context) ([]models.DiningTable, error)
	UpdateTable(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CountOpenOrders(ctx context.Context, tableID uuid.UUID) (int64, error)
	SumOpenTotal(ctx context.Context, tableID uuid.UUID) (decimal.Decimal, error)
	// ReassignOpenOrders moves every open order from source to target and
	// returns how many rows moved.
	ReassignOpenOrders(ctx context.Context, sourceID, targetID uuid.UUID) (int64, error)
	CreateArea(ctx context.Context, area *models.Area) (*models.Area, error)
	ListAreas(ctx context.Context) ([]models.Area, error)
}
