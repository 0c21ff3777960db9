package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/comandapos/comanda-backend/pkg/db/models"
	"github.com/comandapos/comanda-backend/pkg/enums"
)

// Repository defines persistence operations for orders and the table fields
// the order lifecycle owns.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindOpenOrderByTable(ctx context.Context, tableID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filters OrderFilters) ([]models.Order, error)
	ListOpenByTable(ctx context.Context, tableID uuid.UUID) ([]models.Order, error)
	ListByWaiter(ctx context.Context, waiterID uuid.UUID) ([]models.Order, error)
	ListKitchenQueue(ctx context.Context) ([]models.Order, error)
	// UpdateOrderGuarded applies updates only while the order status is one of
	// from; RowsAffected decides races.
	UpdateOrderGuarded(ctx context.Context, orderID uuid.UUID, from []enums.OrderStatus, updates map[string]any) (int64, error)
	FindTable(ctx context.Context, tableID uuid.UUID) (*models.DiningTable, error)
	// FindTableForUpdate loads a table holding a row lock for the rest of the
	// transaction; order creation uses it to serialize against table merges.
	FindTableForUpdate(ctx context.Context, tableID uuid.UUID) (*models.DiningTable, error)
	FindTableByNumber(ctx context.Context, number int) (*models.DiningTable, error)
	UpdateTable(ctx context.Context, tableID uuid.UUID, updates map[string]any) error
	SumOpenTotalByTable(ctx context.Context, tableID uuid.UUID) (decimal.Decimal, error)
	CountOpenByTable(ctx context.Context, tableID uuid.UUID) (int64, error)
	FindActiveProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}
