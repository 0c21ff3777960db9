package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/comandapos/comanda-backend/pkg/db/models"
	"github.com/comandapos/comanda-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	diningTables := `
CREATE TABLE IF NOT EXISTS dining_tables (
  id TEXT PRIMARY KEY,
  number INTEGER NOT NULL UNIQUE,
  capacity INTEGER NOT NULL DEFAULT 4,
  area_id TEXT,
  status TEXT NOT NULL DEFAULT 'available',
  note TEXT,
  open_total NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  table_id TEXT NOT NULL,
  waiter_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  total NUMERIC NOT NULL,
  payment_method TEXT,
  cash_amount NUMERIC,
  credit_amount NUMERIC,
  paid_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  note TEXT,
  created_at DATETIME
);`

	for _, ddl := range []string{diningTables, orders, orderItems} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

var tableNumberSeq = 1000

func seedDiningTable(t *testing.T, db *gorm.DB) *models.DiningTable {
	t.Helper()
	tableNumberSeq++
	table := &models.DiningTable{
		ID:     uuid.New(),
		Number: tableNumberSeq,
		Status: enums.TableStatusAvailable,
	}
	require.NoError(t, db.Create(table).Error)
	return table
}

func seedOrder(t *testing.T, db *gorm.DB, tableID uuid.UUID, status enums.OrderStatus, total string) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:       uuid.New(),
		TableID:  tableID,
		WaiterID: uuid.New(),
		Status:   status,
		Total:    decimal.RequireFromString(total),
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestCreateAndFindOrderPreloadsItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	table := seedDiningTable(t, db)
	order := &models.Order{
		ID:       uuid.New(),
		TableID:  table.ID,
		WaiterID: uuid.New(),
		Status:   enums.OrderStatusPending,
		Total:    decimal.RequireFromString("24.00"),
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: uuid.New(), Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
			{ID: uuid.New(), ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.RequireFromString("4.00")},
		},
	}

	created, err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)

	found, err := repo.FindOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, found.Items, 2)
	assert.True(t, found.Total.Equal(decimal.RequireFromString("24.00")))
}

func TestUpdateOrderGuardedDecidesRaces(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	table := seedDiningTable(t, db)
	order := seedOrder(t, db, table.ID, enums.OrderStatusPending, "10.00")

	affected, err := repo.UpdateOrderGuarded(ctx, order.ID,
		[]enums.OrderStatus{enums.OrderStatusPending},
		map[string]any{"status": enums.OrderStatusPreparing})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// The same guard loses once the status has moved on.
	affected, err = repo.UpdateOrderGuarded(ctx, order.ID,
		[]enums.OrderStatus{enums.OrderStatusPending},
		map[string]any{"status": enums.OrderStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	found, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPreparing, found.Status)
}

func TestOpenOrderAggregatesByTable(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	table := seedDiningTable(t, db)
	seedOrder(t, db, table.ID, enums.OrderStatusPending, "10.00")
	seedOrder(t, db, table.ID, enums.OrderStatusReady, "5.50")
	seedOrder(t, db, table.ID, enums.OrderStatusCompleted, "99.00")

	count, err := repo.CountOpenByTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	total, err := repo.SumOpenTotalByTable(ctx, table.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("15.50")), "got %s", total)

	open, err := repo.ListOpenByTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestFindTableByNumber(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	table := seedDiningTable(t, db)

	found, err := repo.FindTableByNumber(ctx, table.Number)
	require.NoError(t, err)
	assert.Equal(t, table.ID, found.ID)

	_, err = repo.FindTableByNumber(ctx, -1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
