package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/comandapos/comanda-backend/internal/stock"
	"github.com/comandapos/comanda-backend/pkg/db/models"
	"github.com/comandapos/comanda-backend/pkg/enums"
	pkgerrors "github.com/comandapos/comanda-backend/pkg/errors"
	"github.com/comandapos/comanda-backend/pkg/outbox"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeStock struct {
	consumed []stock.ConsumeItem
	alerts   []stock.LowStockAlert
	err      error
}

func (f *fakeStock) ConsumeForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, items []stock.ConsumeItem) ([]stock.LowStockAlert, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.consumed = append(f.consumed, items...)
	return f.alerts, nil
}

type stubRepo struct {
	orders   map[uuid.UUID]*models.Order
	tables   map[uuid.UUID]*models.DiningTable
	products map[uuid.UUID]*models.Product
	locked   []uuid.UUID
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		orders:   map[uuid.UUID]*models.Order{},
		tables:   map[uuid.UUID]*models.DiningTable{},
		products: map[uuid.UUID]*models.Product{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubRepo) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (s *stubRepo) FindOpenOrderByTable(ctx context.Context, tableID uuid.UUID) (*models.Order, error) {
	for _, order := range s.orders {
		if order.TableID == tableID && order.Status.IsOpen() {
			clone := *order
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) List(ctx context.Context, filters OrderFilters) ([]models.Order, error) {
	var rows []models.Order
	for _, order := range s.orders {
		rows = append(rows, *order)
	}
	return rows, nil
}

func (s *stubRepo) ListOpenByTable(ctx context.Context, tableID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	for _, order := range s.orders {
		if order.TableID == tableID && order.Status.IsOpen() {
			rows = append(rows, *order)
		}
	}
	return rows, nil
}

func (s *stubRepo) ListByWaiter(ctx context.Context, waiterID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	for _, order := range s.orders {
		if order.WaiterID == waiterID {
			rows = append(rows, *order)
		}
	}
	return rows, nil
}

func (s *stubRepo) ListKitchenQueue(ctx context.Context) ([]models.Order, error) {
	var rows []models.Order
	for _, order := range s.orders {
		switch order.Status {
		case enums.OrderStatusPending, enums.OrderStatusPreparing, enums.OrderStatusReady:
			rows = append(rows, *order)
		}
	}
	return rows, nil
}

func (s *stubRepo) UpdateOrderGuarded(ctx context.Context, orderID uuid.UUID, from []enums.OrderStatus, updates map[string]any) (int64, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return 0, nil
	}
	allowed := false
	for _, status := range from {
		if order.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return 0, nil
	}
	if status, ok := updates["status"].(enums.OrderStatus); ok {
		order.Status = status
	}
	if method, ok := updates["payment_method"].(enums.PaymentMethod); ok {
		order.PaymentMethod = &method
	}
	return 1, nil
}

func (s *stubRepo) FindTable(ctx context.Context, tableID uuid.UUID) (*models.DiningTable, error) {
	table, ok := s.tables[tableID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *table
	return &clone, nil
}

func (s *stubRepo) FindTableForUpdate(ctx context.Context, tableID uuid.UUID) (*models.DiningTable, error) {
	s.locked = append(s.locked, tableID)
	return s.FindTable(ctx, tableID)
}

func (s *stubRepo) FindTableByNumber(ctx context.Context, number int) (*models.DiningTable, error) {
	for _, table := range s.tables {
		if table.Number == number {
			clone := *table
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) UpdateTable(ctx context.Context, tableID uuid.UUID, updates map[string]any) error {
	table, ok := s.tables[tableID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(enums.TableStatus); ok {
		table.Status = status
	}
	if total, ok := updates["open_total"].(decimal.Decimal); ok {
		table.OpenTotal = total
	}
	return nil
}

func (s *stubRepo) SumOpenTotalByTable(ctx context.Context, tableID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, order := range s.orders {
		if order.TableID == tableID && order.Status.IsOpen() {
			total = total.Add(order.Total)
		}
	}
	return total, nil
}

func (s *stubRepo) CountOpenByTable(ctx context.Context, tableID uuid.UUID) (int64, error) {
	var n int64
	for _, order := range s.orders {
		if order.TableID == tableID && order.Status.IsOpen() {
			n++
		}
	}
	return n, nil
}

func (s *stubRepo) FindActiveProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	for _, id := range ids {
		if product, ok := s.products[id]; ok && product.IsActive {
			rows = append(rows, *product)
		}
	}
	return rows, nil
}

func newTestService(t *testing.T, repo *stubRepo) (Service, *fakeOutbox, *fakeStock) {
	t.Helper()
	ob := &fakeOutbox{}
	st := &fakeStock{}
	svc, err := NewService(repo, fakeTxRunner{}, ob, st)
	require.NoError(t, err)
	return svc, ob, st
}

func seedTable(repo *stubRepo, number int) *models.DiningTable {
	table := &models.DiningTable{
		ID:        uuid.New(),
		Number:    number,
		Capacity:  4,
		Status:    enums.TableStatusAvailable,
		OpenTotal: decimal.Zero,
	}
	repo.tables[table.ID] = table
	return table
}

func seedProduct(repo *stubRepo, price string) *models.Product {
	product := &models.Product{
		ID:       uuid.New(),
		Name:     "Margherita",
		Price:    decimal.RequireFromString(price),
		Stock:    20,
		MinStock: 5,
		IsActive: true,
	}
	repo.products[product.ID] = product
	return product
}

func TestCreateOrderHappyPath(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 7)
	product := seedProduct(repo, "12.50")
	svc, ob, _ := newTestService(t, repo)

	waiterID := uuid.New()
	order, err := svc.Create(context.Background(), CreateOrderInput{
		TableID:  table.ID,
		WaiterID: waiterID,
		Items:    []CreateOrderItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("25.00")))

	assert.Equal(t, enums.TableStatusOccupied, repo.tables[table.ID].Status)
	assert.True(t, repo.tables[table.ID].OpenTotal.Equal(order.Total))

	require.Len(t, ob.events, 1)
	assert.Equal(t, enums.EventOrderNew, ob.events[0].EventType)
	assert.ElementsMatch(t, []string{
		outbox.RoomKitchen,
		outbox.RoomCashier,
		outbox.UserRoom(waiterID),
	}, ob.events[0].Targets)
}

func TestCreateOrderLocksTableRow(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 7)
	product := seedProduct(repo, "12.50")
	svc, _, _ := newTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateOrderInput{
		TableID:  table.ID,
		WaiterID: uuid.New(),
		Items:    []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	// Creation reads the table through the locking finder so it serializes
	// against a concurrent merge releasing the same table.
	assert.Equal(t, []uuid.UUID{table.ID}, repo.locked)
}

func TestCreateOrderRejectsSecondOpenOrder(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 7)
	product := seedProduct(repo, "10.00")
	svc, _, _ := newTestService(t, repo)

	input := CreateOrderInput{
		TableID:  table.ID,
		WaiterID: uuid.New(),
		Items:    []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
	}
	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), input)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 3)
	svc, _, _ := newTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateOrderInput{
		TableID:  table.ID,
		WaiterID: uuid.New(),
		Items:    []CreateOrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 2)
	svc, _, _ := newTestService(t, repo)

	order := &models.Order{
		ID:      uuid.New(),
		TableID: table.ID,
		Status:  enums.OrderStatusPending,
		Total:   decimal.NewFromInt(10),
	}
	repo.orders[order.ID] = order

	_, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusDelivered, Actor{UserID: uuid.New()})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestUpdateStatusToCompletedRequiresPayment(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), enums.OrderStatusCompleted, Actor{UserID: uuid.New()})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestUpdateStatusHappyPath(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 2)
	svc, ob, _ := newTestService(t, repo)

	waiterID := uuid.New()
	order := &models.Order{
		ID:       uuid.New(),
		TableID:  table.ID,
		WaiterID: waiterID,
		Status:   enums.OrderStatusPending,
		Total:    decimal.NewFromInt(10),
	}
	repo.orders[order.ID] = order

	updated, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPreparing, Actor{UserID: uuid.New(), Role: "kitchen"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPreparing, updated.Status)

	require.Len(t, ob.events, 1)
	assert.Equal(t, enums.EventOrderStatusUpdated, ob.events[0].EventType)
	assert.ElementsMatch(t, []string{outbox.RoomKitchen, outbox.UserRoom(waiterID)}, ob.events[0].Targets)
}

func TestProcessPaymentSplitMismatch(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 4)
	svc, _, _ := newTestService(t, repo)

	order := &models.Order{
		ID:      uuid.New(),
		TableID: table.ID,
		Status:  enums.OrderStatusDelivered,
		Total:   decimal.RequireFromString("30.00"),
	}
	repo.orders[order.ID] = order

	cash := decimal.RequireFromString("10.00")
	credit := decimal.RequireFromString("19.99")
	_, err := svc.ProcessPayment(context.Background(), order.ID, PaymentInput{
		Method:       enums.PaymentMethodSplit,
		CashAmount:   &cash,
		CreditAmount: &credit,
	}, Actor{UserID: uuid.New(), Role: "cashier"})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestProcessPaymentCompletesAndConsumesStock(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 4)
	product := seedProduct(repo, "15.00")
	svc, ob, st := newTestService(t, repo)

	order := &models.Order{
		ID:       uuid.New(),
		TableID:  table.ID,
		WaiterID: uuid.New(),
		Status:   enums.OrderStatusDelivered,
		Total:    decimal.RequireFromString("30.00"),
		Items:    []models.OrderItem{{ProductID: product.ID, Quantity: 2, UnitPrice: product.Price}},
	}
	repo.orders[order.ID] = order
	repo.tables[table.ID].Status = enums.TableStatusOccupied

	updated, err := svc.ProcessPayment(context.Background(), order.ID, PaymentInput{
		Method: enums.PaymentMethodCash,
	}, Actor{UserID: uuid.New(), Role: "cashier"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, updated.Status)

	require.Len(t, st.consumed, 1)
	assert.Equal(t, product.ID, st.consumed[0].ProductID)
	assert.Equal(t, 2, st.consumed[0].Quantity)

	// Last open order gone, table freed.
	assert.Equal(t, enums.TableStatusAvailable, repo.tables[table.ID].Status)
	assert.True(t, repo.tables[table.ID].OpenTotal.IsZero())

	require.Len(t, ob.events, 1)
	assert.Equal(t, enums.EventOrderStatusUpdated, ob.events[0].EventType)
}

func TestProcessPaymentTwiceLosesRace(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 4)
	svc, _, _ := newTestService(t, repo)

	order := &models.Order{
		ID:      uuid.New(),
		TableID: table.ID,
		Status:  enums.OrderStatusDelivered,
		Total:   decimal.NewFromInt(20),
	}
	repo.orders[order.ID] = order

	_, err := svc.ProcessPayment(context.Background(), order.ID, PaymentInput{Method: enums.PaymentMethodCredit}, Actor{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.ProcessPayment(context.Background(), order.ID, PaymentInput{Method: enums.PaymentMethodCredit}, Actor{UserID: uuid.New()})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
	assert.Equal(t, "order already paid", appErr.Message())
}

func TestProcessPaymentEmitsLowStockAlerts(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 4)
	product := seedProduct(repo, "15.00")
	svc, ob, st := newTestService(t, repo)
	st.alerts = []stock.LowStockAlert{{ProductID: product.ID, Name: product.Name, Stock: 3, MinStock: 5}}

	order := &models.Order{
		ID:      uuid.New(),
		TableID: table.ID,
		Status:  enums.OrderStatusDelivered,
		Total:   decimal.NewFromInt(15),
		Items:   []models.OrderItem{{ProductID: product.ID, Quantity: 1, UnitPrice: product.Price}},
	}
	repo.orders[order.ID] = order

	_, err := svc.ProcessPayment(context.Background(), order.ID, PaymentInput{Method: enums.PaymentMethodCash}, Actor{UserID: uuid.New()})
	require.NoError(t, err)

	require.Len(t, ob.events, 2)
	assert.Equal(t, enums.EventLowStock, ob.events[1].EventType)
	assert.Equal(t, []string{outbox.RoomBroadcast}, ob.events[1].Targets)
}

func TestCancelOnlyFromEarlyStatuses(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 5)
	svc, _, _ := newTestService(t, repo)

	order := &models.Order{
		ID:      uuid.New(),
		TableID: table.ID,
		Status:  enums.OrderStatusReady,
		Total:   decimal.NewFromInt(20),
	}
	repo.orders[order.ID] = order

	_, err := svc.Cancel(context.Background(), order.ID, Actor{UserID: uuid.New()})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestCancelFreesTable(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 5)
	svc, ob, _ := newTestService(t, repo)
	repo.tables[table.ID].Status = enums.TableStatusOccupied

	order := &models.Order{
		ID:       uuid.New(),
		TableID:  table.ID,
		WaiterID: uuid.New(),
		Status:   enums.OrderStatusPending,
		Total:    decimal.NewFromInt(20),
	}
	repo.orders[order.ID] = order

	updated, err := svc.Cancel(context.Background(), order.ID, Actor{UserID: uuid.New(), Role: "waiter"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, updated.Status)
	assert.Equal(t, enums.TableStatusAvailable, repo.tables[table.ID].Status)

	require.Len(t, ob.events, 1)
	assert.Equal(t, enums.EventOrderCancelled, ob.events[0].EventType)
}

func TestClearTableOrdersRejectsOpenOrders(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 9)
	svc, _, _ := newTestService(t, repo)

	order := &models.Order{
		ID:      uuid.New(),
		TableID: table.ID,
		Status:  enums.OrderStatusPreparing,
		Total:   decimal.NewFromInt(12),
	}
	repo.orders[order.ID] = order

	err := svc.ClearTableOrders(context.Background(), table.Number, Actor{UserID: uuid.New(), Role: "admin"})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestClearTableOrdersResetsTable(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 9)
	svc, ob, _ := newTestService(t, repo)
	repo.tables[table.ID].Status = enums.TableStatusOccupied
	repo.tables[table.ID].OpenTotal = decimal.NewFromInt(50)

	err := svc.ClearTableOrders(context.Background(), table.Number, Actor{UserID: uuid.New(), Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, enums.TableStatusAvailable, repo.tables[table.ID].Status)
	assert.True(t, repo.tables[table.ID].OpenTotal.IsZero())

	require.Len(t, ob.events, 1)
	assert.Equal(t, enums.EventTableStatusUpdated, ob.events[0].EventType)
}
