package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/comandapos/comanda-backend/internal/stock"
	dbpkg "github.com/comandapos/comanda-backend/pkg/db"
	"github.com/comandapos/comanda-backend/pkg/db/models"
	"github.com/comandapos/comanda-backend/pkg/enums"
	pkgerrors "github.com/comandapos/comanda-backend/pkg/errors"
	"github.com/comandapos/comanda-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// StockConsumer depletes product stock when an order completes.
type StockConsumer interface {
	ConsumeForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, items []stock.ConsumeItem) ([]stock.LowStockAlert, error)
}

// Service defines the order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus enums.OrderStatus, actor Actor) (*models.Order, error)
	ProcessPayment(ctx context.Context, orderID uuid.UUID, input PaymentInput, actor Actor) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	ClearTableOrders(ctx context.Context, tableNumber int, actor Actor) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filters OrderFilters) ([]models.Order, error)
	ListOpenByTable(ctx context.Context, tableID uuid.UUID) ([]models.Order, error)
	ListByWaiter(ctx context.Context, waiterID uuid.UUID) ([]models.Order, error)
	ListKitchenQueue(ctx context.Context) ([]models.Order, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	stock  StockConsumer
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, stock StockConsumer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock consumer required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox, stock: stock}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.TableID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table id required")
	}
	if input.WaiterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must have at least one item")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// Row lock on the table serializes creation against a concurrent
		// merge, so the merge cannot release a table this order lands on.
		table, err := repo.FindTableForUpdate(ctx, input.TableID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock table")
		}

		if _, err := repo.FindOpenOrderByTable(ctx, table.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "table already has an open order")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open orders")
		}

		items, total, err := s.buildItems(ctx, repo, input.Items)
		if err != nil {
			return err
		}

		order := &models.Order{
			TableID:  table.ID,
			WaiterID: input.WaiterID,
			Status:   enums.OrderStatusPending,
			Total:    total,
			Items:    items,
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_orders_open_table") {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "table already has an open order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		openTotal, err := repo.SumOpenTotalByTable(ctx, table.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum open orders")
		}
		if err := repo.UpdateTable(ctx, table.ID, map[string]any{
			"status":     enums.TableStatusOccupied,
			"open_total": openTotal,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "occupy table")
		}

		created = order
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderNew,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.WaiterID, Role: enums.StaffRoleWaiter.String()},
			Targets: []string{
				outbox.RoomKitchen,
				outbox.RoomCashier,
				outbox.UserRoom(input.WaiterID),
			},
			Data: orderEvent(order, table.Number, true),
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateStatus moves an order along pending→preparing→ready→delivered.
// Completion carries payment data and must go through ProcessPayment;
// cancellation goes through Cancel.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus enums.OrderStatus, actor Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !newStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if newStatus == enums.OrderStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "completing an order requires payment processing")
	}
	if newStatus == enums.OrderStatusCancelled {
		return s.Cancel(ctx, orderID, actor)
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(newStatus) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invalid transition").
				WithDetails(map[string]any{
					"from": order.Status.String(),
					"to":   newStatus.String(),
				})
		}

		affected, err := repo.UpdateOrderGuarded(ctx, orderID, []enums.OrderStatus{order.Status}, map[string]any{
			"status": newStatus,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently")
		}

		order.Status = newStatus
		updated = order

		table, err := repo.FindTable(ctx, order.TableID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusUpdated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role},
			Targets: []string{
				outbox.RoomKitchen,
				outbox.UserRoom(order.WaiterID),
			},
			Data: orderEvent(order, table.Number, false),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) ProcessPayment(ctx context.Context, orderID uuid.UUID, input PaymentInput, actor Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.Status == enums.OrderStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already paid")
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
		}

		updates := map[string]any{
			"status":         enums.OrderStatusCompleted,
			"payment_method": input.Method,
			"paid_at":        time.Now(),
		}
		if input.Method == enums.PaymentMethodSplit {
			if input.CashAmount == nil || input.CreditAmount == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "split payment requires cash and credit amounts")
			}
			if input.CashAmount.IsNegative() || input.CreditAmount.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "split amounts cannot be negative")
			}
			if !input.CashAmount.Add(*input.CreditAmount).Equal(order.Total) {
				return pkgerrors.New(pkgerrors.CodeValidation, "split amounts must equal the order total").
					WithDetails(map[string]any{
						"total":  order.Total.String(),
						"cash":   input.CashAmount.String(),
						"credit": input.CreditAmount.String(),
					})
			}
			updates["cash_amount"] = *input.CashAmount
			updates["credit_amount"] = *input.CreditAmount
		}

		open := []enums.OrderStatus{
			enums.OrderStatusPending,
			enums.OrderStatusPreparing,
			enums.OrderStatusReady,
			enums.OrderStatusDelivered,
		}
		affected, err := repo.UpdateOrderGuarded(ctx, orderID, open, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order")
		}
		if affected == 0 {
			// Lost the race; the winner already settled or cancelled it.
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already paid")
		}

		consume := make([]stock.ConsumeItem, 0, len(order.Items))
		for _, item := range order.Items {
			consume = append(consume, stock.ConsumeItem{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		alerts, err := s.stock.ConsumeForOrder(ctx, tx, order.ID, consume)
		if err != nil {
			return err
		}

		table, err := s.settleTable(ctx, repo, order.TableID)
		if err != nil {
			return err
		}

		order.Status = enums.OrderStatusCompleted
		method := input.Method
		order.PaymentMethod = &method
		updated = order

		actorRef := &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusUpdated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef,
			Targets: []string{
				outbox.RoomKitchen,
				outbox.RoomCashier,
				outbox.UserRoom(order.WaiterID),
			},
			Data: orderEvent(order, table.Number, false),
		}); err != nil {
			return err
		}

		for _, alert := range alerts {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventLowStock,
				AggregateType: enums.AggregateProduct,
				AggregateID:   alert.ProductID,
				Actor:         actorRef,
				Targets:       []string{outbox.RoomBroadcast},
				Data:          alert,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusPreparing {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending or preparing orders can be cancelled").
				WithDetails(map[string]any{"status": order.Status.String()})
		}

		affected, err := repo.UpdateOrderGuarded(ctx, orderID,
			[]enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusPreparing},
			map[string]any{
				"status":       enums.OrderStatusCancelled,
				"cancelled_at": time.Now(),
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently")
		}

		table, err := s.settleTable(ctx, repo, order.TableID)
		if err != nil {
			return err
		}

		order.Status = enums.OrderStatusCancelled
		updated = order
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role},
			Targets: []string{
				outbox.RoomKitchen,
				outbox.RoomCashier,
				outbox.UserRoom(order.WaiterID),
			},
			Data: orderEvent(order, table.Number, false),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) ClearTableOrders(ctx context.Context, tableNumber int, actor Actor) error {
	if tableNumber <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "table number required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		table, err := repo.FindTableByNumber(ctx, tableNumber)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
		}

		openCount, err := repo.CountOpenByTable(ctx, table.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count open orders")
		}
		if openCount > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "table still has open orders").
				WithDetails(map[string]any{"openOrders": openCount})
		}

		if err := repo.UpdateTable(ctx, table.ID, map[string]any{
			"status":     enums.TableStatusAvailable,
			"open_total": decimal.Zero,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset table")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTableStatusUpdated,
			AggregateType: enums.AggregateTable,
			AggregateID:   table.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role},
			Targets:       []string{outbox.RoomCashier, outbox.RoomKitchen},
			Data: TableClearedEvent{
				TableID:     table.ID,
				TableNumber: table.Number,
				Status:      enums.TableStatusAvailable,
				OpenTotal:   decimal.Zero,
			},
		})
	})
}

func (s *service) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.loadOrder(ctx, s.repo, orderID)
}

func (s *service) List(ctx context.Context, filters OrderFilters) ([]models.Order, error) {
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

func (s *service) ListOpenByTable(ctx context.Context, tableID uuid.UUID) ([]models.Order, error) {
	rows, err := s.repo.ListOpenByTable(ctx, tableID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open orders")
	}
	return rows, nil
}

func (s *service) ListByWaiter(ctx context.Context, waiterID uuid.UUID) ([]models.Order, error) {
	rows, err := s.repo.ListByWaiter(ctx, waiterID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list waiter orders")
	}
	return rows, nil
}

func (s *service) ListKitchenQueue(ctx context.Context) ([]models.Order, error) {
	rows, err := s.repo.ListKitchenQueue(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list kitchen queue")
	}
	return rows, nil
}

func (s *service) loadOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) buildItems(ctx context.Context, repo Repository, inputs []CreateOrderItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, item := range inputs {
		ids = append(ids, item.ProductID)
	}
	products, err := repo.FindActiveProducts(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	items := make([]models.OrderItem, 0, len(inputs))
	total := decimal.Zero
	for _, input := range inputs {
		product, ok := byID[input.ProductID]
		if !ok {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "product not found or inactive").
				WithDetails(map[string]any{"productId": input.ProductID.String()})
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Quantity:  input.Quantity,
			UnitPrice: product.Price,
			Note:      input.Note,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(input.Quantity))))
	}
	return items, total, nil
}

// settleTable recomputes the table's cached state after an order leaves the
// open set; the last closed order frees the table.
func (s *service) settleTable(ctx context.Context, repo Repository, tableID uuid.UUID) (*models.DiningTable, error) {
	openCount, err := repo.CountOpenByTable(ctx, tableID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count open orders")
	}
	openTotal, err := repo.SumOpenTotalByTable(ctx, tableID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum open orders")
	}

	updates := map[string]any{"open_total": openTotal}
	if openCount == 0 {
		updates["status"] = enums.TableStatusAvailable
	}
	if err := repo.UpdateTable(ctx, tableID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update table")
	}
	table, err := repo.FindTable(ctx, tableID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload table")
	}
	return table, nil
}

func orderEvent(order *models.Order, tableNumber int, includeItems bool) OrderEvent {
	event := OrderEvent{
		OrderID:       order.ID,
		TableID:       order.TableID,
		TableNumber:   tableNumber,
		WaiterID:      order.WaiterID,
		Status:        order.Status,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
	}
	if includeItems {
		event.Items = make([]OrderItemEvent, 0, len(order.Items))
		for _, item := range order.Items {
			event.Items = append(event.Items, OrderItemEvent{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Note:      item.Note,
			})
		}
	}
	return event
}
