package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

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

// Service defines the stock ledger operations.
type Service interface {
	Adjust(ctx context.Context, input AdjustInput) (*models.Product, error)
	// ConsumeForOrder depletes stock for a completed order inside the caller's
	// transaction. It returns the products that crossed their reorder threshold.
	ConsumeForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, items []ConsumeItem) ([]LowStockAlert, error)
	Reverse(ctx context.Context, stockLogID uuid.UUID, actorID uuid.UUID, actorRole string) (*models.StockLog, error)
	History(ctx context.Context, productID uuid.UUID) ([]models.StockLog, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a stock ledger service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.Product, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock movement type")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		before, err := repo.FindProduct(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		delta := input.Type.Sign() * input.Quantity
		affected, err := repo.AdjustProductStock(ctx, input.ProductID, delta)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust product stock")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
				WithDetails(map[string]any{
					"productId": input.ProductID.String(),
					"stock":     before.Stock,
					"requested": input.Quantity,
				})
		}

		log := &models.StockLog{
			ProductID:  input.ProductID,
			Quantity:   input.Quantity,
			Type:       input.Type,
			SupplierID: input.SupplierID,
		}
		if _, err := repo.CreateLog(ctx, log); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock log")
		}

		after, err := repo.FindProduct(ctx, input.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
		}
		updated = after

		actor := &outbox.ActorRef{UserID: input.ActorID, Role: input.ActorRole}
		event := StockUpdatedEvent{
			ProductID:  after.ID,
			Name:       after.Name,
			Stock:      after.Stock,
			MinStock:   after.MinStock,
			Quantity:   input.Quantity,
			Type:       input.Type,
			StockLogID: log.ID,
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockStatusUpdated,
			AggregateType: enums.AggregateProduct,
			AggregateID:   after.ID,
			Actor:         actor,
			Targets:       []string{outbox.RoomCashier},
			Data:          event,
		}); err != nil {
			return err
		}

		if crossedLowStock(before.Stock, after.Stock, after.MinStock) {
			alert := LowStockAlert{
				ProductID: after.ID,
				Name:      after.Name,
				Stock:     after.Stock,
				MinStock:  after.MinStock,
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventLowStock,
				AggregateType: enums.AggregateProduct,
				AggregateID:   after.ID,
				Actor:         actor,
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

func (s *service) ConsumeForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, items []ConsumeItem) ([]LowStockAlert, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	repo := s.repo.WithTx(tx)
	var alerts []LowStockAlert
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "order item quantity must be positive")
		}

		before, err := repo.FindProduct(ctx, item.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product for fulfillment")
		}

		affected, err := repo.AdjustProductStock(ctx, item.ProductID, -item.Quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deplete product stock")
		}
		if affected == 0 {
			// Fulfillment must never outrun the ledger; a failed guard here
			// means the cached stock diverged from committed reality.
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock invariant violated during fulfillment").
				WithDetails(map[string]any{
					"productId": item.ProductID.String(),
					"orderId":   orderID.String(),
					"requested": item.Quantity,
				})
		}

		oid := orderID
		log := &models.StockLog{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Type:      enums.StockMovementOut,
			OrderID:   &oid,
		}
		if _, err := repo.CreateLog(ctx, log); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append fulfillment stock log")
		}

		afterStock := before.Stock - item.Quantity
		if crossedLowStock(before.Stock, afterStock, before.MinStock) {
			alerts = append(alerts, LowStockAlert{
				ProductID: before.ID,
				Name:      before.Name,
				Stock:     afterStock,
				MinStock:  before.MinStock,
			})
		}
	}
	return alerts, nil
}

func (s *service) Reverse(ctx context.Context, stockLogID uuid.UUID, actorID uuid.UUID, actorRole string) (*models.StockLog, error) {
	if stockLogID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock log id required")
	}
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var reversal *models.StockLog
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		original, err := repo.FindLog(ctx, stockLogID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "stock log not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock log")
		}
		// Reversal rows carry a back-reference, so both "already reversed"
		// and "reversing a reversal" land here.
		if original.ReversedBy != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "stock log already reversed")
		}

		delta := -original.Type.Sign() * original.Quantity
		affected, err := repo.AdjustProductStock(ctx, original.ProductID, delta)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply reversal delta")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "reversal would make stock negative")
		}

		inverse := &models.StockLog{
			ProductID:  original.ProductID,
			Quantity:   original.Quantity,
			Type:       inverseMovement(original.Type),
			SupplierID: original.SupplierID,
			OrderID:    original.OrderID,
			ReversedBy: &original.ID,
		}
		if _, err := repo.CreateLog(ctx, inverse); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append reversal log")
		}
		if err := repo.MarkLogReversed(ctx, original.ID, inverse.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark log reversed")
		}
		reversal = inverse

		after, err := repo.FindProduct(ctx, original.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockStatusUpdated,
			AggregateType: enums.AggregateProduct,
			AggregateID:   after.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: actorRole},
			Targets:       []string{outbox.RoomCashier},
			Data: StockUpdatedEvent{
				ProductID:  after.ID,
				Name:       after.Name,
				Stock:      after.Stock,
				MinStock:   after.MinStock,
				Quantity:   original.Quantity,
				Type:       inverse.Type,
				StockLogID: inverse.ID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return reversal, nil
}

func (s *service) History(ctx context.Context, productID uuid.UUID) ([]models.StockLog, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	rows, err := s.repo.History(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock history")
	}
	return rows, nil
}

func crossedLowStock(before, after, minStock int) bool {
	return before > minStock && after <= minStock
}

func inverseMovement(t enums.StockMovementType) enums.StockMovementType {
	if t == enums.StockMovementIn {
		return enums.StockMovementOut
	}
	return enums.StockMovementIn
}
