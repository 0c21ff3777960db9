package billrequests

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

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

// nextBillRequestStatuses describes the forward edges of the request state
// machine. Terminal states have no edges.
var nextBillRequestStatuses = map[enums.BillRequestStatus][]enums.BillRequestStatus{
	enums.BillRequestStatusPending: {
		enums.BillRequestStatusInProgress,
		enums.BillRequestStatusCompleted,
		enums.BillRequestStatusCancelled,
	},
	enums.BillRequestStatusInProgress: {
		enums.BillRequestStatusCompleted,
		enums.BillRequestStatusCancelled,
	},
}

// Service defines the bill request workflow operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.BillRequest, error)
	Update(ctx context.Context, requestID uuid.UUID, status enums.BillRequestStatus, actor Actor, note *string) (*models.BillRequest, error)
	ActiveForTable(ctx context.Context, tableID uuid.UUID) (*models.BillRequest, error)
	ActiveForWaiter(ctx context.Context, waiterID uuid.UUID) ([]models.BillRequest, error)
	ListActive(ctx context.Context) ([]models.BillRequest, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a bill request service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bill requests repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.BillRequest, error) {
	if input.TableID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table id required")
	}
	if input.WaiterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var created *models.BillRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		table, err := repo.FindTable(ctx, input.TableID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
		}

		openCount, err := repo.CountOpenOrders(ctx, table.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count open orders")
		}
		if openCount == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "table has no open order to settle")
		}

		if _, err := repo.FindActiveByTable(ctx, table.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "table already has an active bill request")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active requests")
		}

		request := &models.BillRequest{
			TableID:  table.ID,
			WaiterID: input.WaiterID,
			Status:   enums.BillRequestStatusPending,
			Note:     input.Note,
		}
		if _, err := repo.Create(ctx, request); err != nil {
			// The partial unique index settles the duplicate race.
			if dbpkg.IsUniqueViolation(err, "ux_bill_requests_active_table") {
				return pkgerrors.New(pkgerrors.CodeConflict, "table already has an active bill request")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bill request")
		}
		created = request

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBillRequestNew,
			AggregateType: enums.AggregateBillRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: input.WaiterID, Role: enums.StaffRoleWaiter.String()},
			Targets:       []string{outbox.RoomCashier},
			Data:          billRequestEvent(request, table.Number),
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, requestID uuid.UUID, status enums.BillRequestStatus, actor Actor, note *string) (*models.BillRequest, error) {
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid bill request status")
	}
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var updated *models.BillRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := repo.Find(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "bill request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bill request")
		}
		if !canTransition(request.Status, status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invalid transition").
				WithDetails(map[string]any{
					"from": request.Status.String(),
					"to":   status.String(),
				})
		}

		updates := map[string]any{"status": status}
		if note != nil {
			updates["note"] = note
		}
		if status.IsTerminal() {
			updates["resolved_by"] = actor.UserID
		}
		affected, err := repo.UpdateGuarded(ctx, requestID, []enums.BillRequestStatus{request.Status}, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update bill request")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "bill request changed concurrently")
		}

		request.Status = status
		if note != nil {
			request.Note = note
		}
		if status.IsTerminal() {
			resolved := actor.UserID
			request.ResolvedBy = &resolved
		}
		updated = request

		table, err := repo.FindTable(ctx, request.TableID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBillRequestUpdated,
			AggregateType: enums.AggregateBillRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role},
			Targets: []string{
				outbox.RoomCashier,
				outbox.UserRoom(request.WaiterID),
			},
			Data: billRequestEvent(request, table.Number),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) ActiveForTable(ctx context.Context, tableID uuid.UUID) (*models.BillRequest, error) {
	if tableID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table id required")
	}
	request, err := s.repo.FindActiveByTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active bill request for table")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active bill request")
	}
	return request, nil
}

func (s *service) ActiveForWaiter(ctx context.Context, waiterID uuid.UUID) ([]models.BillRequest, error) {
	if waiterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "waiter id required")
	}
	rows, err := s.repo.FindActiveByWaiter(ctx, waiterID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list waiter bill requests")
	}
	return rows, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.BillRequest, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active bill requests")
	}
	return rows, nil
}

func canTransition(from, to enums.BillRequestStatus) bool {
	for _, next := range nextBillRequestStatuses[from] {
		if next == to {
			return true
		}
	}
	return false
}

func billRequestEvent(request *models.BillRequest, tableNumber int) BillRequestEvent {
	return BillRequestEvent{
		RequestID:   request.ID,
		TableID:     request.TableID,
		TableNumber: tableNumber,
		WaiterID:    request.WaiterID,
		Status:      request.Status,
		Note:        request.Note,
		ResolvedBy:  request.ResolvedBy,
	}
}
