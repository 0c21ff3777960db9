package tables

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

// Service defines the floor plan operations.
type Service interface {
	UpdateStatus(ctx context.Context, tableID uuid.UUID, newStatus enums.TableStatus, actor Actor) (*models.DiningTable, error)
	Merge(ctx context.Context, input MergeInput) (*MergeResult, error)
	UpdateNote(ctx context.Context, tableID uuid.UUID, note string, actor Actor) (*models.DiningTable, error)
	Create(ctx context.Context, input CreateTableInput) (*models.DiningTable, error)
	List(ctx context.Context) ([]models.DiningTable, error)
	CreateArea(ctx context.Context, name string) (*models.Area, error)
	ListAreas(ctx context.Context) ([]models.Area, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a tables service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tables repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

// UpdateStatus applies a manual status override. Occupancy is order-driven:
// a table cannot be marked occupied without an open order, nor freed while
// one exists.
func (s *service) UpdateStatus(ctx context.Context, tableID uuid.UUID, newStatus enums.TableStatus, actor Actor) (*models.DiningTable, error) {
	if tableID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table id required")
	}
	if !newStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid table status")
	}

	var updated *models.DiningTable
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		table, err := s.loadTableForUpdate(ctx, repo, tableID)
		if err != nil {
			return err
		}
		openCount, err := repo.CountOpenOrders(ctx, tableID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count open orders")
		}

		switch newStatus {
		case enums.TableStatusOccupied:
			if openCount == 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "table has no open order")
			}
		case enums.TableStatusAvailable:
			if openCount > 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "table still has open orders")
			}
		case enums.TableStatusReserved, enums.TableStatusMaintenance:
			if table.Status == enums.TableStatusOccupied {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "occupied table cannot be reserved or taken out of service")
			}
		}

		if err := repo.UpdateTable(ctx, tableID, map[string]any{"status": newStatus}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update table status")
		}
		table.Status = newStatus
		updated = table

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTableStatusUpdated,
			AggregateType: enums.AggregateTable,
			AggregateID:   table.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role},
			Targets:       []string{outbox.RoomCashier, outbox.RoomKitchen},
			Data:          TableStatusEvent{Table: snapshot(table)},
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Merge(ctx context.Context, input MergeInput) (*MergeResult, error) {
	if input.SourceID == uuid.Nil || input.TargetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source and target table ids required")
	}
	if input.SourceID == input.TargetID {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot merge a table into itself")
	}
	if !input.OperationType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid operation type")
	}

	var result *MergeResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// Lock both table rows before reading any order state, lowest id
		// first so concurrent merges cannot deadlock. Order creation takes
		// the same lock, which keeps reassignment and the final status
		// writes consistent with whatever committed before us.
		locked := map[uuid.UUID]*models.DiningTable{}
		for _, id := range lockOrder(input.SourceID, input.TargetID) {
			table, err := s.loadTableForUpdate(ctx, repo, id)
			if err != nil {
				return err
			}
			locked[id] = table
		}
		source := locked[input.SourceID]
		target := locked[input.TargetID]
		if source.Status == enums.TableStatusMaintenance || target.Status == enums.TableStatusMaintenance {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot merge a table under maintenance")
		}

		moved, err := repo.ReassignOpenOrders(ctx, source.ID, target.ID)
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_orders_open_table") {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "both tables have an open order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reassign open orders")
		}

		targetTotal, err := repo.SumOpenTotal(ctx, target.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum target orders")
		}

		if err := repo.UpdateTable(ctx, source.ID, map[string]any{
			"status":     enums.TableStatusAvailable,
			"open_total": decimal.Zero,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release source table")
		}

		targetUpdates := map[string]any{"open_total": targetTotal}
		openCount, err := repo.CountOpenOrders(ctx, target.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count target orders")
		}
		if openCount > 0 {
			targetUpdates["status"] = enums.TableStatusOccupied
		}
		if err := repo.UpdateTable(ctx, target.ID, targetUpdates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "occupy target table")
		}

		source, err = s.loadTable(ctx, repo, source.ID)
		if err != nil {
			return err
		}
		target, err = s.loadTable(ctx, repo, target.ID)
		if err != nil {
			return err
		}

		result = &MergeResult{SourceTable: snapshot(source), TargetTable: snapshot(target)}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTableStatusUpdated,
			AggregateType: enums.AggregateTable,
			AggregateID:   target.ID,
			Actor:         &outbox.ActorRef{UserID: input.Actor.UserID, Role: input.Actor.Role},
			Targets:       []string{outbox.RoomCashier, outbox.RoomKitchen},
			Data: TableMergeEvent{
				OperationType: input.OperationType,
				SourceTable:   result.SourceTable,
				TargetTable:   result.TargetTable,
				MovedOrders:   moved,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) UpdateNote(ctx context.Context, tableID uuid.UUID, note string, actor Actor) (*models.DiningTable, error) {
	if tableID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table id required")
	}

	var updated *models.DiningTable
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		table, err := s.loadTable(ctx, repo, tableID)
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(note)
		var value *string
		if trimmed != "" {
			value = &trimmed
		}
		if err := repo.UpdateTable(ctx, tableID, map[string]any{"note": value}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update table note")
		}
		table.Note = value
		updated = table

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTableStatusUpdated,
			AggregateType: enums.AggregateTable,
			AggregateID:   table.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role},
			Targets:       []string{outbox.RoomCashier},
			Data:          TableStatusEvent{Table: snapshot(table)},
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Create(ctx context.Context, input CreateTableInput) (*models.DiningTable, error) {
	if input.Number <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table number must be positive")
	}
	if input.Capacity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "capacity must be positive")
	}

	table := &models.DiningTable{
		Number:   input.Number,
		Capacity: input.Capacity,
		AreaID:   input.AreaID,
		Status:   enums.TableStatusAvailable,
	}
	created, err := s.repo.CreateTable(ctx, table)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_dining_tables_number") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "table number already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create table")
	}
	return created, nil
}

func (s *service) List(ctx context.Context) ([]models.DiningTable, error) {
	rows, err := s.repo.ListTables(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tables")
	}
	return rows, nil
}

func (s *service) CreateArea(ctx context.Context, name string) (*models.Area, error) {
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "area name required")
	}
	area := &models.Area{Name: strings.TrimSpace(name)}
	created, err := s.repo.CreateArea(ctx, area)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create area")
	}
	return created, nil
}

func (s *service) ListAreas(ctx context.Context) ([]models.Area, error) {
	rows, err := s.repo.ListAreas(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list areas")
	}
	return rows, nil
}

func (s *service) loadTable(ctx context.Context, repo Repository, tableID uuid.UUID) (*models.DiningTable, error) {
	table, err := repo.FindTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
	}
	return table, nil
}

func (s *service) loadTableForUpdate(ctx context.Context, repo Repository, tableID uuid.UUID) (*models.DiningTable, error) {
	table, err := repo.FindTableForUpdate(ctx, tableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock table")
	}
	return table, nil
}

// lockOrder returns the two ids lowest first.
func lockOrder(a, b uuid.UUID) []uuid.UUID {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return []uuid.UUID{a, b}
	}
	return []uuid.UUID{b, a}
}

func snapshot(table *models.DiningTable) TableSnapshot {
	return TableSnapshot{
		TableID:     table.ID,
		TableNumber: table.Number,
		Status:      table.Status,
		OpenTotal:   table.OpenTotal,
		Note:        table.Note,
	}
}
