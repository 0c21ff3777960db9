package billrequests

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/comandapos/comanda-backend/pkg/db/models"
	"github.com/comandapos/comanda-backend/pkg/enums"
)

var activeStatuses = []enums.BillRequestStatus{
	enums.BillRequestStatusPending,
	enums.BillRequestStatusInProgress,
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a bill request repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.BillRequest) (*models.BillRequest, error) {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.BillRequest, error) {
	var request models.BillRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) FindActiveByTable(ctx context.Context, tableID uuid.UUID) (*models.BillRequest, error) {
	var request models.BillRequest
	err := r.db.WithContext(ctx).
		Where("table_id = ?", tableID).
		Where("status IN ?", activeStatuses).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) FindActiveByWaiter(ctx context.Context, waiterID uuid.UUID) ([]models.BillRequest, error) {
	var rows []models.BillRequest
	err := r.db.WithContext(ctx).
		Where("waiter_id = ?", waiterID).
		Where("status IN ?", activeStatuses).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListActive(ctx context.Context) ([]models.BillRequest, error) {
	var rows []models.BillRequest
	err := r.db.WithContext(ctx).
		Where("status IN ?", activeStatuses).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateGuarded(ctx context.Context, id uuid.UUID, from []enums.BillRequestStatus, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.BillRequest{}).
		Where("id = ?", id).
		Where("status IN ?", from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) FindTable(ctx context.Context, tableID uuid.UUID) (*models.DiningTable, error) {
	var table models.DiningTable
	err := r.db.WithContext(ctx).
		Where("id = ?", tableID).
		First(&table).Error
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *repository) CountOpenOrders(ctx context.Context, tableID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("table_id = ?", tableID).
		Where("status NOT IN ?", []enums.OrderStatus{enums.OrderStatusCompleted, enums.OrderStatusCancelled}).
		Count(&n).Error
	return n, err
}
