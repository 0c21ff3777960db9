package billrequests

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/comandapos/comanda-backend/pkg/db/models"
	"github.com/comandapos/comanda-backend/pkg/enums"
)

// Repository defines persistence operations for bill requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.BillRequest) (*models.BillRequest, error)
	Find(ctx context.Context, id uuid.UUID) (*models.BillRequest, error)
	FindActiveByTable(ctx context.Context, tableID uuid.UUID) (*models.BillRequest, error)
	FindActiveByWaiter(ctx context.Context, waiterID uuid.UUID) ([]models.BillRequest, error)
	ListActive(ctx context.Context) ([]models.BillRequest, error)
	// UpdateGuarded applies updates only while the request status is one of
	// from; RowsAffected decides races.
	UpdateGuarded(ctx context.Context, id uuid.UUID, from []enums.BillRequestStatus, updates map[string]any) (int64, error)
	FindTable(ctx context.Context, tableID uuid.UUID) (*models.DiningTable, error)
	CountOpenOrders(ctx context.Context, tableID uuid.UUID) (int64, error)
}
