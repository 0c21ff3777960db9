package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/comandapos/comanda-backend/pkg/db/models"
)

// Repository defines persistence operations for the stock ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateLog(ctx context.Context, log *models.StockLog) (*models.StockLog, error)
	FindLog(ctx context.Context, id uuid.UUID) (*models.StockLog, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// AdjustProductStock applies a signed delta guarded against going negative.
	// The returned count is the number of rows the guard let through.
	AdjustProductStock(ctx context.Context, productID uuid.UUID, delta int) (int64, error)
	MarkLogReversed(ctx context.Context, originalID, reversalID uuid.UUID) error
	History(ctx context.Context, productID uuid.UUID) ([]models.StockLog, error)
}
