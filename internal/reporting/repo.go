package reporting

import (
	"context"

	"gorm.io/gorm"
)

// Repository runs the read-only report aggregations.
type Repository interface {
	DailySales(ctx context.Context, filter RangeFilter) ([]DailySales, error)
	TopProducts(ctx context.Context, filter RangeFilter, limit int) ([]TopProduct, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reporting repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) DailySales(ctx context.Context, filter RangeFilter) ([]DailySales, error) {
	query := r.db.WithContext(ctx).
		Table("orders").
		Select(`date_trunc('day', paid_at) AS day,
			COUNT(*) AS order_count,
			COALESCE(SUM(total), 0) AS revenue,
			COALESCE(SUM(total) FILTER (WHERE payment_method = 'cash'), 0) AS cash_revenue,
			COALESCE(SUM(total) FILTER (WHERE payment_method = 'credit'), 0) AS credit_revenue,
			COALESCE(SUM(total) FILTER (WHERE payment_method = 'split'), 0) AS split_revenue`).
		Where("status = ?", "completed").
		Where("paid_at IS NOT NULL")
	query = applyRange(query, "paid_at", filter)

	var rows []DailySales
	err := query.
		Group("date_trunc('day', paid_at)").
		Order("day DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) TopProducts(ctx context.Context, filter RangeFilter, limit int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = 10
	}
	query := r.db.WithContext(ctx).
		Table("order_items").
		Select(`order_items.product_id AS product_id,
			products.name AS name,
			SUM(order_items.quantity) AS quantity,
			COALESCE(SUM(order_items.quantity * order_items.unit_price), 0) AS revenue`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("orders.status = ?", "completed")
	query = applyRange(query, "orders.paid_at", filter)

	var rows []TopProduct
	err := query.
		Group("order_items.product_id, products.name").
		Order("quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func applyRange(query *gorm.DB, column string, filter RangeFilter) *gorm.DB {
	if !filter.From.IsZero() {
		query = query.Where(column+" >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where(column+" < ?", filter.To)
	}
	return query
}
