package reporting

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DailySales is one day's rollup over completed orders.
type DailySales struct {
	Day           time.Time       `json:"day"`
	OrderCount    int64           `json:"orderCount"`
	Revenue       decimal.Decimal `json:"revenue"`
	CashRevenue   decimal.Decimal `json:"cashRevenue"`
	CreditRevenue decimal.Decimal `json:"creditRevenue"`
	SplitRevenue  decimal.Decimal `json:"splitRevenue"`
}

// TopProduct is one row of the quantity ranking.
type TopProduct struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// RangeFilter bounds a report query; zero values mean unbounded.
type RangeFilter struct {
	From time.Time
	To   time.Time
}
