package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductFilters describe the inputs supported by the product list.
type ProductFilters struct {
	CategoryID *uuid.UUID
	ActiveOnly bool
}

// CreateProductInput carries the fields accepted when adding a product.
type CreateProductInput struct {
	CategoryID uuid.UUID
	Name       string
	Price      decimal.Decimal
	Stock      int
	MinStock   int
}

// UpdateProductInput carries the optional fields of a product patch.
type UpdateProductInput struct {
	Name     *string
	Price    *decimal.Decimal
	MinStock *int
	IsActive *bool
}
