package reporting

import (
	"context"
	"fmt"

	pkgerrors "github.com/comandapos/comanda-backend/pkg/errors"
)

// Service exposes the read-only sales rollups.
type Service interface {
	DailySales(ctx context.Context, filter RangeFilter) ([]DailySales, error)
	TopProducts(ctx context.Context, filter RangeFilter, limit int) ([]TopProduct, error)
}

type service struct {
	repo Repository
}

// NewService builds a reporting service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reporting repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) DailySales(ctx context.Context, filter RangeFilter) ([]DailySales, error) {
	if err := validateRange(filter); err != nil {
		return nil, err
	}
	rows, err := s.repo.DailySales(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate daily sales")
	}
	return rows, nil
}

func (s *service) TopProducts(ctx context.Context, filter RangeFilter, limit int) ([]TopProduct, error) {
	if err := validateRange(filter); err != nil {
		return nil, err
	}
	if limit < 0 || limit > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "limit must be between 0 and 100")
	}
	rows, err := s.repo.TopProducts(ctx, filter, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate top products")
	}
	return rows, nil
}

func validateRange(filter RangeFilter) error {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return pkgerrors.New(pkgerrors.CodeValidation, "range end precedes range start")
	}
	return nil
}
