package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/comandapos/comanda-backend/pkg/errors"
)

type stubRepo struct {
	daily []DailySales
	top   []TopProduct
}

func (s *stubRepo) DailySales(ctx context.Context, filter RangeFilter) ([]DailySales, error) {
	return s.daily, nil
}

func (s *stubRepo) TopProducts(ctx context.Context, filter RangeFilter, limit int) ([]TopProduct, error) {
	return s.top, nil
}

func TestDailySalesRejectsInvertedRange(t *testing.T) {
	svc, err := NewService(&stubRepo{})
	require.NoError(t, err)

	now := time.Now()
	_, err = svc.DailySales(context.Background(), RangeFilter{From: now, To: now.Add(-time.Hour)})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestTopProductsRejectsExcessiveLimit(t *testing.T) {
	svc, err := NewService(&stubRepo{})
	require.NoError(t, err)

	_, err = svc.TopProducts(context.Background(), RangeFilter{}, 500)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestReportsPassThrough(t *testing.T) {
	repo := &stubRepo{
		daily: []DailySales{{OrderCount: 3}},
		top:   []TopProduct{{Name: "Margherita", Quantity: 12}},
	}
	svc, err := NewService(repo)
	require.NoError(t, err)

	daily, err := svc.DailySales(context.Background(), RangeFilter{})
	require.NoError(t, err)
	assert.Len(t, daily, 1)

	top, err := svc.TopProducts(context.Background(), RangeFilter{}, 0)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}
