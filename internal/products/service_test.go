package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/comandapos/comanda-backend/pkg/db/models"
	pkgerrors "github.com/comandapos/comanda-backend/pkg/errors"
)

type stubRepo struct {
	Repository
	products    map[uuid.UUID]*models.Product
	createErr   error
	lastUpdates map[string]any
}

func newStubRepo() *stubRepo {
	return &stubRepo{products: map[uuid.UUID]*models.Product{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	s.products[product.ID] = product
	return product, nil
}

func (s *stubRepo) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (s *stubRepo) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.lastUpdates = updates
	return nil
}

func TestCreateProductValidation(t *testing.T) {
	svc, err := NewService(newStubRepo())
	require.NoError(t, err)

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{"missing name", CreateProductInput{CategoryID: uuid.New(), Price: decimal.NewFromInt(5)}},
		{"missing category", CreateProductInput{Name: "Espresso", Price: decimal.NewFromInt(5)}},
		{"negative price", CreateProductInput{Name: "Espresso", CategoryID: uuid.New(), Price: decimal.NewFromInt(-1)}},
		{"negative stock", CreateProductInput{Name: "Espresso", CategoryID: uuid.New(), Price: decimal.NewFromInt(5), Stock: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), tc.input)
			require.Error(t, err)
			appErr := pkgerrors.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
		})
	}
}

func TestCreateProductDefaultsActive(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	created, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:       "  Espresso ",
		CategoryID: uuid.New(),
		Price:      decimal.RequireFromString("3.50"),
		Stock:      10,
		MinStock:   2,
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.Equal(t, "Espresso", created.Name)
}

func TestUpdateProductNotFound(t *testing.T) {
	svc, err := NewService(newStubRepo())
	require.NoError(t, err)

	name := "Latte"
	_, err = svc.UpdateProduct(context.Background(), uuid.New(), UpdateProductInput{Name: &name})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestUpdateProductRejectsEmptyPatch(t *testing.T) {
	svc, err := NewService(newStubRepo())
	require.NoError(t, err)

	_, err = svc.UpdateProduct(context.Background(), uuid.New(), UpdateProductInput{})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestUpdateProductBuildsPatch(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	product := &models.Product{ID: uuid.New(), Name: "Latte", Price: decimal.NewFromInt(4), IsActive: true}
	repo.products[product.ID] = product

	minStock := 5
	active := false
	_, err = svc.UpdateProduct(context.Background(), product.ID, UpdateProductInput{
		MinStock: &minStock,
		IsActive: &active,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, repo.lastUpdates["min_stock"])
	assert.Equal(t, false, repo.lastUpdates["is_active"])
}
