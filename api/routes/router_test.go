package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/comandapos/comanda-backend/internal/billrequests"
	"github.com/comandapos/comanda-backend/internal/orders"
	"github.com/comandapos/comanda-backend/internal/products"
	"github.com/comandapos/comanda-backend/internal/reporting"
	"github.com/comandapos/comanda-backend/internal/stock"
	"github.com/comandapos/comanda-backend/internal/tables"
	pkgAuth "github.com/comandapos/comanda-backend/pkg/auth"
	"github.com/comandapos/comanda-backend/pkg/config"
	"github.com/comandapos/comanda-backend/pkg/db/models"
	"github.com/comandapos/comanda-backend/pkg/enums"
	"github.com/comandapos/comanda-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubOrders struct{}

func (stubOrders) Create(context.Context, orders.CreateOrderInput) (*models.Order, error) {
	return &models.Order{}, nil
}
func (stubOrders) UpdateStatus(context.Context, uuid.UUID, enums.OrderStatus, orders.Actor) (*models.Order, error) {
	return &models.Order{}, nil
}
func (stubOrders) ProcessPayment(context.Context, uuid.UUID, orders.PaymentInput, orders.Actor) (*models.Order, error) {
	return &models.Order{}, nil
}
func (stubOrders) Cancel(context.Context, uuid.UUID, orders.Actor) (*models.Order, error) {
	return &models.Order{}, nil
}
func (stubOrders) ClearTableOrders(context.Context, int, orders.Actor) error {
	return nil
}
func (stubOrders) FindByID(context.Context, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}
func (stubOrders) List(context.Context, orders.OrderFilters) ([]models.Order, error) {
	return nil, nil
}
func (stubOrders) ListOpenByTable(context.Context, uuid.UUID) ([]models.Order, error) {
	return nil, nil
}
func (stubOrders) ListByWaiter(context.Context, uuid.UUID) ([]models.Order, error) {
	return nil, nil
}
func (stubOrders) ListKitchenQueue(context.Context) ([]models.Order, error) {
	return nil, nil
}

type stubTables struct{}

func (stubTables) UpdateStatus(context.Context, uuid.UUID, enums.TableStatus, tables.Actor) (*models.DiningTable, error) {
	return &models.DiningTable{}, nil
}
func (stubTables) Merge(context.Context, tables.MergeInput) (*tables.MergeResult, error) {
	return &tables.MergeResult{}, nil
}
func (stubTables) UpdateNote(context.Context, uuid.UUID, string, tables.Actor) (*models.DiningTable, error) {
	return &models.DiningTable{}, nil
}
func (stubTables) Create(context.Context, tables.CreateTableInput) (*models.DiningTable, error) {
	return &models.DiningTable{}, nil
}
func (stubTables) List(context.Context) ([]models.DiningTable, error) {
	return nil, nil
}
func (stubTables) CreateArea(context.Context, string) (*models.Area, error) {
	return &models.Area{}, nil
}
func (stubTables) ListAreas(context.Context) ([]models.Area, error) {
	return nil, nil
}

type stubBills struct{}

func (stubBills) Create(context.Context, billrequests.CreateInput) (*models.BillRequest, error) {
	return &models.BillRequest{}, nil
}
func (stubBills) Update(context.Context, uuid.UUID, enums.BillRequestStatus, billrequests.Actor, *string) (*models.BillRequest, error) {
	return &models.BillRequest{}, nil
}
func (stubBills) ActiveForTable(context.Context, uuid.UUID) (*models.BillRequest, error) {
	return nil, nil
}
func (stubBills) ActiveForWaiter(context.Context, uuid.UUID) ([]models.BillRequest, error) {
	return nil, nil
}
func (stubBills) ListActive(context.Context) ([]models.BillRequest, error) {
	return nil, nil
}

type stubStock struct{}

func (stubStock) Adjust(context.Context, stock.AdjustInput) (*models.Product, error) {
	return &models.Product{}, nil
}
func (stubStock) ConsumeForOrder(context.Context, *gorm.DB, uuid.UUID, []stock.ConsumeItem) ([]stock.LowStockAlert, error) {
	return nil, nil
}
func (stubStock) Reverse(context.Context, uuid.UUID, uuid.UUID, string) (*models.StockLog, error) {
	return &models.StockLog{}, nil
}
func (stubStock) History(context.Context, uuid.UUID) ([]models.StockLog, error) {
	return nil, nil
}

type stubProducts struct{}

func (stubProducts) CreateProduct(context.Context, products.CreateProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}
func (stubProducts) UpdateProduct(context.Context, uuid.UUID, products.UpdateProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}
func (stubProducts) GetProduct(context.Context, uuid.UUID) (*models.Product, error) {
	return &models.Product{}, nil
}
func (stubProducts) ListProducts(context.Context, products.ProductFilters) ([]models.Product, error) {
	return nil, nil
}
func (stubProducts) ListLowStock(context.Context) ([]models.Product, error) {
	return nil, nil
}
func (stubProducts) CreateCategory(context.Context, string) (*models.Category, error) {
	return &models.Category{}, nil
}
func (stubProducts) ListCategories(context.Context) ([]models.Category, error) {
	return nil, nil
}
func (stubProducts) CreateSupplier(context.Context, string, *string, *string) (*models.Supplier, error) {
	return &models.Supplier{}, nil
}
func (stubProducts) ListSuppliers(context.Context) ([]models.Supplier, error) {
	return nil, nil
}

type stubReports struct{}

func (stubReports) DailySales(context.Context, reporting.RangeFilter) ([]reporting.DailySales, error) {
	return nil, nil
}
func (stubReports) TopProducts(context.Context, reporting.RangeFilter, int) ([]reporting.TopProduct, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) (http.Handler, config.JWTConfig) {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{
		Secret:            "router-test-secret",
		Issuer:            "comanda-test",
		ExpirationMinutes: 15,
	}

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	router := NewRouter(RouterParams{
		Config:       cfg,
		Logger:       logg,
		DB:           stubPinger{},
		Redis:        stubPinger{},
		Orders:       stubOrders{},
		Tables:       stubTables{},
		BillRequests: stubBills{},
		Stock:        stubStock{},
		Products:     stubProducts{},
		Reports:      stubReports{},
	})
	return router, cfg.JWT
}

func mintToken(t *testing.T, cfg config.JWTConfig, role enums.StaffRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	require.NoError(t, err)
	return token
}

func TestRouterPublicEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterRequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterAllowsAuthenticatedReads(t *testing.T) {
	router, jwtCfg := newTestRouter(t)
	token := mintToken(t, jwtCfg, enums.StaffRoleWaiter)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterEnforcesRoleGuards(t *testing.T) {
	router, jwtCfg := newTestRouter(t)

	waiterToken := mintToken(t, jwtCfg, enums.StaffRoleWaiter)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/kitchen/queue", nil)
	req.Header.Set("Authorization", "Bearer "+waiterToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	kitchenToken := mintToken(t, jwtCfg, enums.StaffRoleKitchen)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/kitchen/queue", nil)
	req.Header.Set("Authorization", "Bearer "+kitchenToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales/daily", nil)
	req.Header.Set("Authorization", "Bearer "+waiterToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
