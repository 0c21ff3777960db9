package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/comandapos/comanda-backend/api/controllers"
	"github.com/comandapos/comanda-backend/api/middleware"
	"github.com/comandapos/comanda-backend/internal/billrequests"
	"github.com/comandapos/comanda-backend/internal/orders"
	"github.com/comandapos/comanda-backend/internal/products"
	"github.com/comandapos/comanda-backend/internal/reporting"
	"github.com/comandapos/comanda-backend/internal/stock"
	"github.com/comandapos/comanda-backend/internal/tables"
	"github.com/comandapos/comanda-backend/pkg/config"
	"github.com/comandapos/comanda-backend/pkg/enums"
	"github.com/comandapos/comanda-backend/pkg/logger"
)

type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           controllers.Pinger
	Redis        controllers.Pinger
	Orders       orders.Service
	Tables       tables.Service
	BillRequests billrequests.Service
	Stock        stock.Service
	Products     products.Service
	Reports      reporting.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	adminOnly := middleware.RequireRole(logg, string(enums.StaffRoleAdmin))
	registerRoles := middleware.RequireRole(logg, string(enums.StaffRoleCashier), string(enums.StaffRoleAdmin))
	kitchenRoles := middleware.RequireRole(logg, string(enums.StaffRoleKitchen), string(enums.StaffRoleAdmin))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(p.Orders, logg))
			r.Get("/", controllers.ListOrders(p.Orders, logg))
			r.Get("/mine", controllers.MyOrders(p.Orders, logg))
			r.With(kitchenRoles).Get("/kitchen/queue", controllers.KitchenQueue(p.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(p.Orders, logg))
			r.Patch("/{orderId}", controllers.UpdateOrderStatus(p.Orders, logg))
			r.With(registerRoles).Post("/{orderId}/payment", controllers.ProcessPayment(p.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(p.Orders, logg))
			r.With(registerRoles).Delete("/table/{tableNumber}/clear", controllers.ClearTableOrders(p.Orders, logg))
		})

		r.Route("/tables", func(r chi.Router) {
			r.Get("/", controllers.ListTables(p.Tables, logg))
			r.With(adminOnly).Post("/", controllers.CreateTable(p.Tables, logg))
			r.Post("/merge", controllers.MergeTables(p.Tables, logg))
			r.Put("/{tableId}/status", controllers.UpdateTableStatus(p.Tables, logg))
			r.Put("/{tableId}/note", controllers.UpdateTableNote(p.Tables, logg))
			r.Get("/{tableId}/orders", controllers.TableOpenOrders(p.Orders, logg))
		})

		r.Route("/areas", func(r chi.Router) {
			r.Get("/", controllers.ListAreas(p.Tables, logg))
			r.With(adminOnly).Post("/", controllers.CreateArea(p.Tables, logg))
		})

		r.Route("/bill-requests", func(r chi.Router) {
			r.Post("/", controllers.CreateBillRequest(p.BillRequests, logg))
			r.Get("/active", controllers.ListActiveBillRequests(p.BillRequests, logg))
			r.Get("/mine", controllers.MyBillRequests(p.BillRequests, logg))
			r.Get("/table/{tableId}", controllers.ActiveBillRequestForTable(p.BillRequests, logg))
			r.With(registerRoles).Put("/{requestId}", controllers.UpdateBillRequest(p.BillRequests, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(p.Products, logg))
			r.With(adminOnly).Post("/", controllers.CreateProduct(p.Products, logg))
			r.Get("/low-stock", controllers.ListLowStockProducts(p.Products, logg))
			r.With(adminOnly).Patch("/{productId}", controllers.UpdateProduct(p.Products, logg))
			r.With(registerRoles).Post("/{productId}/stock", controllers.AdjustStock(p.Stock, logg))
			r.Get("/{productId}/stock-history", controllers.StockHistory(p.Stock, logg))
		})

		r.Route("/stock-logs", func(r chi.Router) {
			r.With(adminOnly).Post("/{stockLogId}/reverse", controllers.ReverseStockLog(p.Stock, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(p.Products, logg))
			r.With(adminOnly).Post("/", controllers.CreateCategory(p.Products, logg))
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", controllers.ListSuppliers(p.Products, logg))
			r.With(adminOnly).Post("/", controllers.CreateSupplier(p.Products, logg))
		})

		r.With(registerRoles).Route("/reports", func(r chi.Router) {
			r.Get("/sales/daily", controllers.DailySalesReport(p.Reports, logg))
			r.Get("/products/top", controllers.TopProductsReport(p.Reports, logg))
		})
	})

	return r
}
