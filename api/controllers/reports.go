package controllers

import (
	"net/http"

	"github.com/comandapos/comanda-backend/api/responses"
	"github.com/comandapos/comanda-backend/api/validators"
	reportsvc "github.com/comandapos/comanda-backend/internal/reporting"
	"github.com/comandapos/comanda-backend/pkg/logger"
)

func rangeFilterFromQuery(r *http.Request) (reportsvc.RangeFilter, error) {
	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return reportsvc.RangeFilter{}, err
	}
	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return reportsvc.RangeFilter{}, err
	}
	return reportsvc.RangeFilter{From: from, To: to}, nil
}

// DailySalesReport returns per-day revenue rollups over completed orders.
func DailySalesReport(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := rangeFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.DailySales(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// TopProductsReport ranks products by quantity sold.
func TopProductsReport(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := rangeFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.TopProducts(r.Context(), filter, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
