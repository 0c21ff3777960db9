package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/comandapos/comanda-backend/api/responses"
	"github.com/comandapos/comanda-backend/api/validators"
	stocksvc "github.com/comandapos/comanda-backend/internal/stock"
	"github.com/comandapos/comanda-backend/pkg/enums"
	pkgerrors "github.com/comandapos/comanda-backend/pkg/errors"
	"github.com/comandapos/comanda-backend/pkg/logger"
)

type adjustStockRequest struct {
	Quantity   int     `json:"quantity" validate:"required,min=1"`
	Type       string  `json:"type" validate:"required"`
	SupplierID *string `json:"supplierId,omitempty" validate:"omitempty,uuid4"`
}

// AdjustStock records a manual stock movement against a product.
func AdjustStock(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movementType, err := enums.ParseStockMovementType(strings.TrimSpace(payload.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type"))
			return
		}

		input := stocksvc.AdjustInput{
			ProductID: productID,
			Quantity:  payload.Quantity,
			Type:      movementType,
			ActorID:   act.UserID,
			ActorRole: act.Role,
		}
		if payload.SupplierID != nil {
			supplierID, err := uuid.Parse(*payload.SupplierID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplierId"))
				return
			}
			input.SupplierID = &supplierID
		}

		product, err := svc.Adjust(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ReverseStockLog undoes a ledger entry with a compensating movement.
func ReverseStockLog(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stockLogID, err := pathUUID(r, "stockLogId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reversal, err := svc.Reverse(r.Context(), stockLogID, act.UserID, act.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reversal)
	}
}

// StockHistory returns a product's ledger, newest first.
func StockHistory(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		history, err := svc.History(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}
