package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/comandapos/comanda-backend/api/responses"
	"github.com/comandapos/comanda-backend/api/validators"
	ordersvc "github.com/comandapos/comanda-backend/internal/orders"
	"github.com/comandapos/comanda-backend/pkg/enums"
	pkgerrors "github.com/comandapos/comanda-backend/pkg/errors"
	"github.com/comandapos/comanda-backend/pkg/logger"
)

// CreateOrder opens a tab on a table for the authenticated waiter.
func CreateOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(act.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

type createOrderItemRequest struct {
	ProductID string  `json:"productId" validate:"required,uuid4"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	Note      *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

type createOrderRequest struct {
	TableID string                   `json:"tableId" validate:"required,uuid4"`
	Items   []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (req createOrderRequest) toInput(waiterID uuid.UUID) (ordersvc.CreateOrderInput, error) {
	tableID, err := uuid.Parse(req.TableID)
	if err != nil {
		return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tableId")
	}

	items := make([]ordersvc.CreateOrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid productId")
		}
		items = append(items, ordersvc.CreateOrderItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
			Note:      item.Note,
		})
	}

	return ordersvc.CreateOrderInput{
		TableID:  tableID,
		WaiterID: waiterID,
		Items:    items,
	}, nil
}

// ListOrders returns orders filtered by status, table or waiter.
func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := ordersvc.OrderFilters{}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filters.Status = &status
		}

		tableID, err := validators.ParseQueryUUID(r, "tableId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.TableID = tableID

		waiterID, err := validators.ParseQueryUUID(r, "waiterId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.WaiterID = waiterID

		orders, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// GetOrder returns one order with its items.
func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.FindByID(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// KitchenQueue lists the orders the kitchen still has to move forward.
func KitchenQueue(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := svc.ListKitchenQueue(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// TableOpenOrders lists a table's open orders.
func TableOpenOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID, err := pathUUID(r, "tableId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orders, err := svc.ListOpenByTable(r.Context(), tableID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// MyOrders lists the authenticated waiter's orders.
func MyOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orders, err := svc.ListByWaiter(r.Context(), act.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateOrderStatus advances an order along its lifecycle.
func UpdateOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithOrderID(r.Context(), orderID.String())

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.UpdateStatus(ctx, orderID, status, ordersvc.Actor{UserID: act.UserID, Role: act.Role})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type processPaymentRequest struct {
	PaymentMethod string  `json:"paymentMethod" validate:"required"`
	CashAmount    *string `json:"cashAmount,omitempty"`
	CreditAmount  *string `json:"creditAmount,omitempty"`
}

func (req processPaymentRequest) toInput() (ordersvc.PaymentInput, error) {
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(req.PaymentMethod))
	if err != nil {
		return ordersvc.PaymentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid paymentMethod")
	}

	input := ordersvc.PaymentInput{Method: method}
	if req.CashAmount != nil {
		amount, err := decimal.NewFromString(*req.CashAmount)
		if err != nil {
			return ordersvc.PaymentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cashAmount")
		}
		input.CashAmount = &amount
	}
	if req.CreditAmount != nil {
		amount, err := decimal.NewFromString(*req.CreditAmount)
		if err != nil {
			return ordersvc.PaymentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid creditAmount")
		}
		input.CreditAmount = &amount
	}
	return input, nil
}

// ProcessPayment settles an order at the register.
func ProcessPayment(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithOrderID(r.Context(), orderID.String())

		var payload processPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.ProcessPayment(ctx, orderID, input, ordersvc.Actor{UserID: act.UserID, Role: act.Role})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// CancelOrder voids an order that has not reached the kitchen's point of no
// return.
func CancelOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithOrderID(r.Context(), orderID.String())
		order, err := svc.Cancel(ctx, orderID, ordersvc.Actor{UserID: act.UserID, Role: act.Role})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ClearTableOrders wipes a table's finished orders and resets its state.
func ClearTableOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tableNumber, err := strconv.Atoi(chi.URLParam(r, "tableNumber"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tableNumber"))
			return
		}

		if err := svc.ClearTableOrders(r.Context(), tableNumber, ordersvc.Actor{UserID: act.UserID, Role: act.Role}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"cleared": true, "tableNumber": tableNumber})
	}
}
