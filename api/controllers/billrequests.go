package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/comandapos/comanda-backend/api/responses"
	"github.com/comandapos/comanda-backend/api/validators"
	billsvc "github.com/comandapos/comanda-backend/internal/billrequests"
	"github.com/comandapos/comanda-backend/pkg/enums"
	pkgerrors "github.com/comandapos/comanda-backend/pkg/errors"
	"github.com/comandapos/comanda-backend/pkg/logger"
)

type createBillRequestRequest struct {
	TableID string  `json:"tableId" validate:"required,uuid4"`
	Note    *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

// CreateBillRequest signals the register that a table wants to settle.
func CreateBillRequest(svc billsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createBillRequestRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tableID, err := uuid.Parse(payload.TableID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tableId"))
			return
		}

		request, err := svc.Create(r.Context(), billsvc.CreateInput{
			TableID:  tableID,
			WaiterID: act.UserID,
			Note:     payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

type updateBillRequestRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

// UpdateBillRequest moves a settlement request along its lifecycle.
func UpdateBillRequest(svc billsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requestID, err := pathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateBillRequestRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseBillRequestStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		request, err := svc.Update(r.Context(), requestID, status, billsvc.Actor{UserID: act.UserID, Role: act.Role}, payload.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// ListActiveBillRequests returns the register's pending work queue.
func ListActiveBillRequests(svc billsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, requests)
	}
}

// ActiveBillRequestForTable returns a table's live settlement request, if any.
func ActiveBillRequestForTable(svc billsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID, err := pathUUID(r, "tableId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		request, err := svc.ActiveForTable(r.Context(), tableID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// MyBillRequests lists the authenticated waiter's live settlement requests.
func MyBillRequests(svc billsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requests, err := svc.ActiveForWaiter(r.Context(), act.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, requests)
	}
}
