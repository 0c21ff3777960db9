package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/comandapos/comanda-backend/api/responses"
	"github.com/comandapos/comanda-backend/api/validators"
	tablesvc "github.com/comandapos/comanda-backend/internal/tables"
	"github.com/comandapos/comanda-backend/pkg/enums"
	pkgerrors "github.com/comandapos/comanda-backend/pkg/errors"
	"github.com/comandapos/comanda-backend/pkg/logger"
)

// ListTables returns the floor plan with live occupancy.
func ListTables(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tables, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tables)
	}
}

type createTableRequest struct {
	Number   int     `json:"number" validate:"required,min=1"`
	Capacity int     `json:"capacity" validate:"required,min=1"`
	AreaID   *string `json:"areaId,omitempty" validate:"omitempty,uuid4"`
}

// CreateTable adds a table to the floor plan.
func CreateTable(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createTableRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := tablesvc.CreateTableInput{Number: payload.Number, Capacity: payload.Capacity}
		if payload.AreaID != nil {
			areaID, err := uuid.Parse(*payload.AreaID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid areaId"))
				return
			}
			input.AreaID = &areaID
		}

		table, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, table)
	}
}

type updateTableStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateTableStatus moves a table between occupancy states.
func UpdateTableStatus(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tableID, err := pathUUID(r, "tableId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithTableID(r.Context(), tableID.String())

		var payload updateTableStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status, err := enums.ParseTableStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		table, err := svc.UpdateStatus(ctx, tableID, status, tablesvc.Actor{UserID: act.UserID, Role: act.Role})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, table)
	}
}

type updateTableNoteRequest struct {
	Note string `json:"note" validate:"max=500"`
}

// UpdateTableNote attaches a cashier-facing note to a table.
func UpdateTableNote(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tableID, err := pathUUID(r, "tableId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithTableID(r.Context(), tableID.String())

		var payload updateTableNoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		table, err := svc.UpdateNote(ctx, tableID, payload.Note, tablesvc.Actor{UserID: act.UserID, Role: act.Role})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, table)
	}
}

type mergeTablesRequest struct {
	SourceTableID string `json:"sourceTableId" validate:"required,uuid4"`
	TargetTableID string `json:"targetTableId" validate:"required,uuid4"`
	OperationType string `json:"operationType" validate:"required"`
}

// MergeTables combines or transfers the open orders of two tables.
func MergeTables(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload mergeTablesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sourceID, err := uuid.Parse(payload.SourceTableID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sourceTableId"))
			return
		}
		targetID, err := uuid.Parse(payload.TargetTableID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid targetTableId"))
			return
		}
		opType, err := enums.ParseTableOperationType(strings.TrimSpace(payload.OperationType))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid operationType"))
			return
		}

		result, err := svc.Merge(r.Context(), tablesvc.MergeInput{
			SourceID:      sourceID,
			TargetID:      targetID,
			OperationType: opType,
			Actor:         tablesvc.Actor{UserID: act.UserID, Role: act.Role},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type createAreaRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// CreateArea adds a named zone of the floor plan.
func CreateArea(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createAreaRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		area, err := svc.CreateArea(r.Context(), strings.TrimSpace(payload.Name))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, area)
	}
}

// ListAreas returns the configured floor plan zones.
func ListAreas(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		areas, err := svc.ListAreas(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, areas)
	}
}
