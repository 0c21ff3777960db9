package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/comandapos/comanda-backend/api/middleware"
	pkgerrors "github.com/comandapos/comanda-backend/pkg/errors"
)

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}

type actor struct {
	UserID uuid.UUID
	Role   string
}

func actorFromContext(ctx context.Context) (actor, error) {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return actor{UserID: id, Role: middleware.RoleFromContext(ctx)}, nil
}
