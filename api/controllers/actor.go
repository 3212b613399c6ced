package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/atacadobras/atacado-backend/api/middleware"
	"github.com/atacadobras/atacado-backend/pkg/enums"
	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
)

func userIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

func roleFromRequest(r *http.Request) (enums.ActorRole, error) {
	role, err := enums.ParseActorRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "unknown actor role")
	}
	return role, nil
}

func supplierIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.SupplierIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "supplier context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier id")
	}
	return id, nil
}

func pathUUID(r *http.Request, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id in path")
	}
	return id, nil
}
