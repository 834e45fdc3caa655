package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dsdroute/dsdroute-backend/api/middleware"
	"github.com/dsdroute/dsdroute-backend/internal/orders"
	"github.com/dsdroute/dsdroute-backend/pkg/enums"
	pkgerrors "github.com/dsdroute/dsdroute-backend/pkg/errors"
)

// actorFromRequest rebuilds the authenticated caller from the request
// context seeded by the auth middleware.
func actorFromRequest(r *http.Request) (orders.Actor, error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return orders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity")
	}
	role, err := enums.ParseRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return orders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity")
	}
	return orders.Actor{
		ID:    userID,
		Email: middleware.EmailFromContext(r.Context()),
		Role:  role,
	}, nil
}

// pathUUID parses a chi URL parameter as a uuid.
func pathUUID(r *http.Request, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid id in path")
	}
	return id, nil
}
