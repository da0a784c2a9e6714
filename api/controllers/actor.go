package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/localmarthq/localmart-backend/api/middleware"
	internalorders "github.com/localmarthq/localmart-backend/internal/orders"
	"github.com/localmarthq/localmart-backend/pkg/enums"
	pkgerrors "github.com/localmarthq/localmart-backend/pkg/errors"
)

// requestActor rebuilds the acting identity from the authenticated context.
func requestActor(r *http.Request) (internalorders.Actor, error) {
	userID, err := requestUserID(r)
	if err != nil {
		return internalorders.Actor{}, err
	}

	actor := internalorders.Actor{
		UserID: userID,
		Role:   enums.UserRole(middleware.RoleFromContext(r.Context())),
	}
	if raw := middleware.ShopIDFromContext(r.Context()); raw != "" {
		shopID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return internalorders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, parseErr, "invalid shop context")
		}
		actor.ShopID = &shopID
	}
	return actor, nil
}

func requestUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}
	return userID, nil
}

func requestShopID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.ShopIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "shop context missing")
	}
	shopID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid shop context")
	}
	return shopID, nil
}
