package controllers

import (
	"net/http"

	"github.com/cleanmatch/cleanmatch-backend/api/responses"
	"github.com/cleanmatch/cleanmatch-backend/api/validators"
	"github.com/cleanmatch/cleanmatch-backend/internal/authz"
	"github.com/cleanmatch/cleanmatch-backend/internal/shops"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
)

// maxTextLength caps free-text fields such as descriptions and review comments.
const maxTextLength = 2000

type upsertShopRequest struct {
	Name        string `json:"name" validate:"required"`
	Address     string `json:"address" validate:"required"`
	OwnerID     string `json:"ownerId" validate:"required"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
	Email       string `json:"email" validate:"omitempty,email"`
}

// ShopList returns every shop, or only the caller's when uid is given, with rating aggregates.
func ShopList(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		list, err := svc.List(r.Context(), validators.QueryString(r, "uid"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ShopUpsert saves the owner's shop profile. An owner has at most one shop, so a
// repeat call updates it.
func ShopUpsert(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		var body upsertShopRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.CreateOrUpdate(r.Context(), authz.ActorFromContext(r.Context()), shops.UpsertShopInput{
			OwnerID:     body.OwnerID,
			Name:        body.Name,
			Address:     body.Address,
			Description: validators.SanitizeString(body.Description, maxTextLength),
			Phone:       body.Phone,
			Email:       body.Email,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shop)
	}
}
