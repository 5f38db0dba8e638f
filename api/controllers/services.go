package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/cleanmatch/cleanmatch-backend/api/responses"
	"github.com/cleanmatch/cleanmatch-backend/api/validators"
	"github.com/cleanmatch/cleanmatch-backend/internal/authz"
	"github.com/cleanmatch/cleanmatch-backend/internal/catalog"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
)

type addServiceRequest struct {
	UID      string           `json:"uid" validate:"required"`
	Name     string           `json:"name" validate:"required"`
	Price    *decimal.Decimal `json:"price" validate:"required"`
	Category string           `json:"category"`
}

// ServiceList returns a shop's catalog, looked up by shopId or by the owner's uid.
func ServiceList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		list, err := svc.List(r.Context(), catalog.ListFilter{
			ShopID:  validators.QueryString(r, "shopId"),
			OwnerID: validators.QueryString(r, "uid"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ServiceAdd adds a priced line to the owner's shop.
func ServiceAdd(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body addServiceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Add(r.Context(), authz.ActorFromContext(r.Context()), catalog.AddServiceInput{
			OwnerID:  body.UID,
			Name:     body.Name,
			Category: body.Category,
			Price:    *body.Price,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, created)
	}
}
