package controllers

import (
	"net/http"

	"github.com/cleanmatch/cleanmatch-backend/api/responses"
	"github.com/cleanmatch/cleanmatch-backend/api/validators"
	"github.com/cleanmatch/cleanmatch-backend/internal/authz"
	"github.com/cleanmatch/cleanmatch-backend/internal/reviews"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
)

// Rating stays unvalidated here so an out-of-range value surfaces as
// "Rating must be 1-5" rather than a missing field.
type createReviewRequest struct {
	CustomerID string  `json:"customerId"`
	ShopID     string  `json:"shopId"`
	Rating     int     `json:"rating"`
	Comment    *string `json:"comment"`
}

// ReviewCreate records a customer's rating of a shop.
func ReviewCreate(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		var body createReviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Comment != nil {
			comment := validators.SanitizeString(*body.Comment, maxTextLength)
			body.Comment = &comment
		}

		review, err := svc.Create(r.Context(), authz.ActorFromContext(r.Context()), reviews.CreateReviewInput{
			CustomerID: body.CustomerID,
			ShopID:     body.ShopID,
			Rating:     body.Rating,
			Comment:    body.Comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, review)
	}
}

// ReviewList returns a shop's reviews, newest first.
func ReviewList(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		list, err := svc.List(r.Context(), validators.QueryString(r, "shopId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
