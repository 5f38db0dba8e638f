package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/cleanmatch/cleanmatch-backend/api/responses"
	"github.com/cleanmatch/cleanmatch-backend/api/validators"
	"github.com/cleanmatch/cleanmatch-backend/internal/authz"
	"github.com/cleanmatch/cleanmatch-backend/internal/orders"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
)

type createOrderRequest struct {
	CustomerID    string           `json:"customerId" validate:"required"`
	ShopID        string           `json:"shopId" validate:"required"`
	TotalAmount   *decimal.Decimal `json:"totalAmount" validate:"required"`
	Items         map[string]int   `json:"items"`
	CustomerEmail string           `json:"customerEmail" validate:"omitempty,email"`
	CustomerName  string           `json:"customerName"`
}

type updateOrderStatusRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	Status  string `json:"status" validate:"required"`
}

// OrderList returns the newest orders for a shop or a customer. shopId wins
// when both are supplied.
func OrderList(svc orders.Service, maxLimit int, logg *logger.Logger) http.HandlerFunc {
	if maxLimit <= 0 {
		maxLimit = 20
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", maxLimit, 1, maxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), authz.ActorFromContext(r.Context()), orders.ListFilter{
			ShopID:     validators.QueryString(r, "shopId"),
			CustomerID: validators.QueryString(r, "customerId"),
			Limit:      limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderCreate places a PENDING order for the customer.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), authz.ActorFromContext(r.Context()), orders.CreateOrderInput{
			CustomerID:    body.CustomerID,
			CustomerEmail: body.CustomerEmail,
			CustomerName:  body.CustomerName,
			ShopID:        body.ShopID,
			TotalAmount:   *body.TotalAmount,
			Items:         body.Items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderUpdateStatus moves an order along the transition table.
func OrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var body updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), authz.ActorFromContext(r.Context()), body.OrderID, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
