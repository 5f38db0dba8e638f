package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cleanmatch/cleanmatch-backend/api/responses"
	"github.com/cleanmatch/cleanmatch-backend/api/validators"
	"github.com/cleanmatch/cleanmatch-backend/internal/authz"
	"github.com/cleanmatch/cleanmatch-backend/internal/users"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
	"github.com/cleanmatch/cleanmatch-backend/pkg/types"
)

type upsertUserRequest struct {
	UID         string        `json:"uid" validate:"required"`
	Email       string        `json:"email" validate:"required"`
	Name        string        `json:"name"`
	Role        string        `json:"role"`
	Intent      string        `json:"intent"`
	Phone       *string       `json:"phone"`
	Address     *string       `json:"address"`
	Age         types.FlexInt `json:"age"`
	Description *string       `json:"description"`
	DateOfBirth *string       `json:"dob"`
}

// UserUpsert creates the account on first sign-in and saves profile edits after.
func UserUpsert(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		var body upsertUserRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Age.Set && body.Age.Value < 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"age": "must be greater than or equal to 0"}))
			return
		}

		user, err := svc.Upsert(r.Context(), authz.ActorFromContext(r.Context()), users.UpsertUserInput{
			ID:          body.UID,
			Email:       body.Email,
			Name:        body.Name,
			Role:        body.Role,
			Intent:      body.Intent,
			Phone:       body.Phone,
			Address:     body.Address,
			Age:         body.Age.Ptr(),
			Description: body.Description,
			DateOfBirth: body.DateOfBirth,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// UserGet returns one account with its shop presence.
func UserGet(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID := strings.TrimSpace(chi.URLParam(r, "userId"))
		user, err := svc.Get(r.Context(), authz.ActorFromContext(r.Context()), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}
