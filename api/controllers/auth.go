package controllers

import (
	"net/http"

	"github.com/cleanmatch/cleanmatch-backend/api/responses"
	"github.com/cleanmatch/cleanmatch-backend/api/validators"
	"github.com/cleanmatch/cleanmatch-backend/internal/otp"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
)

type sendOTPRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// AuthSendOTP emails a fresh verification code.
func AuthSendOTP(svc otp.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "otp service unavailable"))
			return
		}

		var body sendOTPRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Issue(r.Context(), body.Email, body.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AuthVerifyOTP checks a submitted code.
func AuthVerifyOTP(svc otp.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "otp service unavailable"))
			return
		}

		var body verifyOTPRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Verify(r.Context(), body.Email, body.OTP)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
