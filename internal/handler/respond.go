package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/proxypurple/commerce-api/internal/model"
	"github.com/proxypurple/commerce-api/internal/payload"
	"github.com/proxypurple/commerce-api/internal/usecase"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// writeError maps usecase failures onto HTTP statuses. Internal failures are
// logged and returned as an opaque message.
func writeError(w http.ResponseWriter, logger *zerolog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
		writeJSON(w, status, errorResponse{Error: "something went wrong"})
		return
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrEmailInUse),
		errors.Is(err, usecase.ErrCouponUsageExceeded):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrInvalidCredentials),
		errors.Is(err, usecase.ErrAccountNotVerified),
		errors.Is(err, usecase.ErrInvalidToken),
		errors.Is(err, usecase.ErrInvalidExternalToken):
		return http.StatusUnauthorized
	case errors.Is(err, usecase.ErrUserNotFound),
		errors.Is(err, usecase.ErrCodeNotFound),
		errors.Is(err, usecase.ErrCouponNotFound),
		errors.Is(err, usecase.ErrProductNotFound),
		errors.Is(err, usecase.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrCodeExpired),
		errors.Is(err, usecase.ErrCodeMismatch),
		errors.Is(err, usecase.ErrCouponInactive),
		errors.Is(err, usecase.ErrCouponNotYetValid),
		errors.Is(err, usecase.ErrCouponExpired),
		errors.Is(err, usecase.ErrBelowMinimumOrder),
		errors.Is(err, usecase.ErrEmailMissingFromProvider),
		errors.Is(err, usecase.ErrEmptyOrder),
		errors.Is(err, usecase.ErrProductInactive),
		errors.Is(err, usecase.ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrDeliveryFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func userResponse(user *model.User) *payload.UserResponse {
	return &payload.UserResponse{
		ID:           user.ID.Hex(),
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		PhoneNumber:  user.PhoneNumber,
		Country:      user.Country,
		City:         user.City,
		AddressLine1: user.AddressLine1,
		AddressLine2: user.AddressLine2,
		PostalCode:   user.PostalCode,
		Verified:     user.Verified,
		Role:         string(user.Role),
	}
}
