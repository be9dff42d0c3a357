package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/proxypurple/commerce-api/internal/handler/middleware"
	"github.com/proxypurple/commerce-api/internal/payload"
	"github.com/proxypurple/commerce-api/internal/repository"
	"github.com/proxypurple/commerce-api/internal/usecase"
	"github.com/proxypurple/commerce-api/shared/validation"
)

// UserHandler exposes profile management over HTTP.
type UserHandler struct {
	userUsecase usecase.UserUsecase
	validator   *validation.Validator
	logger      *zerolog.Logger
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(
	userUsecase usecase.UserUsecase,
	validator *validation.Validator,
	logger *zerolog.Logger,
) *UserHandler {
	return &UserHandler{
		userUsecase: userUsecase,
		validator:   validator,
		logger:      logger,
	}
}

// RegisterRoutes mounts the authenticated profile routes on the given router.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users/me", h.me)
	r.Patch("/users/me", h.updateProfile)
}

// RegisterAdminRoutes mounts the admin-only user routes on the given router.
func (h *UserHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/users", h.list)
	r.Get("/users/{id}", h.get)
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	user, err := h.userUsecase.GetUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse(user))
}

func (h *UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	var req payload.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := h.userUsecase.UpdateProfile(r.Context(), claims.UserID, usecase.UpdateProfileParams{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		Country:      req.Country,
		City:         req.City,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		PostalCode:   req.PostalCode,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse(user))
}

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request) {
	user, err := h.userUsecase.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse(user))
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	users, err := h.userUsecase.ListUsers(r.Context(), repository.FilterUsersParams{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	responses := make([]*payload.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, userResponse(user))
	}

	writeJSON(w, http.StatusOK, responses)
}
