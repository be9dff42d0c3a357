package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/proxypurple/commerce-api/internal/handler/middleware"
	"github.com/proxypurple/commerce-api/internal/model"
	"github.com/proxypurple/commerce-api/internal/payload"
	"github.com/proxypurple/commerce-api/internal/repository"
	"github.com/proxypurple/commerce-api/internal/usecase"
	"github.com/proxypurple/commerce-api/shared/validation"
)

// OrderHandler exposes order placement and tracking over HTTP.
type OrderHandler struct {
	orderUsecase usecase.OrderUsecase
	validator    *validation.Validator
	logger       *zerolog.Logger
}

// NewOrderHandler creates a new instance of OrderHandler.
func NewOrderHandler(
	orderUsecase usecase.OrderUsecase,
	validator *validation.Validator,
	logger *zerolog.Logger,
) *OrderHandler {
	return &OrderHandler{
		orderUsecase: orderUsecase,
		validator:    validator,
		logger:       logger,
	}
}

// RegisterRoutes mounts the authenticated order routes on the given router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.create)
	r.Get("/orders", h.list)
	r.Get("/orders/{id}", h.get)
}

// RegisterAdminRoutes mounts the admin-only order routes on the given router.
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Patch("/orders/{id}/status", h.updateStatus)
}

func (h *OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	userID, err := bson.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeError(w, h.logger, usecase.ErrUserNotFound)
		return
	}

	var req payload.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	items := make([]usecase.OrderItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, usecase.OrderItemParams{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.orderUsecase.CreateOrder(r.Context(), userID, usecase.CreateOrderParams{
		Items:      items,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderUsecase.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	// Users may only read their own orders.
	claims := middleware.ClaimsFromContext(r.Context())
	if claims.Role != string(model.RoleAdmin) && order.UserID.Hex() != claims.UserID {
		writeError(w, h.logger, usecase.ErrOrderNotFound)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	limit, offset := paginationParams(r)

	params := repository.FilterOrdersParams{Limit: limit, Offset: offset}
	if status := r.URL.Query().Get("status"); status != "" {
		orderStatus := model.OrderStatus(status)
		params.Status = &orderStatus
	}

	// Non-admin callers are scoped to their own orders.
	if claims.Role != string(model.RoleAdmin) {
		userID, err := bson.ObjectIDFromHex(claims.UserID)
		if err != nil {
			writeError(w, h.logger, usecase.ErrUserNotFound)
			return
		}
		params.UserID = &userID
	}

	orders, err := h.orderUsecase.ListOrders(r.Context(), params)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req payload.UpdateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	order, err := h.orderUsecase.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), model.OrderStatus(req.Status))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
