package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/proxypurple/commerce-api/internal/model"
	"github.com/proxypurple/commerce-api/internal/payload"
	"github.com/proxypurple/commerce-api/internal/repository"
	"github.com/proxypurple/commerce-api/internal/usecase"
	"github.com/proxypurple/commerce-api/shared/validation"
)

// CouponHandler exposes coupon evaluation and administration over HTTP.
type CouponHandler struct {
	couponUsecase usecase.CouponUsecase
	validator     *validation.Validator
	logger        *zerolog.Logger
}

// NewCouponHandler creates a new instance of CouponHandler.
func NewCouponHandler(
	couponUsecase usecase.CouponUsecase,
	validator *validation.Validator,
	logger *zerolog.Logger,
) *CouponHandler {
	return &CouponHandler{
		couponUsecase: couponUsecase,
		validator:     validator,
		logger:        logger,
	}
}

// RegisterRoutes mounts the authenticated coupon routes on the given router.
func (h *CouponHandler) RegisterRoutes(r chi.Router) {
	r.Post("/coupons/evaluate", h.evaluate)
}

// RegisterAdminRoutes mounts the admin-only coupon routes on the given router.
func (h *CouponHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/coupons", h.create)
	r.Get("/coupons", h.list)
	r.Get("/coupons/{code}", h.get)
	r.Patch("/coupons/{id}", h.update)
	r.Delete("/coupons/{id}", h.delete)
}

func (h *CouponHandler) evaluate(w http.ResponseWriter, r *http.Request) {
	var req payload.EvaluateCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	eval, err := h.couponUsecase.Evaluate(r.Context(), req.Code, req.OrderTotal)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.EvaluateCouponResponse{
		Code:           eval.Coupon.Code,
		DiscountAmount: eval.DiscountAmount,
		FinalAmount:    eval.FinalAmount,
	})
}

func (h *CouponHandler) create(w http.ResponseWriter, r *http.Request) {
	var req payload.CreateCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	coupon := &model.Coupon{
		Code:              req.Code,
		DiscountType:      model.DiscountType(req.DiscountType),
		DiscountValue:     req.DiscountValue,
		MinOrderAmount:    req.MinOrderAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		ValidFrom:         req.ValidFrom,
		ValidUntil:        req.ValidUntil,
		UsageLimit:        req.UsageLimit,
		IsActive:          true,
		Status:            model.CouponStatusActive,
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	created, err := h.couponUsecase.CreateCoupon(r.Context(), coupon)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *CouponHandler) get(w http.ResponseWriter, r *http.Request) {
	coupon, err := h.couponUsecase.GetCoupon(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, coupon)
}

func (h *CouponHandler) update(w http.ResponseWriter, r *http.Request) {
	var req payload.UpdateCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	params := repository.UpdateCouponParams{
		DiscountValue:     req.DiscountValue,
		MinOrderAmount:    req.MinOrderAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		ValidFrom:         req.ValidFrom,
		ValidUntil:        req.ValidUntil,
		UsageLimit:        req.UsageLimit,
		IsActive:          req.IsActive,
	}
	if req.DiscountType != nil {
		discountType := model.DiscountType(*req.DiscountType)
		params.DiscountType = &discountType
	}
	if req.Status != nil {
		status := model.CouponStatus(*req.Status)
		params.Status = &status
	}

	coupon, err := h.couponUsecase.UpdateCoupon(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, coupon)
}

func (h *CouponHandler) delete(w http.ResponseWriter, r *http.Request) {
	coupon, err := h.couponUsecase.DeleteCoupon(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, coupon)
}

func (h *CouponHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	coupons, err := h.couponUsecase.ListCoupons(r.Context(), limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, coupons)
}

func paginationParams(r *http.Request) (limit, offset uint64) {
	limit = 50
	if v, err := strconv.ParseUint(r.URL.Query().Get("limit"), 10, 64); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.ParseUint(r.URL.Query().Get("offset"), 10, 64); err == nil {
		offset = v
	}
	return limit, offset
}
