package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/proxypurple/commerce-api/internal/model"
	"github.com/proxypurple/commerce-api/internal/payload"
	"github.com/proxypurple/commerce-api/internal/repository"
	"github.com/proxypurple/commerce-api/internal/usecase"
	"github.com/proxypurple/commerce-api/shared/validation"
)

// ProductHandler exposes the product catalog over HTTP.
type ProductHandler struct {
	productUsecase usecase.ProductUsecase
	validator      *validation.Validator
	logger         *zerolog.Logger
}

// NewProductHandler creates a new instance of ProductHandler.
func NewProductHandler(
	productUsecase usecase.ProductUsecase,
	validator *validation.Validator,
	logger *zerolog.Logger,
) *ProductHandler {
	return &ProductHandler{
		productUsecase: productUsecase,
		validator:      validator,
		logger:         logger,
	}
}

// RegisterRoutes mounts the public product routes on the given router.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.get)
}

// RegisterAdminRoutes mounts the admin-only product routes on the given
// router.
func (h *ProductHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/products", h.create)
	r.Patch("/products/{id}", h.update)
	r.Delete("/products/{id}", h.delete)
}

func (h *ProductHandler) create(w http.ResponseWriter, r *http.Request) {
	var req payload.CreateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	product := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		IsActive:    true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	created, err := h.productUsecase.CreateProduct(r.Context(), product)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *ProductHandler) get(w http.ResponseWriter, r *http.Request) {
	product, err := h.productUsecase.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) update(w http.ResponseWriter, r *http.Request) {
	var req payload.UpdateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	product, err := h.productUsecase.UpdateProduct(r.Context(), chi.URLParam(r, "id"), repository.UpdateProductParams{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		IsActive:    req.IsActive,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) delete(w http.ResponseWriter, r *http.Request) {
	product, err := h.productUsecase.DeleteProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	params := repository.FilterProductsParams{Limit: limit, Offset: offset}
	if category := r.URL.Query().Get("category"); category != "" {
		params.Category = &category
	}

	products, err := h.productUsecase.ListProducts(r.Context(), params)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, products)
}
