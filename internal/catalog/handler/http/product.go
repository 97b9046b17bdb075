package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crowrepuestos/storefront/internal/catalog/service"
	"github.com/crowrepuestos/storefront/pkg/httputil"
	"github.com/crowrepuestos/storefront/pkg/pagination"
	"github.com/crowrepuestos/storefront/pkg/validator"
)

// ProductHandler serves the catalog endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a catalog HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{service: svc, logger: logger}
}

// CreateProductRequest is the JSON body for creating a product.
type CreateProductRequest struct {
	Name             string `json:"name" validate:"required,min=1,max=500"`
	Description      string `json:"description"`
	Brand            string `json:"brand" validate:"required"`
	CompatibleModels string `json:"compatible_models"`
	Price            int64  `json:"price" validate:"required,gte=0"`
	Stock            int    `json:"stock" validate:"gte=0"`
	ImageURL         string `json:"image_url"`
}

// UpdateStockRequest is the JSON body for adjusting stock.
type UpdateStockRequest struct {
	Stock int `json:"stock" validate:"gte=0"`
}

// List handles GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	products, total, err := h.service.List(r.Context(), service.ListProductsInput{
		Search:  r.URL.Query().Get("search"),
		Brand:   r.URL.Query().Get("brand"),
		Page:    params.Page,
		PerPage: params.PerPage,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(products, total, params),
	})
}

// Get handles GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// GetBySlug handles GET /api/v1/products/slug/{slug}
func (h *ProductHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// Create handles POST /api/v1/products (admin only).
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.Create(r.Context(), service.CreateProductInput{
		Name:             req.Name,
		Description:      req.Description,
		Brand:            req.Brand,
		CompatibleModels: req.CompatibleModels,
		Price:            req.Price,
		Stock:            req.Stock,
		ImageURL:         req.ImageURL,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: product})
}

// UpdateStock handles PATCH /api/v1/products/{id}/stock (admin only).
func (h *ProductHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	var req UpdateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.UpdateStock(r.Context(), chi.URLParam(r, "id"), req.Stock)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}
