package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crowrepuestos/storefront/internal/order/domain"
	"github.com/crowrepuestos/storefront/internal/order/service"
	"github.com/crowrepuestos/storefront/pkg/httputil"
	"github.com/crowrepuestos/storefront/pkg/middleware"
	"github.com/crowrepuestos/storefront/pkg/pagination"
	"github.com/crowrepuestos/storefront/pkg/validator"
)

// OrderHandler serves the order endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates an order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

// AddressRequest is the shipping address in the checkout body.
type AddressRequest struct {
	FullName    string `json:"full_name" validate:"required,min=2,max=200"`
	AddressLine string `json:"address_line" validate:"required,min=5,max=500"`
	City        string `json:"city" validate:"required"`
	Department  string `json:"department" validate:"required"`
	PostalCode  string `json:"postal_code"`
	Phone       string `json:"phone"`
}

// CheckoutRequest is the JSON body for placing an order.
type CheckoutRequest struct {
	ShippingAddress AddressRequest `json:"shipping_address" validate:"required"`
	Notes           string         `json:"notes" validate:"max=1000"`
}

// CancelOrderRequest is the JSON body for canceling an order.
type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// Checkout handles POST /api/v1/orders
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
		})
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.service.Checkout(r.Context(), userID, service.CheckoutInput{
		ShippingAddress: &domain.Address{
			FullName:    req.ShippingAddress.FullName,
			AddressLine: req.ShippingAddress.AddressLine,
			City:        req.ShippingAddress.City,
			Department:  req.ShippingAddress.Department,
			PostalCode:  req.ShippingAddress.PostalCode,
			Phone:       req.ShippingAddress.Phone,
		},
		Notes: req.Notes,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}

// List handles GET /api/v1/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
		})
		return
	}

	params := pagination.FromRequest(r)

	orders, total, err := h.service.ListOrders(r.Context(), userID, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(orders, total, params),
	})
}

// Get handles GET /api/v1/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
		})
		return
	}

	order, err := h.service.GetOrder(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// Cancel handles POST /api/v1/orders/{id}/cancel
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
		})
		return
	}

	var req CancelOrderRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
			})
			return
		}

		if err := validator.Validate(req); err != nil {
			httputil.WriteValidationError(w, err)
			return
		}
	}

	order, err := h.service.CancelOrder(r.Context(), userID, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}
