package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
	"github.com/crowrepuestos/storefront/pkg/logger"
	"github.com/crowrepuestos/storefront/pkg/validator"
)

// Response is the JSON envelope every endpoint returns: data on success,
// error on failure, never both.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse carries the machine-readable code alongside the message.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody maps err to the status code and envelope body to send.
func errorBody(err error) (int, *ErrorResponse) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Status, &ErrorResponse{Code: appErr.Code, Message: appErr.Message}
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, &ErrorResponse{Code: "NOT_FOUND", Message: "resource not found"}
	case errors.Is(err, apperrors.ErrAlreadyExists):
		return http.StatusConflict, &ErrorResponse{Code: "ALREADY_EXISTS", Message: "resource already exists"}
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest, &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return apperrors.HTTPStatus(err), &ErrorResponse{Code: "INTERNAL_ERROR", Message: "an internal error occurred"}
	}
}

// WriteError converts err into the error envelope. Internal errors are
// logged with the request-scoped logger when the middleware installed
// one, falling back to the given logger otherwise.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	status, body := errorBody(err)
	body.RequestID = logger.CorrelationIDFromContext(r.Context())

	if status == http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() {
			l = fallback
		}
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, Response{Error: body})
}

// WriteValidationError reports tag failures field by field; any other
// error becomes a plain 400.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		Error: &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
	})
}
