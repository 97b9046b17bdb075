package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors.Is checks across package boundaries.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrOutOfStock     = errors.New("out of stock")
)

// AppError is an error with a stable machine-readable code and an HTTP
// status. Handlers map it straight onto the response envelope.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(code string, status int, sentinel error, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: sentinel}
}

// NotFound is a 404 for a missing resource.
func NotFound(resource, id string) *AppError {
	return newAppError("NOT_FOUND", http.StatusNotFound, ErrNotFound,
		fmt.Sprintf("%s with id %s not found", resource, id))
}

// AlreadyExists is a 409 for a uniqueness violation.
func AlreadyExists(resource, field, value string) *AppError {
	return newAppError("ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists,
		fmt.Sprintf("%s with %s %q already exists", resource, field, value))
}

// InvalidInput is a 400.
func InvalidInput(message string) *AppError {
	return newAppError("INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput, message)
}

// Unauthorized is a 401.
func Unauthorized(message string) *AppError {
	return newAppError("UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized, message)
}

// Forbidden is a 403.
func Forbidden(message string) *AppError {
	return newAppError("FORBIDDEN", http.StatusForbidden, ErrForbidden, message)
}

// Conflict is a 409 without the already-exists semantics.
func Conflict(message string) *AppError {
	return newAppError("CONFLICT", http.StatusConflict, ErrConflict, message)
}

// OutOfStock is a 422 for insufficient product stock.
func OutOfStock(productID string) *AppError {
	return newAppError("OUT_OF_STOCK", http.StatusUnprocessableEntity, ErrOutOfStock,
		fmt.Sprintf("product %s has insufficient stock", productID))
}

// Internal is a 500 wrapping the underlying cause. The message stays
// generic; the cause is for logs, not clients.
func Internal(err error) *AppError {
	return newAppError("INTERNAL_ERROR", http.StatusInternalServerError, err,
		"an internal error occurred")
}

// Wrap adds context while keeping the chain intact.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus maps err to a status code, preferring an AppError's own
// status and falling back to the sentinel chain.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrOutOfStock):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
