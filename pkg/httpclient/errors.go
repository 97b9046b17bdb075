package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
)

const maxErrorBody = 1 << 20

// RemoteErrorResponse mirrors the error envelope returned by the storefront
// API, used to parse structured error bodies from remote calls.
type RemoteErrorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// translates it into an AppError. Bodies matching the standard error
// envelope keep their code and message; anything else becomes a generic
// error carrying the status and raw body.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var remote RemoteErrorResponse
	if json.Unmarshal(raw, &remote) != nil || remote.Error == nil {
		return fmt.Errorf("%s returned status %d: %s", serviceName, resp.StatusCode, string(raw))
	}

	return remoteToAppError(resp.StatusCode, remote.Error.Code, remote.Error.Message, serviceName)
}

func remoteToAppError(status int, code, message, serviceName string) error {
	qualified := fmt.Sprintf("%s: %s", serviceName, message)

	switch status {
	case http.StatusNotFound:
		return apperrors.NotFound(serviceName, message)
	case http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case http.StatusConflict:
		return apperrors.Conflict(qualified)
	case http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case http.StatusUnprocessableEntity:
		return &apperrors.AppError{
			Code:    code,
			Message: qualified,
			Status:  status,
			Err:     apperrors.ErrOutOfStock,
		}
	case http.StatusServiceUnavailable:
		return &apperrors.AppError{
			Code:    code,
			Message: qualified,
			Status:  status,
			Err:     apperrors.ErrServiceUnavail,
		}
	}

	if status >= 500 {
		return fmt.Errorf("%s server error (%d/%s): %s", serviceName, status, code, message)
	}
	return &apperrors.AppError{Code: code, Message: qualified, Status: status}
}
