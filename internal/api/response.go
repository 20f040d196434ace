package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/message-manager-discord/backend/internal/service"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorJSON sends a JSON error response.
func errorJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

// successJSON sends a JSON success response with a data envelope.
func successJSON(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, map[string]interface{}{"data": data})
}

// serviceError maps the service error taxonomy onto HTTP responses.
func serviceError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrPermissionDenied), errors.Is(err, service.ErrRoleHierarchy):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrLimitExceeded):
		status = http.StatusConflict
	case errors.Is(err, service.ErrUpstreamUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrBadRequest):
		status = http.StatusBadRequest
	}

	var svcErr *service.ServiceError
	if errors.As(err, &svcErr) {
		return errorJSON(c, status, svcErr.Code, svcErr.Message)
	}
	return errorJSON(c, status, "INTERNAL", "internal server error")
}
