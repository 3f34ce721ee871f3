package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Komal-TGT/Storage-service/internal/web"
	"github.com/Komal-TGT/Storage-service/middlewares"
	"github.com/Komal-TGT/Storage-service/pkg/access"
	"github.com/Komal-TGT/Storage-service/pkg/storage"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler renders handler errors as JSON. Known failures map to
// their 4xx status; panics are 500; anything else is 400 with the error's
// message.
func ErrorHandler(c web.Context, err error) error {
	status, body := classify(err)
	body.RequestID = middlewares.GetRequestID(c)

	attrs := []any{slog.Int("status", status), slog.Any("error", err)}
	switch {
	case status >= http.StatusInternalServerError:
		c.LogError("request failed", attrs...)
	case status == http.StatusBadRequest && body.Code == "":
		c.LogWarn("request failed", attrs...)
	default:
		c.LogDebug("request rejected", attrs...)
	}

	return c.JSON(status, body)
}

func classify(err error) (int, ErrorResponse) {
	if _, ok := middlewares.AsPanicError(err); ok {
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error"}
	}
	if _, ok := middlewares.AsTimeoutError(err); ok || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, ErrorResponse{Error: "request timed out", Code: "timeout"}
	}
	if he := web.AsHTTPError(err); he != nil {
		return he.StatusCode(), ErrorResponse{Error: he.Message, Code: he.ErrorCode}
	}

	var fve *storage.FileValidationError
	if errors.As(err, &fve) {
		status := http.StatusBadRequest
		if fve.Code == storage.ErrCodeFileTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		return status, ErrorResponse{Error: fve.Message, Code: fve.Code}
	}

	switch {
	case errors.Is(err, middlewares.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Code: "unauthorized"}
	case errors.Is(err, access.ErrInvalidSignature), errors.Is(err, access.ErrPolicyRevoked):
		return http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: "forbidden"}
	case errors.Is(err, storage.ErrAccessDenied):
		return http.StatusForbidden, ErrorResponse{Error: "access denied", Code: "forbidden"}
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Blob not found", Code: "not_found"}
	case errors.Is(err, storage.ErrObjectTooLarge):
		return http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error(), Code: storage.ErrCodeFileTooLarge}
	case errors.Is(err, storage.ErrInvalidInput),
		errors.Is(err, storage.ErrInvalidMIME),
		errors.Is(err, access.ErrInvalidPermissions),
		errors.Is(err, access.ErrInvalidExpiry):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_input"}
	}

	msg := err.Error()
	if msg == "" {
		msg = "Request failed"
	}
	return http.StatusBadRequest, ErrorResponse{Error: msg}
}

// NotFound answers unknown routes.
func NotFound(c web.Context) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{Error: "route not found", Code: "not_found", RequestID: middlewares.GetRequestID(c)})
}

// MethodNotAllowed answers known routes hit with the wrong method.
func MethodNotAllowed(c web.Context) error {
	return c.JSON(http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed", RequestID: middlewares.GetRequestID(c)})
}
