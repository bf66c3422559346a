package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/modernshop/shop-api/internal/core/domain"
)

// Error codes carried in every error response.
const (
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeDuplicateEmail     = "DUPLICATE_EMAIL"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeMissingToken       = "MISSING_TOKEN"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeExpiredToken       = "EXPIRED_TOKEN"
	CodeNotFound           = "NOT_FOUND"
	CodeCartConflict       = "CART_CONFLICT"
	CodeRateLimited        = "RATE_LIMITED"
	CodeBadRequest         = "BAD_REQUEST"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeInternal           = "INTERNAL_ERROR"
)

const internalMessage = "Something went wrong!"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
	Path    string              `json:"path,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and error code.
//   - Logs unexpected errors internally and answers with a generic message;
//     the raw cause is included only when exposeDetails is set (development).
//   - Renders a consistent JSON envelope: {"code", "message", ...}.
func NewHTTPErrorHandler(log zerolog.Logger, exposeDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err)
		if status >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
			if exposeDetails {
				body.Error = err.Error()
			}
		}
		if status == http.StatusNotFound && body.Code == CodeNotFound && isRouteNotFound(err) {
			body.Path = c.Request().URL.Path
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error) (int, errorResponse) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorResponse{
			Code:    CodeValidationFailed,
			Message: "Validation failed",
			Errors:  ve.Fields,
		}
	}

	switch {
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusBadRequest, errorResponse{Code: CodeDuplicateEmail, Message: "User already exists with this email"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, errorResponse{Code: CodeInvalidCredentials, Message: "Invalid credentials"}
	case errors.Is(err, domain.ErrMissingToken):
		return http.StatusUnauthorized, errorResponse{Code: CodeMissingToken, Message: "No token, authorization denied"}
	case errors.Is(err, domain.ErrExpiredToken):
		return http.StatusUnauthorized, errorResponse{Code: CodeExpiredToken, Message: "Token has expired"}
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, errorResponse{Code: CodeInvalidToken, Message: "Token is not valid"}
	case errors.Is(err, domain.ErrCartItemNotFound):
		return http.StatusNotFound, errorResponse{Code: CodeNotFound, Message: "Item not found in cart"}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Code: CodeNotFound, Message: "User not found"}
	case errors.Is(err, domain.ErrCartConflict):
		return http.StatusConflict, errorResponse{Code: CodeCartConflict, Message: "Cart was modified by another request, please retry"}
	}

	// Echo's own errors (bind failures, 404 from router, body limit, rate limit).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return resolveHTTPError(he)
	}

	return http.StatusInternalServerError, errorResponse{Code: CodeInternal, Message: internalMessage}
}

func resolveHTTPError(he *echo.HTTPError) (int, errorResponse) {
	msg := fmt.Sprintf("%v", he.Message)

	switch he.Code {
	case http.StatusBadRequest:
		return he.Code, errorResponse{Code: CodeBadRequest, Message: msg}
	case http.StatusUnauthorized:
		return he.Code, errorResponse{Code: CodeInvalidToken, Message: msg}
	case http.StatusNotFound:
		if errors.Is(he, echo.ErrNotFound) {
			msg = "Route not found"
		}
		return he.Code, errorResponse{Code: CodeNotFound, Message: msg}
	case http.StatusMethodNotAllowed:
		return he.Code, errorResponse{Code: CodeMethodNotAllowed, Message: msg}
	case http.StatusRequestEntityTooLarge:
		return he.Code, errorResponse{Code: CodePayloadTooLarge, Message: msg}
	case http.StatusTooManyRequests:
		return he.Code, errorResponse{Code: CodeRateLimited, Message: msg}
	}

	if he.Code >= http.StatusInternalServerError {
		return http.StatusInternalServerError, errorResponse{Code: CodeInternal, Message: internalMessage}
	}
	return he.Code, errorResponse{Code: strings.ToUpper(strings.ReplaceAll(http.StatusText(he.Code), " ", "_")), Message: msg}
}

func isRouteNotFound(err error) bool {
	var he *echo.HTTPError
	return errors.As(err, &he) && errors.Is(he, echo.ErrNotFound)
}
