package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/workly/internal/common"
	"github.com/dmitrijs2005/workly/internal/logging"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps a service error to an HTTP status code.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, common.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrRefreshRejected),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return fiber.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, common.ErrUserNotFound), errors.Is(err, common.ErrContractNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, common.ErrEmailTaken),
		errors.Is(err, common.ErrContractExists),
		errors.Is(err, common.ErrInvalidTransition):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// newErrorHandler renders every error returned by a handler as an
// errorResponse. Server errors are logged and their detail is not exposed.
func newErrorHandler(logger logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := statusFor(err)
		msg := err.Error()
		if code >= fiber.StatusInternalServerError {
			logger.Error(c.UserContext(), "request failed", "method", c.Method(), "path", c.Path(), "error", err)
			msg = "internal server error"
		}
		return c.Status(code).JSON(errorResponse{
			Status:    code,
			Error:     http.StatusText(code),
			Message:   msg,
			Path:      c.Path(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}
