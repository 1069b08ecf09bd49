package rest

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/workly/internal/common"
	"github.com/dmitrijs2005/workly/internal/logging"
	"github.com/dmitrijs2005/workly/internal/server/auth"
	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// RequireAuth verifies the bearer access token and stores its claims in
// the request locals for the handlers downstream.
func (h *Handler) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return fmt.Errorf("%w: missing bearer token", common.ErrInvalidToken)
		}

		claims, err := h.sessions.Authenticate(strings.TrimSpace(token))
		if err != nil {
			return err
		}
		c.Locals(principalKey, claims)
		return c.Next()
	}
}

// RequireCapability rejects principals whose role does not grant want.
// It must run after RequireAuth.
func (h *Handler) RequireCapability(want auth.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := principal(c)
		if claims == nil {
			return fmt.Errorf("%w: missing bearer token", common.ErrInvalidToken)
		}
		if !auth.HasCapability(claims.Role, want) {
			return fmt.Errorf("%w: %s capability required", common.ErrForbidden, want)
		}
		return c.Next()
	}
}

func principal(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(principalKey).(*auth.Claims)
	return claims
}

// RequestLogging logs one line per request once the response status is
// known. Errors from the chain are rendered here so the status is final.
func RequestLogging(logger logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		logger.Info(c.UserContext(), "http.request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", c.IP(),
			"user_agent", string(c.Request().Header.UserAgent()),
		)
		return nil
	}
}
