// Package middleware provides HTTP middleware for the admin API.
package middleware

import (
	"log/slog"
	"strings"

	"swapdesk/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AdminAuth validates the bearer token and stores the admin claims in the
// request context.
type AdminAuth struct {
	secret string
	logger *slog.Logger
}

func NewAdminAuth(secret string, logger *slog.Logger) *AdminAuth {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminAuth{secret: secret, logger: logger}
}

// Handler rejects requests without a valid HS256 token.
func (m *AdminAuth) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}

	claims, err := utils.ParseAdminToken(m.secret, strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		m.logger.Warn("admin token rejected", "ip", c.IP(), "error", err)
		return utils.Unauthorized(c, "invalid token")
	}

	c.Locals(utils.ClaimsKey, claims)
	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
// The admin role holds every permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetAdminClaims(c)
		if err != nil {
			return utils.Unauthorized(c, "unauthorized")
		}

		if claims.Role == "admin" || claims.HasPermission(permission) {
			return c.Next()
		}

		return utils.Forbidden(c, "insufficient permissions")
	}
}
