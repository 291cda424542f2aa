package utils

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	apperrors "swapdesk/internal/errors"
)

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// Success sends a successful JSON response.
func Success(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusOK, data)
}

// BadRequest sends a JSON error response with status 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusBadRequest, fiber.Map{"error": message, "code": apperrors.CodeInvalidRequest})
}

// Unauthorized sends a JSON error response with status 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusUnauthorized, fiber.Map{"error": message, "code": "UNAUTHORIZED"})
}

// Forbidden sends a JSON error response with status 403.
func Forbidden(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusForbidden, fiber.Map{"error": message, "code": "FORBIDDEN"})
}

// NotFound sends a JSON error response with status 404.
func NotFound(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusNotFound, fiber.Map{"error": message, "code": apperrors.CodeNotFound})
}

// InternalError sends a JSON error response with status 500.
func InternalError(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusInternalServerError, fiber.Map{"error": message, "code": apperrors.CodeInternal})
}

// HandleError writes err as a JSON error body. Classified errors keep their
// status and code; anything else is logged and reported as a generic 500.
func HandleError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	de, ok := apperrors.As(err)
	if !ok {
		if logger != nil {
			logger.Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return InternalError(c, "internal server error")
	}

	if de.Status >= fiber.StatusInternalServerError && logger != nil {
		logger.Error("request failed", "method", c.Method(), "path", c.Path(), "code", de.Code, "error", err)
	}

	body := fiber.Map{"error": de.Message, "code": de.Code}
	if de.Details != "" {
		body["details"] = de.Details
	}
	status := de.Status
	if status == 0 {
		status = fiber.StatusInternalServerError
	}
	return Respond(c, status, body)
}
