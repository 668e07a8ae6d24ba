package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/homedash/internal/logging"
	"github.com/soltixdb/homedash/internal/models"
)

// ErrorHandler is the fallback for errors returned by handlers and for
// fiber's own errors (unknown routes, oversized bodies)
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			message = fe.Message
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("Request error",
				"path", c.Path(),
				"method", c.Method(),
				"status", status,
				"error", err,
			)
		}

		return c.Status(status).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    CodeForStatus(status),
				Message: message,
				Path:    c.Path(),
			},
		})
	}
}

// CodeForStatus maps an HTTP status to an error envelope code
func CodeForStatus(status int) string {
	switch {
	case status == fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case status == fiber.StatusNotFound:
		return "NOT_FOUND"
	case status >= 400 && status < 500:
		return "INVALID_REQUEST"
	default:
		return "INTERNAL_ERROR"
	}
}
