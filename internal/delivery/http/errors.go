package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/smartcity/traffic/internal/domain"
)

// ErrorHandler maps core error kinds to HTTP statuses: validation failures
// to 400, unknown identifiers to 404, collaborator failures to 502, and
// anything else to 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fiberErr *fiber.Error
	var validationErr *domain.ValidationError
	var upstreamErr *domain.UpstreamError

	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	case errors.As(err, &validationErr):
		code = fiber.StatusBadRequest
		message = validationErr.Error()
	case errors.Is(err, domain.ErrNotFound):
		code = fiber.StatusNotFound
		message = "Not Found"
	case errors.As(err, &upstreamErr):
		code = fiber.StatusBadGateway
		message = upstreamErr.Error()
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
