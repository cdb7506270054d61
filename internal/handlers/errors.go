package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"agromart/internal/services"
)

// respondError translates a domain error into an HTTP status and a JSON
// body. Validation, conflict, bad credentials and expired OTP all map to
// 400; everything unexpected is a 500.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case services.IsValidation(err),
		errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrOTPExpired),
		errors.Is(err, services.ErrPrecondition):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	}

	message := err.Error()
	if status == fiber.StatusInternalServerError {
		message = "Server error"
	}
	return c.Status(status).JSON(fiber.Map{"message": message})
}
