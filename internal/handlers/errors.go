package handlers

import (
	"errors"

	"pasar/internal/repositories"
	"pasar/internal/services"
	"pasar/pkg/razorpay"

	"github.com/gofiber/fiber/v2"
)

// respondError maps the service error taxonomy onto HTTP status codes and
// renders the standard error body. The specific disallowed edge (or missing
// stock, etc.) is carried in the error text so callers can explain the
// failure instead of showing a generic one.
func respondError(c *fiber.Ctx, message string, err error) error {
	status := fiber.StatusInternalServerError

	var transitionErr *services.InvalidTransitionError
	switch {
	case errors.As(err, &transitionErr):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrConflictingUpdate):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrOutOfStock):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrBelowMinOrderQty):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrEmptyCart):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrSignatureInvalid):
		status = fiber.StatusBadRequest
	case errors.Is(err, razorpay.ErrUnavailable):
		status = fiber.StatusBadGateway
	case errors.Is(err, repositories.ErrNotFound):
		status = fiber.StatusNotFound
	}

	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
