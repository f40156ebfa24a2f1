package handlers

import (
	"bytes"
	"errors"

	"catalog/internal/logger"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// parseBody decodes a JSON request body into out. An empty body decodes as {}
// so that missing fields surface as validation errors.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if len(bytes.TrimSpace(c.Body())) == 0 {
		return nil
	}
	return c.BodyParser(out)
}

func invalidBody(c *fiber.Ctx, err error) error {
	logger.FromFiber(c).Debug().Err(err).Msg("Error parsing request body")
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// respondError translates a service error into an HTTP response.
func respondError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationErr.Fields,
		})
	case errors.Is(err, services.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Product not found",
		})
	case errors.Is(err, services.ErrUserExists):
		return authFailure(c, "User already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		return authFailure(c, "Invalid email or password")
	}

	logger.FromFiber(c).Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Internal server error",
	})
}

// authFailure carries the reason under both keys; older clients read "error".
func authFailure(c *fiber.Ctx, reason string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": reason,
		"error":   reason,
	})
}
