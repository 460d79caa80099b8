package handlers

import (
	"github.com/gofiber/fiber/v2"

	"bert-gateway/models"
	"bert-gateway/services"
)

// statusFor maps an error kind to its HTTP status
func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation, services.KindUnsupportedLanguage:
		return fiber.StatusBadRequest
	case services.KindRateLimited:
		return fiber.StatusTooManyRequests
	case services.KindSessionNotFound, services.KindJobNotFound, services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindQueueFull:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	kind := services.KindOf(err)
	return c.Status(statusFor(kind)).JSON(models.ErrorResponse{
		Error: err.Error(),
		Kind:  string(kind),
	})
}

// jobErrorResponse is errorResponse with the success flag job clients read
func jobErrorResponse(c *fiber.Ctx, err error, message string) error {
	kind := services.KindOf(err)
	if message == "" {
		message = err.Error()
	}
	success := false
	return c.Status(statusFor(kind)).JSON(models.ErrorResponse{
		Success: &success,
		Error:   message,
		Kind:    string(kind),
	})
}

func invalidBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: "Invalid request body: " + err.Error(),
		Kind:  string(services.KindValidation),
	})
}

// ErrorHandler renders errors escaping the handlers (routing misses, panics
// caught by recover) as the standard error body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	kind := services.KindInternal
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
		switch {
		case code == fiber.StatusNotFound || code == fiber.StatusMethodNotAllowed:
			kind = services.KindNotFound
		case code < 500:
			kind = services.KindValidation
		}
	}
	return c.Status(code).JSON(models.ErrorResponse{
		Error: err.Error(),
		Kind:  string(kind),
	})
}
