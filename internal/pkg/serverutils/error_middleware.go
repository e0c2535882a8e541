package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docchat-be/pkg/ragerr"
)

// ErrorHandlerMiddleware maps the error taxonomy onto HTTP statuses:
// ConfigurationError -> 400, NotFoundError -> 404, GenerationError ->
// 429 for rate limits and 502 otherwise, everything else -> 500.
// AdapterError never reaches this layer on the chat path; the aggregator
// absorbs it. It can still surface from document operations, where it
// maps to 502.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var cfgErr *ragerr.ConfigurationError
		if errors.As(err, &cfgErr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorBody{
				Message: "Invalid request",
				Error:   cfgErr.Error(),
			})
		}

		var nfErr *ragerr.NotFoundError
		if errors.As(err, &nfErr) {
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorBody{
				Message: "Not found",
				Error:   nfErr.Error(),
			})
		}

		var genErr *ragerr.GenerationError
		if errors.As(err, &genErr) {
			status := fiber.StatusBadGateway
			if genErr.Kind == ragerr.GenRateLimit {
				status = fiber.StatusTooManyRequests
			}
			// No internals leak to the user; the turn was not persisted.
			return ctx.Status(status).JSON(ErrorBody{
				Message: "Failed to generate a response, please try again",
			})
		}

		var adapterErr *ragerr.AdapterError
		if errors.As(err, &adapterErr) {
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorBody{
				Message: "Upstream service failed",
				Error:   adapterErr.Op,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorBody{
				Message: fiberErr.Message,
			})
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorBody{
			Message: "Internal server error",
		})
	}
}
