package serverutils

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/rag"
)

// ErrorHandlerMiddleware maps pipeline errors to HTTP responses. Typed errors
// from the query pipeline carry their own status; anything unrecognized is a
// 500 with a generic message so internals never leak.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		status, message := mapError(err)

		if status >= fiber.StatusInternalServerError {
			log.Error("http", "request failed", map[string]interface{}{
				"path":   ctx.Path(),
				"status": status,
				"error":  err.Error(),
			})
		} else {
			log.Warn("http", "request rejected", map[string]interface{}{
				"path":   ctx.Path(),
				"status": status,
				"error":  err.Error(),
			})
		}

		return ctx.Status(status).JSON(ErrorResponse(status, message))
	}
}

func mapError(err error) (int, string) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	var invalidInput *rag.InvalidInputError
	if errors.As(err, &invalidInput) {
		return fiber.StatusBadRequest, invalidInput.Error()
	}
	var invalidFilter *rag.InvalidFilterError
	if errors.As(err, &invalidFilter) {
		return fiber.StatusBadRequest, invalidFilter.Error()
	}
	var dimMismatch *rag.DimensionMismatchError
	if errors.As(err, &dimMismatch) {
		return fiber.StatusInternalServerError, "embedding configuration error"
	}
	var collectionMissing *rag.CollectionNotFoundError
	if errors.As(err, &collectionMissing) {
		return fiber.StatusInternalServerError, "vector index is not provisioned"
	}
	var rateLimited *rag.ProviderRateLimitedError
	if errors.As(err, &rateLimited) {
		return fiber.StatusTooManyRequests, "embedding provider rate limited, try again later"
	}
	var providerDown *rag.ProviderUnavailableError
	if errors.As(err, &providerDown) {
		return fiber.StatusServiceUnavailable, "embedding provider unavailable"
	}
	var indexDown *rag.IndexUnavailableError
	if errors.As(err, &indexDown) {
		return fiber.StatusServiceUnavailable, "vector index unavailable"
	}
	var genDown *rag.GenerationUnavailableError
	if errors.As(err, &genDown) {
		return fiber.StatusServiceUnavailable, "answer generation unavailable"
	}
	var genTimeout *rag.GenerationTimeoutError
	if errors.As(err, &genTimeout) {
		return fiber.StatusGatewayTimeout, "answer generation timed out"
	}
	var stageTimeout *rag.TimeoutError
	if errors.As(err, &stageTimeout) {
		return fiber.StatusGatewayTimeout, stageTimeout.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusGatewayTimeout, "request deadline exceeded"
	}

	return fiber.StatusInternalServerError, "internal server error"
}
