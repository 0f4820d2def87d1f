package serverutils

import (
	"errors"

	"rag-notes-be/internal/pkg/apperror"
	"rag-notes-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns any error returned down the chain into a JSON
// {"error": ...} response with the status the error kind maps to.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		status := apperror.StatusCode(err)
		details := map[string]interface{}{
			"method": ctx.Method(),
			"path":   ctx.Path(),
			"status": status,
			"error":  err.Error(),
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("http", "request failed", details)
		} else {
			log.Warn("http", "request rejected", details)
		}

		return ctx.Status(status).JSON(ErrorResponse(apperror.PublicMessage(err)))
	}
}
