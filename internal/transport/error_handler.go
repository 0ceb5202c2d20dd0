package transport

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/gcmpush/internal/provider"
	"go.uber.org/zap"
)

// ErrorHandler renders errors as {"error": msg}. Fiber errors keep their code,
// PushErrors map to their HTTP-equivalent code, everything else is a 500.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		var pushErr *provider.PushError
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
		case errors.As(err, &pushErr):
			code = provider.StatusCode(err)
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("request error", fields...)
		} else {
			logger.Info("request rejected", fields...)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
